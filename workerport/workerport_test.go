// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package workerport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	allocator := NewAllocator(DefaultBasePort)
	for _, tc := range []struct {
		worker string
		port   int
	}{
		{"gw0", 8545},
		{"gw1", 8546},
		{"gw12", 8557},
		{"worker-7", 8552},
		{"7", 8552},
		{"master", 8545},
		{"", 8545},
		{"gw", 8545},
		{"gw3a", 8545},
		{"gw99999999999999999999999", 8545},
	} {
		require.Equal(t, tc.port, allocator.Resolve(tc.worker), "worker %q", tc.worker)
	}
}

func TestDistinctSuffixesGetDistinctPorts(t *testing.T) {
	allocator := NewAllocator(9000)
	seen := map[int]string{}
	for _, worker := range []string{"gw0", "gw1", "gw2", "gw3", "gw4"} {
		slot := allocator.Slot(worker)
		require.Equal(t, worker, slot.WorkerID)
		if other, found := seen[slot.Port]; found {
			t.Fatalf("%s and %s share port %d", worker, other, slot.Port)
		}
		seen[slot.Port] = worker
	}
}

func TestWorkerIDFromEnv(t *testing.T) {
	t.Setenv("TEST_WORKER_ENV", "gw5")
	require.Equal(t, "gw5", WorkerID("TEST_WORKER_ENV"))
	require.Equal(t, DefaultWorkerID, WorkerID("TEST_WORKER_ENV_UNSET"))
}
