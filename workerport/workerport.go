// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package workerport maps a test worker to the port its node listens on.
package workerport

import (
	"os"
	"regexp"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
)

const (
	DefaultBasePort = 8545
	// DefaultWorkerEnv names the variable a test runner sets to tell workers
	// apart, e.g. gw0, gw1, ...
	DefaultWorkerEnv = "CHAINHARNESS_WORKER"
	// DefaultWorkerID is used when the runner does not distribute tests.
	DefaultWorkerID = "master"
)

var trailingNumber = regexp.MustCompile(`(\d+)$`)

type Slot struct {
	WorkerID string
	Port     int
}

type Allocator struct {
	BasePort int
}

func NewAllocator(basePort int) Allocator {
	return Allocator{BasePort: basePort}
}

func (a Allocator) Resolve(workerID string) int {
	return a.BasePort + ParseWorkerNumber(workerID)
}

func (a Allocator) Slot(workerID string) Slot {
	return Slot{WorkerID: workerID, Port: a.Resolve(workerID)}
}

// ParseWorkerNumber returns the trailing integer of workerID. Identifiers
// without one map to 0, so two workers named without a number share a port.
func ParseWorkerNumber(workerID string) int {
	match := trailingNumber.FindString(workerID)
	if match == "" {
		log.Debug("worker id has no numeric suffix, using offset 0", "worker", workerID)
		return 0
	}
	number, err := strconv.Atoi(match)
	if err != nil {
		log.Debug("worker id suffix does not fit an int, using offset 0", "worker", workerID, "err", err)
		return 0
	}
	return number
}

// WorkerID reads the worker identifier from envName, DefaultWorkerID if unset.
func WorkerID(envName string) string {
	if envName == "" {
		envName = DefaultWorkerEnv
	}
	if id, ok := os.LookupEnv(envName); ok && id != "" {
		return id
	}
	return DefaultWorkerID
}
