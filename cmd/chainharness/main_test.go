// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestSignalCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := cancelOnSignal(ctx, cancel)
	defer stop()

	Require(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		Fail(t, "SIGTERM did not cancel the run context")
	}
}

func TestCancelledRunSkipsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	config := DefaultConfig
	config.Node.Binary = "/nonexistent/node"
	config.Node.LockDir = t.TempDir()
	config.Deploy.Recipe = ""
	if err := run(ctx, &config); err == nil {
		Fail(t, "run succeeded with a cancelled context")
	}
}
