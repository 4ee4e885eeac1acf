// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package harness

import (
	"context"
	"testing"

	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/deploy"
	"github.com/omgnetwork/chainharness/linker"
)

// Fixture scopes session state to one test. Automining is restored when the
// test ends, however it ends.
type Fixture struct {
	t       testing.TB
	session *Session
	// Links collects the libraries deployed during the test.
	Links *linker.LinkTable
}

func (s *Session) Fixture(t testing.TB) *Fixture {
	t.Helper()
	t.Cleanup(func() {
		if err := s.Mining.EnableAutomine(context.Background()); err != nil {
			t.Errorf("restoring automine: %v", err)
		}
	})
	return &Fixture{t: t, session: s, Links: linker.NewLinkTable()}
}

func (f *Fixture) Session() *Session {
	return f.session
}

// ManualMining turns automining off until the test ends or Mine is called
// through the session's mining client.
func (f *Fixture) ManualMining() {
	f.t.Helper()
	if err := f.session.Mining.DisableAutomine(context.Background()); err != nil {
		f.t.Fatal("disabling automine:", err)
	}
}

// Deploy deploys name from the first account, failing the test on error.
func (f *Fixture) Deploy(name string, args ...interface{}) *contracts.DeployedContract {
	f.t.Helper()
	return f.DeployFrom(0, name, args...)
}

func (f *Fixture) DeployFrom(sender int, name string, args ...interface{}) *contracts.DeployedContract {
	f.t.Helper()
	contract, err := f.session.Deploy(context.Background(), name, sender, f.Links, args...)
	if err != nil {
		f.t.Fatal("deploying", name, ":", err)
	}
	return contract
}

// DeployRecipe runs recipe, failing the test on error.
func (f *Fixture) DeployRecipe(recipe *deploy.Recipe) *deploy.ContractSet {
	f.t.Helper()
	runner, err := f.session.Runner()
	if err != nil {
		f.t.Fatal(err)
	}
	set, err := runner.Run(context.Background(), recipe)
	if err != nil {
		f.t.Fatal("running recipe", recipe.Name, ":", err)
	}
	return set
}
