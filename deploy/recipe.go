// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package deploy runs ordered multi-contract deployments and collects the
// resulting contracts into a set.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/omgnetwork/chainharness/contracts"
)

// ErrOutOfOrder is returned for a step that links against a step not
// deployed before it.
var ErrOutOfOrder = errors.New("step links against a contract not deployed before it")

// Step deploys one contract. Steps run strictly in the order of the recipe.
type Step struct {
	// Alias names the deployed contract in the set and the outputs file.
	Alias string
	// Contract is the artifact name, bare or source:Name.
	Contract string
	// Library registers the contract in the run's link table even when no
	// artifact references it.
	Library bool
	// Links lists aliases of earlier steps whose addresses this contract's
	// bytecode is linked against.
	Links []string
	// Sender indexes the runner's senders; zero is the deployer account.
	Sender int
	// Args builds the constructor arguments from the contracts deployed so
	// far.
	Args func(set *ContractSet) ([]interface{}, error)
	// After runs once the contract is confirmed, e.g. to initialize it.
	After func(ctx context.Context, set *ContractSet, contract *contracts.DeployedContract, sender *bind.TransactOpts) error
	// RecordTxHash adds <alias>_tx_hash to the outputs.
	RecordTxHash bool
}

type Recipe struct {
	Name  string
	Steps []Step
}

// Validate checks aliases are unique and non-empty and that every link
// refers to an earlier step.
func (r *Recipe) Validate() error {
	seen := make(map[string]int, len(r.Steps))
	for i, step := range r.Steps {
		if step.Alias == "" {
			return fmt.Errorf("recipe %s: step %d has no alias", r.Name, i)
		}
		if step.Contract == "" {
			return fmt.Errorf("recipe %s: step %s has no contract", r.Name, step.Alias)
		}
		if _, dup := seen[step.Alias]; dup {
			return fmt.Errorf("recipe %s: duplicate alias %s", r.Name, step.Alias)
		}
		for _, link := range step.Links {
			if _, earlier := seen[link]; !earlier {
				return fmt.Errorf("%w: recipe %s step %s links %s", ErrOutOfOrder, r.Name, step.Alias, link)
			}
		}
		if step.Sender < 0 {
			return fmt.Errorf("recipe %s: step %s has negative sender %d", r.Name, step.Alias, step.Sender)
		}
		seen[step.Alias] = i
	}
	return nil
}
