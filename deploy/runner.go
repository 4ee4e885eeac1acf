// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/artifacts"
	"github.com/omgnetwork/chainharness/contracts"
)

type ArtifactLoader interface {
	Load(name string) (*artifacts.Artifact, error)
}

// Runner deploys recipes from one artifact store through one deployer.
type Runner struct {
	store    ArtifactLoader
	deployer *contracts.Deployer
	senders  []*bind.TransactOpts
}

// NewRunner needs at least one sender; steps pick theirs by index.
func NewRunner(store ArtifactLoader, deployer *contracts.Deployer, senders ...*bind.TransactOpts) (*Runner, error) {
	if len(senders) == 0 {
		return nil, errors.New("runner needs at least one sender")
	}
	return &Runner{store: store, deployer: deployer, senders: senders}, nil
}

// Run deploys every step of recipe in order with a fresh link table. The
// first failing step aborts the run.
func (r *Runner) Run(ctx context.Context, recipe *Recipe) (*ContractSet, error) {
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	set := newContractSet(recipe.Name)
	deployed := make(map[string]*artifacts.Artifact, len(recipe.Steps))
	log.Info("running deployment recipe", "recipe", recipe.Name, "steps", len(recipe.Steps))

	for _, step := range recipe.Steps {
		if step.Sender >= len(r.senders) {
			return nil, fmt.Errorf("step %s: sender %d out of %d", step.Alias, step.Sender, len(r.senders))
		}
		sender := r.senders[step.Sender]

		art, err := r.store.Load(step.Contract)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Alias, err)
		}
		if step.Library && !art.Library {
			library := *art
			library.Library = true
			art = &library
		}
		for _, link := range step.Links {
			dep := deployed[link]
			if err := set.Links.Register(set.contracts[link].Address, dep.Name, dep.FullyQualifiedName()); err != nil {
				return nil, fmt.Errorf("step %s: %w", step.Alias, err)
			}
		}

		var args []interface{}
		if step.Args != nil {
			args, err = step.Args(set)
			if err != nil {
				return nil, fmt.Errorf("step %s: constructor arguments: %w", step.Alias, err)
			}
		}
		contract, err := r.deployer.Deploy(ctx, art, args, sender, set.Links)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Alias, err)
		}
		set.add(step.Alias, contract)
		deployed[step.Alias] = art
		if step.RecordTxHash {
			set.outputs[step.Alias+"_tx_hash"] = strings.ToLower(contract.Tx.Hash().Hex())
		}

		if step.After != nil {
			if err := step.After(ctx, set, contract, sender); err != nil {
				return nil, fmt.Errorf("step %s: %w", step.Alias, err)
			}
		}
	}
	log.Info("deployment recipe done", "recipe", recipe.Name, "contracts", len(set.order), "libraries", set.Links.Len())
	return set, nil
}
