// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package deploy

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/omgnetwork/chainharness/contracts"
)

const (
	// DefaultExitPeriod is the exit period root chains are initialized with.
	DefaultExitPeriod = 4 * time.Minute
	// ShortExitPeriod lets tests reach exit finalization within seconds.
	ShortExitPeriod = 4 * time.Second
)

// RootChain deploys the priority queue library and factory and a root chain
// linked against the factory, then initializes it with exitPeriod.
func RootChain(exitPeriod time.Duration) *Recipe {
	seconds := big.NewInt(int64(exitPeriod / time.Second))
	return &Recipe{
		Name: "root-chain",
		Steps: []Step{
			{Alias: "priority_queue_lib", Contract: "PriorityQueueLib", Library: true},
			{Alias: "priority_queue_factory", Contract: "PriorityQueueFactory", Library: true, Links: []string{"priority_queue_lib"}},
			{
				Alias:        "root_chain",
				Contract:     "RootChain",
				Links:        []string{"priority_queue_factory"},
				RecordTxHash: true,
				After: func(ctx context.Context, _ *ContractSet, contract *contracts.DeployedContract, sender *bind.TransactOpts) error {
					_, err := contract.Transact(ctx, sender, "init", seconds)
					return err
				},
			},
		},
	}
}

func MintableToken() *Recipe {
	return &Recipe{
		Name:  "token",
		Steps: []Step{{Alias: "token", Contract: "MintableToken"}},
	}
}

var builtins = map[string]func() *Recipe{
	"root-chain": func() *Recipe { return RootChain(DefaultExitPeriod) },
	"root-chain-short-exit": func() *Recipe {
		recipe := RootChain(ShortExitPeriod)
		recipe.Name = "root-chain-short-exit"
		return recipe
	},
	"token": MintableToken,
}

// Lookup returns a fresh copy of a built-in recipe.
func Lookup(name string) (*Recipe, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q, known: %v", name, BuiltinNames())
	}
	return build(), nil
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
