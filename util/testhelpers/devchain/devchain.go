// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package devchain runs an in-process chain that answers the same mining
// control calls as ganache and anvil, for tests that cannot spawn a node.
package devchain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"

	"github.com/omgnetwork/chainharness/accounts"
)

// ChainID of the simulated chain.
var ChainID = params.AllDevChainProtocolChanges.ChainID

type DevChain struct {
	backend *simulated.Backend

	mutex     sync.Mutex
	automine  bool
	pending   uint
	calls     []string
	callCount map[string]int
}

// New starts a chain with accs funded with balance each. The chain automines
// until told otherwise.
func New(accs []*accounts.Account, balance *big.Int, gasLimit uint64) *DevChain {
	alloc := types.GenesisAlloc{}
	for _, acc := range accs {
		alloc[acc.Address] = types.Account{Balance: new(big.Int).Set(balance)}
	}
	return &DevChain{
		backend:   simulated.NewBackend(alloc, simulated.WithBlockGasLimit(gasLimit)),
		automine:  true,
		callCount: map[string]int{},
	}
}

func (d *DevChain) Close() error {
	return d.backend.Close()
}

// Client is the chain's contract backend. Sending through it mines right away
// while automining is on.
func (d *DevChain) Client() *Client {
	return &Client{Client: d.backend.Client(), chain: d}
}

func (d *DevChain) Automining() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.automine
}

// Calls lists the control methods received, in order.
func (d *DevChain) Calls() []string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *DevChain) CallCount(method string) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.callCount[method]
}

// commitLocked mines one block; d.mutex must be held.
func (d *DevChain) commitLocked() {
	d.backend.Commit()
	d.pending = 0
}

// CallContext serves the node control namespace: miner_stop, miner_start,
// evm_mine, evm_setAutomine and net_version.
func (d *DevChain) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.calls = append(d.calls, method)
	d.callCount[method]++
	var answer interface{}
	switch method {
	case "miner_stop":
		d.automine = false
		answer = true
	case "miner_start":
		d.automine = true
		if d.pending > 0 {
			d.commitLocked()
		}
		answer = true
	case "evm_setAutomine":
		if len(args) != 1 {
			return fmt.Errorf("evm_setAutomine expects 1 argument, got %d", len(args))
		}
		enabled, ok := args[0].(bool)
		if !ok {
			return fmt.Errorf("evm_setAutomine expects a bool, got %T", args[0])
		}
		d.automine = enabled
	case "evm_mine":
		d.commitLocked()
		answer = "0x0"
	case "net_version":
		answer = ChainID.String()
	default:
		return fmt.Errorf("the method %s does not exist/is not available", method)
	}
	if result == nil {
		return nil
	}
	encoded, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, result)
}

type Client struct {
	simulated.Client
	chain *DevChain
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.chain.mutex.Lock()
	defer c.chain.mutex.Unlock()
	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.chain.pending++
	if c.chain.automine {
		c.chain.commitLocked()
	}
	return nil
}

// PendingTransactionCount counts what was sent while not automining.
func (c *Client) PendingTransactionCount(_ context.Context) (uint, error) {
	c.chain.mutex.Lock()
	defer c.chain.mutex.Unlock()
	return c.chain.pending, nil
}
