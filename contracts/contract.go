// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/util/ethutil"
)

// DeployedContract is a contract whose creation was confirmed.
type DeployedContract struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
	Tx      *types.Transaction
	Receipt *types.Receipt

	bound    *bind.BoundContract
	deployer *Deployer
}

func (c *DeployedContract) String() string {
	return fmt.Sprintf("%s@%v", c.Name, c.Address)
}

// Call runs a read-only method against the latest block.
func (c *DeployedContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("calling %s.%s: %w", c.Name, method, err)
	}
	return out, nil
}

// Submit sends a transaction invoking method and returns without waiting for
// it to be mined.
func (c *DeployedContract) Submit(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
	txOpts := *opts
	txOpts.Context = ctx
	tx, err := c.bound.Transact(&txOpts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("sending %s.%s: %w", c.Name, method, err)
	}
	log.Trace("contract transaction sent", "contract", c.Name, "method", method, "tx", tx.Hash())
	return tx, nil
}

// Transact sends a transaction invoking method and waits for a successful
// receipt.
func (c *DeployedContract) Transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Receipt, error) {
	tx, err := c.Submit(ctx, opts, method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := c.deployer.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("waiting for %s.%s: %w", c.Name, method, err)
	}
	if !ethutil.ReceiptSucceeded(receipt) {
		return receipt, fmt.Errorf("%w: %s.%s in tx %v", ErrTransactionFailed, c.Name, method, tx.Hash())
	}
	return receipt, nil
}

// Invoke calls view and pure methods and transacts everything else. Only one
// of the returned values and receipt is set.
func (c *DeployedContract) Invoke(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) ([]interface{}, *types.Receipt, error) {
	m, ok := c.ABI.Methods[method]
	if !ok {
		return nil, nil, fmt.Errorf("%s has no method %s", c.Name, method)
	}
	if m.IsConstant() {
		values, err := c.Call(ctx, method, args...)
		return values, nil, err
	}
	if opts == nil {
		return nil, nil, fmt.Errorf("%s.%s changes state and needs a sender", c.Name, method)
	}
	receipt, err := c.Transact(ctx, opts, method, args...)
	return nil, receipt, err
}

// Events decodes the logs in receipt that this contract emitted as event
// name.
func (c *DeployedContract) Events(receipt *types.Receipt, name string) ([]map[string]interface{}, error) {
	event, ok := c.ABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("%s has no event %s", c.Name, name)
	}
	var events []map[string]interface{}
	for _, entry := range receipt.Logs {
		if entry.Address != c.Address || len(entry.Topics) == 0 || entry.Topics[0] != event.ID {
			continue
		}
		decoded := make(map[string]interface{})
		if err := c.bound.UnpackLogIntoMap(decoded, name, *entry); err != nil {
			return nil, fmt.Errorf("decoding %s.%s: %w", c.Name, name, err)
		}
		events = append(events, decoded)
	}
	return events, nil
}
