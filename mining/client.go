// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package mining wraps a node connection with control over automatic block
// production.
package mining

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"

	"github.com/omgnetwork/chainharness/accounts"
)

type Mode int32

const (
	// Automining includes every submitted transaction in a new block.
	Automining Mode = iota
	// ManualMining leaves submitted transactions pending until a block is
	// mined explicitly.
	ManualMining
)

func (m Mode) String() string {
	switch m {
	case Automining:
		return "automining"
	case ManualMining:
		return "manual"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

type RPCCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Backend is what ethclient.Client provides and what contract bindings need.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	PendingTransactionCount(ctx context.Context) (uint, error)
}

// Client is a contract backend whose node can be switched between automatic
// and manual block production. Transactions sent through it go to the node
// unchanged; only the node's mining mode decides when they are included.
type Client struct {
	Backend
	rpc     RPCCaller
	methods Methods
	mode    atomic.Int32
	sent    atomic.Uint64
}

var _ bind.ContractBackend = (*Client)(nil)
var _ bind.DeployBackend = (*Client)(nil)

// NewClient wraps backend. initial must describe the node's current mode;
// nodes handed out by nodeproc start in ManualMining.
func NewClient(rpc RPCCaller, backend Backend, methods Methods, initial Mode) *Client {
	c := &Client{
		Backend: backend,
		rpc:     rpc,
		methods: methods,
	}
	c.mode.Store(int32(initial))
	return c
}

func (c *Client) Mode() Mode {
	return Mode(c.mode.Load())
}

func (c *Client) Methods() Methods {
	return c.methods
}

// Sent counts the transactions submitted through this client.
func (c *Client) Sent() uint64 {
	return c.sent.Load()
}

func (c *Client) control(ctx context.Context, method string, args []interface{}) error {
	var result interface{}
	if err := c.rpc.CallContext(ctx, &result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	// ganache answers true, anvil answers null
	if ok, isBool := result.(bool); isBool && !ok {
		return fmt.Errorf("%s: node refused", method)
	}
	return nil
}

// DisableAutomine stops automatic block production. Transactions submitted
// afterwards stay pending until Mine or EnableAutomine.
func (c *Client) DisableAutomine(ctx context.Context) error {
	if err := c.control(ctx, c.methods.Stop, c.methods.StopArgs); err != nil {
		return err
	}
	previous := Mode(c.mode.Swap(int32(ManualMining)))
	log.Debug("automine disabled", "previous", previous)
	return nil
}

// EnableAutomine resumes automatic block production. Transactions left
// pending by manual mode are mined before it returns.
func (c *Client) EnableAutomine(ctx context.Context) error {
	if err := c.control(ctx, c.methods.Start, c.methods.StartArgs); err != nil {
		return err
	}
	previous := Mode(c.mode.Swap(int32(Automining)))
	pending, err := c.PendingTransactionCount(ctx)
	if err != nil {
		return fmt.Errorf("counting pending transactions: %w", err)
	}
	if pending > 0 {
		log.Debug("flushing pending transactions", "count", pending)
		if err := c.Mine(ctx); err != nil {
			return err
		}
	}
	log.Debug("automine enabled", "previous", previous)
	return nil
}

// Mine produces one block with whatever is pending.
func (c *Client) Mine(ctx context.Context) error {
	if c.methods.Mine == "" {
		return errors.New("node flavor has no mine call")
	}
	var result interface{}
	if err := c.rpc.CallContext(ctx, &result, c.methods.Mine); err != nil {
		return fmt.Errorf("%s: %w", c.methods.Mine, err)
	}
	return nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.Backend.SendTransaction(ctx, tx); err != nil {
		return err
	}
	c.sent.Add(1)
	log.Trace("transaction submitted", "tx", tx.Hash(), "mode", c.Mode())
	return nil
}

// SendValue transfers value wei from one account to another through this
// client and returns the submitted transaction without waiting for it.
func (c *Client) SendValue(ctx context.Context, from *accounts.Account, to common.Address, value *big.Int) (*types.Transaction, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := c.PendingNonceAt(ctx, from.Address)
	if err != nil {
		return nil, err
	}
	gasPrice, err := c.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      params.TxGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), from.Key)
	if err != nil {
		return nil, err
	}
	if err := c.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}
