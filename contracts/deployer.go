// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package contracts deploys linked artifacts and wraps the result in a handle
// for calls, transactions and event decoding.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/artifacts"
	"github.com/omgnetwork/chainharness/linker"
	"github.com/omgnetwork/chainharness/util/ethutil"
)

var (
	// ErrDeploymentFailed covers creation transactions that could not be
	// sent, reverted, or left no contract behind.
	ErrDeploymentFailed = errors.New("deployment failed")
	// ErrTransactionFailed is returned for a mined transaction whose status
	// is not successful.
	ErrTransactionFailed = errors.New("transaction failed")
)

type Config struct {
	DeployGas           uint64        `koanf:"deploy-gas"`
	ReceiptPollInterval time.Duration `koanf:"receipt-poll-interval"`
	ReceiptMaxAttempts  int           `koanf:"receipt-max-attempts"`
}

// DefaultConfig leaves DeployGas unset: the harness derives it from the node's
// block gas limit, and a zero value left in place means the gas is estimated.
var DefaultConfig = Config{
	DeployGas:           0,
	ReceiptPollInterval: 100 * time.Millisecond,
	ReceiptMaxAttempts:  600,
}

var TestConfig = Config{
	DeployGas:           9_000_000,
	ReceiptPollInterval: 10 * time.Millisecond,
	ReceiptMaxAttempts:  100,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Uint64(prefix+".deploy-gas", DefaultConfig.DeployGas, "gas limit of contract creation transactions (0 = block gas limit minus one million)")
	f.Duration(prefix+".receipt-poll-interval", DefaultConfig.ReceiptPollInterval, "interval between receipt polls")
	f.Int(prefix+".receipt-max-attempts", DefaultConfig.ReceiptMaxAttempts, "receipt polls before giving up on a transaction")
}

func (c *Config) Validate() error {
	if c.ReceiptPollInterval <= 0 {
		return errors.New("receipt poll interval must be positive")
	}
	if c.ReceiptMaxAttempts < 0 {
		return errors.New("receipt max attempts must not be negative")
	}
	return nil
}

// Backend is the node connection contracts are deployed through; a
// *mining.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Deployer struct {
	backend Backend
	config  Config
}

func NewDeployer(backend Backend, config Config) (*Deployer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Deployer{backend: backend, config: config}, nil
}

func (d *Deployer) Backend() Backend {
	return d.backend
}

func (d *Deployer) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return ethutil.WaitForReceipt(ctx, d.backend, txHash, d.config.ReceiptPollInterval, d.config.ReceiptMaxAttempts)
}

// Deploy links art against links, sends its creation transaction from sender
// with args as constructor arguments and waits for the receipt. A handle is
// only returned for a successful receipt that carries a contract address.
// Libraries are registered in links once deployed.
func (d *Deployer) Deploy(ctx context.Context, art *artifacts.Artifact, args []interface{}, sender *bind.TransactOpts, links *linker.LinkTable) (*DeployedContract, error) {
	name := art.FullyQualifiedName()
	if !art.Deployable() {
		return nil, fmt.Errorf("%w: %s has no creation code", ErrDeploymentFailed, name)
	}
	if links == nil {
		links = linker.NewLinkTable()
	}
	if art.Library {
		// registration must not fail once the creation transaction is out
		for _, libName := range []string{art.Name, name} {
			if existing, ok := links.Lookup(libName); ok {
				return nil, fmt.Errorf("%w: %s at %v", linker.ErrAlreadyLinked, libName, existing)
			}
		}
	}
	code, err := linker.Link(art.Bytecode, art.LinkReferences, links)
	if err != nil {
		return nil, fmt.Errorf("linking %s: %w", name, err)
	}

	opts := *sender
	opts.Context = ctx
	if opts.GasLimit == 0 {
		opts.GasLimit = d.config.DeployGas
	}
	address, tx, bound, err := bind.DeployContract(&opts, art.ABI, code, d.backend, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: sending %s: %w", ErrDeploymentFailed, name, err)
	}
	log.Debug("creation transaction sent", "contract", name, "tx", tx.Hash(), "from", opts.From, "expected", address)

	receipt, err := d.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeploymentFailed, name, err)
	}
	if !ethutil.ReceiptSucceeded(receipt) {
		return nil, fmt.Errorf("%w: %s constructor reverted in tx %v", ErrDeploymentFailed, name, tx.Hash())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s receipt has no contract address", ErrDeploymentFailed, name)
	}
	if receipt.ContractAddress != address {
		log.Warn("contract address differs from prediction", "contract", name, "predicted", address, "actual", receipt.ContractAddress)
		bound = bind.NewBoundContract(receipt.ContractAddress, art.ABI, d.backend, d.backend, d.backend)
	}

	if art.Library {
		if err := links.Register(receipt.ContractAddress, art.Name, name); err != nil {
			return nil, err
		}
	}
	log.Info("contract deployed", "contract", name, "address", receipt.ContractAddress, "gasUsed", receipt.GasUsed, "library", art.Library)
	return &DeployedContract{
		Name:     art.Name,
		Address:  receipt.ContractAddress,
		ABI:      art.ABI,
		Tx:       tx,
		Receipt:  receipt,
		bound:    bound,
		deployer: d,
	}, nil
}
