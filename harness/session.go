// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package harness composes accounts, a node, mining control, artifacts and
// the deployer into one session per test binary.
package harness

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/artifacts"
	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/deploy"
	"github.com/omgnetwork/chainharness/linker"
	"github.com/omgnetwork/chainharness/mining"
	"github.com/omgnetwork/chainharness/nodeproc"
	"github.com/omgnetwork/chainharness/util/rpcclient"
	"github.com/omgnetwork/chainharness/workerport"
)

type Session struct {
	Slot     workerport.Slot
	Accounts []*accounts.Account
	Node     nodeproc.Node
	Mining   *mining.Client
	Store    *artifacts.Store
	Deployer *contracts.Deployer
	ChainID  *big.Int

	manager *nodeproc.Manager
	rpc     *rpcclient.RpcClient
}

// NewSession brings up or attaches to the worker's node, connects to it and
// indexes the artifacts. The session starts with automining on.
func NewSession(ctx context.Context, config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	slot := config.Slot()
	accs, err := config.ProvisionAccounts()
	if err != nil {
		return nil, err
	}
	manager, err := nodeproc.NewManager(config.Node, nil)
	if err != nil {
		return nil, err
	}
	node, err := manager.Ensure(ctx, slot.Port, accs, config.Node.GasLimit)
	if err != nil {
		return nil, err
	}

	rpcConfig := config.RPC
	if rpcConfig.URL == "" {
		rpcConfig.URL = node.URL()
	}
	client := rpcclient.NewRpcClient(func() *rpcclient.ClientConfig { return &rpcConfig })
	if err := client.Start(ctx); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("%w: %w", nodeproc.ErrNodeUnreachable, err)
	}
	backend := ethclient.NewClient(client.Client())

	session, err := Attach(ctx, config, slot, node, client, backend, manager.Flavor().Mining, accs)
	if err != nil {
		client.Close()
		_ = manager.Close()
		return nil, err
	}
	session.manager = manager
	session.rpc = client
	return session, nil
}

// Attach builds a session over an established node connection. The node is
// expected to be in manual mining, as nodeproc hands nodes out.
func Attach(ctx context.Context, config Config, slot workerport.Slot, node nodeproc.Node, rpc mining.RPCCaller, backend mining.Backend, methods mining.Methods, accs []*accounts.Account) (*Session, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	client := mining.NewClient(rpc, backend, methods, mining.ManualMining)
	if err := client.EnableAutomine(ctx); err != nil {
		return nil, err
	}
	store := artifacts.NewStore(config.Artifacts)
	if err := store.Init(); err != nil {
		return nil, err
	}
	deployer, err := contracts.NewDeployer(client, config.ContractsConfig())
	if err != nil {
		return nil, err
	}
	log.Info("harness session ready", "worker", slot.WorkerID, "node", node, "chainId", chainID, "accounts", len(accs))
	return &Session{
		Slot:     slot,
		Accounts: accs,
		Node:     node,
		Mining:   client,
		Store:    store,
		Deployer: deployer,
		ChainID:  chainID,
	}, nil
}

// Transactor signs for account i.
func (s *Session) Transactor(i int) (*bind.TransactOpts, error) {
	if i < 0 || i >= len(s.Accounts) {
		return nil, fmt.Errorf("account %d out of %d", i, len(s.Accounts))
	}
	return s.Accounts[i].TransactOpts(s.ChainID)
}

func (s *Session) Transactors() ([]*bind.TransactOpts, error) {
	opts := make([]*bind.TransactOpts, 0, len(s.Accounts))
	for i := range s.Accounts {
		transactor, err := s.Transactor(i)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transactor)
	}
	return opts, nil
}

// Deploy deploys one artifact from account sender.
func (s *Session) Deploy(ctx context.Context, name string, sender int, links *linker.LinkTable, args ...interface{}) (*contracts.DeployedContract, error) {
	art, err := s.Store.Load(name)
	if err != nil {
		return nil, err
	}
	opts, err := s.Transactor(sender)
	if err != nil {
		return nil, err
	}
	return s.Deployer.Deploy(ctx, art, args, opts, links)
}

// Runner deploys recipes with the session's accounts as senders.
func (s *Session) Runner() (*deploy.Runner, error) {
	senders, err := s.Transactors()
	if err != nil {
		return nil, err
	}
	return deploy.NewRunner(s.Store, s.Deployer, senders...)
}

// Close disconnects and terminates the node if this session spawned it.
func (s *Session) Close() error {
	if s.rpc != nil {
		s.rpc.Close()
	}
	if s.manager != nil {
		return s.manager.Close()
	}
	return nil
}
