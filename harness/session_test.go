// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package harness

import (
	"context"
	"math/big"
	"os/exec"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/deploy"
	"github.com/omgnetwork/chainharness/mining"
	"github.com/omgnetwork/chainharness/util/testhelpers"
	"github.com/omgnetwork/chainharness/util/testhelpers/devchain"
	"github.com/omgnetwork/chainharness/workerport"
)

type devNode struct{}

func (devNode) Port() int        { return 0 }
func (devNode) URL() string      { return "simulated://" }
func (devNode) Owned() bool      { return false }
func (devNode) Terminate() error { return nil }
func (devNode) String() string   { return "simulated node" }

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	devchain.LibraryChain(t, dir)
	config := DefaultConfig
	config.Accounts = 3
	config.Artifacts.Dir = dir
	config.Contracts = contracts.TestConfig
	return config
}

func newDevSession(t *testing.T) (*Session, *devchain.DevChain) {
	t.Helper()
	return newDevSessionWith(t, testConfig(t))
}

func newDevSessionWith(t *testing.T, config Config) (*Session, *devchain.DevChain) {
	t.Helper()
	Require(t, config.Validate())
	accs, err := config.ProvisionAccounts()
	Require(t, err)
	chain := devchain.New(accs, accounts.DefaultBalance, config.Node.GasLimit)
	t.Cleanup(func() { _ = chain.Close() })
	Require(t, chain.CallContext(context.Background(), nil, "miner_stop"))

	session, err := Attach(context.Background(), config, config.Slot(), devNode{}, chain, chain.Client(), mining.GanacheMethods, accs)
	Require(t, err)
	t.Cleanup(func() { Require(t, session.Close()) })
	return session, chain
}

func TestSessionStartsAutomining(t *testing.T) {
	t.Parallel()
	session, chain := newDevSession(t)
	require.True(t, chain.Automining())
	require.Equal(t, mining.Automining, session.Mining.Mode())
	require.Equal(t, devchain.ChainID, session.ChainID)
	require.Len(t, session.Accounts, 3)

	_, err := session.Transactor(3)
	require.Error(t, err)
	opts, err := session.Transactor(2)
	Require(t, err)
	require.Equal(t, session.Accounts[2].Address, opts.From)
}

func TestFixtureRestoresAutomining(t *testing.T) {
	t.Parallel()
	session, chain := newDevSession(t)
	var pending *types.Transaction

	t.Run("manual", func(t *testing.T) {
		fixture := session.Fixture(t)
		fixture.ManualMining()
		require.False(t, chain.Automining())
		var err error
		pending, err = session.Mining.SendValue(context.Background(), session.Accounts[0], session.Accounts[1].Address, big.NewInt(1))
		Require(t, err)
		_, err = session.Mining.TransactionReceipt(context.Background(), pending.Hash())
		require.Error(t, err)
	})

	require.True(t, chain.Automining())
	receipt, err := session.Mining.TransactionReceipt(context.Background(), pending.Hash())
	Require(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestFixtureDeploys(t *testing.T) {
	t.Parallel()
	session, _ := newDevSession(t)
	fixture := session.Fixture(t)

	lib := fixture.Deploy("PriorityQueueLib")
	factory := fixture.Deploy("PriorityQueueFactory")
	exitGame := fixture.DeployFrom(1, "ExitGame", factory.Address)
	require.NotEqual(t, lib.Address, exitGame.Address)
	linked, ok := fixture.Links.Lookup("PriorityQueueFactory")
	require.True(t, ok)
	require.Equal(t, factory.Address, linked)

	set := fixture.DeployRecipe(deploy.RootChain(deploy.ShortExitPeriod))
	require.Len(t, set.Aliases(), 3)
	// every recipe run links against its own libraries
	require.NotEqual(t, factory.Address, set.MustGet("priority_queue_factory").Address)
}

func TestConfigSlot(t *testing.T) {
	t.Parallel()
	config := DefaultConfig
	config.WorkerID = "gw3"
	require.Equal(t, workerport.Slot{WorkerID: "gw3", Port: 8548}, config.Slot())

	config.Mnemonic = accounts.DevMnemonic
	config.Accounts = 1
	accs, err := config.ProvisionAccounts()
	Require(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", accs[0].Address.Hex())

	config.Accounts = 0
	require.Error(t, config.Validate())
}

func TestDeployGasFollowsNodeGasLimit(t *testing.T) {
	t.Parallel()
	config := testConfig(t)
	config.Node.GasLimit = 6_000_000
	config.Contracts.DeployGas = 0
	Require(t, config.Validate())
	require.Equal(t, uint64(5_000_000), config.ContractsConfig().DeployGas)

	session, _ := newDevSessionWith(t, config)
	token, err := session.Deploy(context.Background(), "MintableToken", 0, nil)
	Require(t, err)
	require.Equal(t, uint64(5_000_000), token.Tx.Gas())
}

func TestConfigRejectsDeployGasAboveNodeLimit(t *testing.T) {
	t.Parallel()
	config := DefaultConfig
	config.Node.GasLimit = 6_000_000
	config.Contracts.DeployGas = 9_000_000
	require.ErrorContains(t, config.Validate(), "exceeds node gas limit")

	config.Contracts.DeployGas = 0
	config.Node.GasLimit = BlockGasMargin
	require.Error(t, config.Validate())

	config = DefaultConfig
	require.Equal(t, DefaultConfig.Node.GasLimit-BlockGasMargin, config.ContractsConfig().DeployGas)
}

func TestConfigRejectsPortOutOfRange(t *testing.T) {
	t.Parallel()
	config := DefaultConfig
	config.WorkerID = "gw70000"
	require.ErrorContains(t, config.Validate(), "78545")
	config.WorkerID = "gw56990"
	Require(t, config.Validate())
}

func TestSessionDeployWithoutLinkTable(t *testing.T) {
	t.Parallel()
	session, _ := newDevSession(t)
	lib, err := session.Deploy(context.Background(), "PriorityQueueLib", 0, nil)
	Require(t, err)
	require.Equal(t, "PriorityQueueLib", lib.Name)
}

func TestSessionWithGanache(t *testing.T) {
	if _, err := exec.LookPath("ganache-cli"); err != nil {
		t.Skip("ganache-cli not installed")
	}
	config := testConfig(t)
	config.WorkerID = "harness"
	config.BasePort = testhelpers.FreePort(t)
	config.Node.LockDir = t.TempDir()
	ctx := context.Background()

	session, err := NewSession(ctx, config)
	Require(t, err)
	defer func() { Require(t, session.Close()) }()
	require.True(t, session.Node.Owned())

	fixture := session.Fixture(t)
	fixture.ManualMining()
	tx, err := session.Mining.SendValue(ctx, session.Accounts[0], session.Accounts[1].Address, big.NewInt(1))
	Require(t, err)
	Require(t, session.Mining.EnableAutomine(ctx))
	receipt, err := session.Mining.TransactionReceipt(ctx, tx.Hash())
	Require(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
