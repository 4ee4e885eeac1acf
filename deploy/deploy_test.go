// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package deploy

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/artifacts"
	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/linker"
	"github.com/omgnetwork/chainharness/util/testhelpers"
	"github.com/omgnetwork/chainharness/util/testhelpers/devchain"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	accs := accounts.Provision(3)
	chain := devchain.New(accs, accounts.DefaultBalance, 10_000_000)
	t.Cleanup(func() { _ = chain.Close() })

	dir := t.TempDir()
	devchain.LibraryChain(t, dir)
	store := artifacts.NewStore(artifacts.Config{Dir: dir, CacheSize: 16})
	Require(t, store.Init())
	deployer, err := contracts.NewDeployer(chain.Client(), contracts.TestConfig)
	Require(t, err)

	senders := make([]*bind.TransactOpts, 0, len(accs))
	for _, acc := range accs {
		opts, err := acc.TransactOpts(devchain.ChainID)
		Require(t, err)
		senders = append(senders, opts)
	}
	runner, err := NewRunner(store, deployer, senders...)
	Require(t, err)
	return runner
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := RootChain(DefaultExitPeriod)
	Require(t, valid.Validate())

	outOfOrder := &Recipe{Name: "bad", Steps: []Step{
		{Alias: "root_chain", Contract: "RootChain", Links: []string{"factory"}},
		{Alias: "factory", Contract: "PriorityQueueFactory"},
	}}
	require.ErrorIs(t, outOfOrder.Validate(), ErrOutOfOrder)

	selfLink := &Recipe{Name: "bad", Steps: []Step{{Alias: "a", Contract: "A", Links: []string{"a"}}}}
	require.ErrorIs(t, selfLink.Validate(), ErrOutOfOrder)

	duplicate := &Recipe{Name: "bad", Steps: []Step{{Alias: "a", Contract: "A"}, {Alias: "a", Contract: "B"}}}
	require.ErrorContains(t, duplicate.Validate(), "duplicate alias")

	unnamed := &Recipe{Name: "bad", Steps: []Step{{Contract: "A"}}}
	require.Error(t, unnamed.Validate())
}

func TestRunRootChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner := newTestRunner(t)

	set, err := runner.Run(ctx, RootChain(ShortExitPeriod))
	Require(t, err)
	require.Equal(t, []string{"priority_queue_lib", "priority_queue_factory", "root_chain"}, set.Aliases())

	lib := set.MustGet("priority_queue_lib")
	factory := set.MustGet("priority_queue_factory")
	root := set.MustGet("root_chain")
	linked, found := set.Links.Lookup("PriorityQueueFactory")
	require.True(t, found)
	require.Equal(t, factory.Address, linked)
	linked, found = set.Links.Lookup("PriorityQueueLib")
	require.True(t, found)
	require.Equal(t, lib.Address, linked)

	_, ok := set.Get("missing")
	require.False(t, ok)

	addrs := set.Addresses()
	require.Len(t, addrs, 3)
	require.Equal(t, root.Address, addrs["root_chain"])

	rootCode, err := runner.deployer.Backend().CodeAt(ctx, root.Address, nil)
	Require(t, err)
	factoryCode, err := runner.deployer.Backend().CodeAt(ctx, factory.Address, nil)
	Require(t, err)
	libHex := hex.EncodeToString(lib.Address.Bytes())
	require.Contains(t, hex.EncodeToString(rootCode), hex.EncodeToString(factory.Address.Bytes()))
	require.NotContains(t, hex.EncodeToString(rootCode), libHex)
	require.Contains(t, hex.EncodeToString(factoryCode), libHex)

	outputs := set.Outputs()
	require.Equal(t, strings.ToLower(root.Address.Hex()), outputs["root_chain"])
	require.Equal(t, strings.ToLower(root.Tx.Hash().Hex()), outputs["root_chain_tx_hash"])
}

func TestRunAfterSeesInitializedContract(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner := newTestRunner(t)

	recipe := RootChain(DefaultExitPeriod)
	var initialized *big.Int
	after := recipe.Steps[2].After
	recipe.Steps[2].After = func(ctx context.Context, set *ContractSet, contract *contracts.DeployedContract, sender *bind.TransactOpts) error {
		receipt, err := contract.Transact(ctx, sender, "init", big.NewInt(240))
		if err != nil {
			return err
		}
		events, err := contract.Events(receipt, "Initialized")
		if err != nil {
			return err
		}
		initialized = events[0]["exitPeriod"].(*big.Int)
		return after(ctx, set, contract, sender)
	}
	_, err := runner.Run(ctx, recipe)
	Require(t, err)
	require.Equal(t, int64(240), initialized.Int64())
}

func TestRunFailingStepAborts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner := newTestRunner(t)

	boom := errors.New("boom")
	recipe := &Recipe{Name: "failing", Steps: []Step{
		{Alias: "token", Contract: "MintableToken"},
		{Alias: "reverting", Contract: "Reverting"},
		{Alias: "never", Contract: "MintableToken", After: func(context.Context, *ContractSet, *contracts.DeployedContract, *bind.TransactOpts) error {
			return boom
		}},
	}}
	_, err := runner.Run(ctx, recipe)
	require.ErrorIs(t, err, contracts.ErrDeploymentFailed)
	require.ErrorContains(t, err, "step reverting")

	recipe.Steps = append(recipe.Steps[:1], recipe.Steps[2])
	_, err = runner.Run(ctx, recipe)
	require.ErrorIs(t, err, boom)
}

func TestRunExplicitLinksAndArgs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner := newTestRunner(t)

	recipe := &Recipe{Name: "exit-game", Steps: []Step{
		{Alias: "lib", Contract: "PriorityQueueLib"},
		{Alias: "factory", Contract: "PriorityQueueFactory", Links: []string{"lib"}},
		{
			Alias:    "exit_game",
			Contract: "ExitGame",
			Links:    []string{"factory"},
			Sender:   2,
			Args: func(set *ContractSet) ([]interface{}, error) {
				return []interface{}{set.MustGet("factory").Address}, nil
			},
		},
	}}
	set, err := runner.Run(ctx, recipe)
	Require(t, err)
	exitGame := set.MustGet("exit_game")
	require.Equal(t, accounts.Provision(3)[2].Address, runner.senders[2].From)
	sender, err := devchainSender(exitGame)
	Require(t, err)
	require.Equal(t, runner.senders[2].From, sender)
}

func TestRunUnknownSender(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t)
	_, err := runner.Run(context.Background(), &Recipe{Name: "x", Steps: []Step{{Alias: "t", Contract: "MintableToken", Sender: 5}}})
	require.ErrorContains(t, err, "sender 5")
}

func TestRunWithoutLinksIsUnresolved(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t)
	recipe := &Recipe{Name: "x", Steps: []Step{{Alias: "factory", Contract: "PriorityQueueFactory"}}}
	_, err := runner.Run(context.Background(), recipe)
	require.ErrorIs(t, err, linker.ErrUnresolvedLibrary)
}

func TestWriteOutputs(t *testing.T) {
	t.Parallel()
	runner := newTestRunner(t)
	set, err := runner.Run(context.Background(), MintableToken())
	Require(t, err)
	set.Record("authority_address", runner.senders[2].From.Hex())

	path := filepath.Join(t.TempDir(), "build", "outputs.json")
	Require(t, set.WriteOutputs(path))
	data, err := os.ReadFile(path)
	Require(t, err)
	var outputs map[string]string
	Require(t, json.Unmarshal(data, &outputs))
	expected := map[string]string{
		"token":             strings.ToLower(set.MustGet("token").Address.Hex()),
		"authority_address": strings.ToLower(runner.senders[2].From.Hex()),
	}
	if diff := cmp.Diff(expected, outputs); diff != "" {
		Fail(t, "outputs mismatch:", diff)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"root-chain", "root-chain-short-exit", "token"}, BuiltinNames())
	recipe, err := Lookup("root-chain-short-exit")
	Require(t, err)
	require.Equal(t, "root-chain-short-exit", recipe.Name)
	require.Len(t, recipe.Steps, 3)
	_, err = Lookup("nope")
	require.Error(t, err)
}

func devchainSender(contract *contracts.DeployedContract) (common.Address, error) {
	return types.Sender(types.LatestSignerForChainID(devchain.ChainID), contract.Tx)
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
