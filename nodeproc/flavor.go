// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package nodeproc

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/mining"
)

// LaunchConfig is what a flavor needs to build its command line.
type LaunchConfig struct {
	Host     string
	Port     int
	GasLimit uint64
	Accounts []*accounts.Account
	Balance  *big.Int
}

// Flavor describes one development node implementation.
type Flavor struct {
	Name string
	// Binary is looked up in PATH unless it holds a path.
	Binary string
	// ReadyPattern matches the output line announcing the node serves RPC.
	ReadyPattern *regexp.Regexp
	Args         func(LaunchConfig) []string
	// Env is appended to the harness's environment.
	Env    []string
	Mining mining.Methods
	// Fund pre-funds accounts after start, for nodes without a funding flag.
	Fund func(ctx context.Context, rpc mining.RPCCaller, launch LaunchConfig) error
}

func (f *Flavor) String() string {
	return f.Name
}

var listeningPattern = regexp.MustCompile(`Listening on .*`)

// Ganache runs ganache-cli with instant blocks, a fixed genesis time and the
// given accounts pre-funded.
var Ganache = Flavor{
	Name:         "ganache",
	Binary:       "ganache-cli",
	ReadyPattern: listeningPattern,
	Args: func(launch LaunchConfig) []string {
		args := []string{
			"--port=" + strconv.Itoa(launch.Port),
			"--gasLimit=" + strconv.FormatUint(launch.GasLimit, 10),
			"--time=0",
			"--blockTime=0",
		}
		if launch.Host != "" {
			args = append(args, "--host="+launch.Host)
		}
		for _, acc := range launch.Accounts {
			args = append(args, acc.FundingArg(launch.Balance))
		}
		return args
	},
	Mining: mining.GanacheMethods,
}

// Anvil runs foundry's anvil in instamine mode and funds accounts through
// anvil_setBalance once it is up.
var Anvil = Flavor{
	Name:         "anvil",
	Binary:       "anvil",
	ReadyPattern: listeningPattern,
	Args: func(launch LaunchConfig) []string {
		args := []string{
			"--port", strconv.Itoa(launch.Port),
			"--gas-limit", strconv.FormatUint(launch.GasLimit, 10),
		}
		if launch.Host != "" {
			args = append(args, "--host", launch.Host)
		}
		return args
	},
	Mining: mining.AnvilMethods,
	Fund: func(ctx context.Context, rpc mining.RPCCaller, launch LaunchConfig) error {
		for _, acc := range launch.Accounts {
			if err := rpc.CallContext(ctx, nil, "anvil_setBalance", acc.Address, hexutil.EncodeBig(launch.Balance)); err != nil {
				return fmt.Errorf("funding %v: %w", acc.Address, err)
			}
		}
		return nil
	},
}

var flavors = map[string]*Flavor{
	Ganache.Name: &Ganache,
	Anvil.Name:   &Anvil,
}

func FlavorByName(name string) (*Flavor, error) {
	flavor, ok := flavors[name]
	if !ok {
		return nil, fmt.Errorf("unknown node flavor %q", name)
	}
	return flavor, nil
}
