// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package harness

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/artifacts"
	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/nodeproc"
	"github.com/omgnetwork/chainharness/util/rpcclient"
	"github.com/omgnetwork/chainharness/workerport"
)

type Config struct {
	WorkerID  string                 `koanf:"worker-id"`
	WorkerEnv string                 `koanf:"worker-env"`
	BasePort  int                    `koanf:"base-port"`
	Accounts  int                    `koanf:"accounts"`
	Mnemonic  string                 `koanf:"mnemonic"`
	Node      nodeproc.Config        `koanf:"node"`
	RPC       rpcclient.ClientConfig `koanf:"rpc"`
	Artifacts artifacts.Config       `koanf:"artifacts"`
	Contracts contracts.Config       `koanf:"contracts"`
}

// BlockGasMargin is how far below the block gas limit derived deploy gas
// stays.
const BlockGasMargin = 1_000_000

var DefaultConfig = Config{
	WorkerEnv: workerport.DefaultWorkerEnv,
	BasePort:  workerport.DefaultBasePort,
	Accounts:  10,
	Node:      nodeproc.DefaultConfig,
	RPC:       rpcclient.DefaultClientConfig,
	Artifacts: artifacts.DefaultConfig,
	Contracts: contracts.DefaultConfig,
}

func ConfigAddOptions(f *flag.FlagSet) {
	f.String("worker-id", DefaultConfig.WorkerID, "worker identifier selecting the node port, read from the worker environment variable when empty")
	f.String("worker-env", DefaultConfig.WorkerEnv, "environment variable holding the worker identifier")
	f.Int("base-port", DefaultConfig.BasePort, "port of worker 0, other workers add their number")
	f.Int("accounts", DefaultConfig.Accounts, "number of funded accounts")
	f.String("mnemonic", DefaultConfig.Mnemonic, "derive accounts from this BIP-39 mnemonic instead of integer seeds")
	nodeproc.ConfigAddOptions("node", f)
	rpcclient.RPCClientAddOptions("rpc", f, &DefaultConfig.RPC)
	artifacts.ConfigAddOptions("artifacts", f)
	contracts.ConfigAddOptions("contracts", f)
}

func (c *Config) Validate() error {
	if c.Accounts <= 0 {
		return errors.New("at least one account is needed")
	}
	if c.BasePort <= 0 || c.BasePort > 65535 {
		return fmt.Errorf("invalid base port %d", c.BasePort)
	}
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node: %w", err)
	}
	if err := c.RPC.Validate(); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	if err := c.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if port := c.Slot().Port; port > 65535 {
		return fmt.Errorf("worker %q resolves to port %d, above 65535", c.Slot().WorkerID, port)
	}
	if c.Contracts.DeployGas == 0 && c.Node.GasLimit <= BlockGasMargin {
		return fmt.Errorf("node gas limit %d leaves no deploy gas below the %d margin", c.Node.GasLimit, BlockGasMargin)
	}
	contractsConfig := c.ContractsConfig()
	if contractsConfig.DeployGas > c.Node.GasLimit {
		return fmt.Errorf("contracts deploy gas %d exceeds node gas limit %d", contractsConfig.DeployGas, c.Node.GasLimit)
	}
	if err := contractsConfig.Validate(); err != nil {
		return fmt.Errorf("contracts: %w", err)
	}
	return nil
}

// ContractsConfig is the deployer config, with an unset deploy gas derived
// from the node gas limit.
func (c *Config) ContractsConfig() contracts.Config {
	config := c.Contracts
	if config.DeployGas == 0 && c.Node.GasLimit > BlockGasMargin {
		config.DeployGas = c.Node.GasLimit - BlockGasMargin
	}
	return config
}

// Slot resolves the worker and its port.
func (c *Config) Slot() workerport.Slot {
	workerID := c.WorkerID
	if workerID == "" {
		workerID = workerport.WorkerID(c.WorkerEnv)
	}
	return workerport.NewAllocator(c.BasePort).Slot(workerID)
}

// ProvisionAccounts builds the configured accounts.
func (c *Config) ProvisionAccounts() ([]*accounts.Account, error) {
	if c.Mnemonic != "" {
		return accounts.ProvisionFromMnemonic(c.Mnemonic, c.Accounts)
	}
	return accounts.Provision(c.Accounts), nil
}
