// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package nodeproc

import (
	"math/big"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

type Config struct {
	Flavor           string        `koanf:"flavor"`
	Binary           string        `koanf:"binary"`
	Host             string        `koanf:"host"`
	GasLimit         uint64        `koanf:"gas-limit"`
	Balance          string        `koanf:"balance"`
	ReadyLineLimit   int           `koanf:"ready-line-limit"`
	ReadyTimeout     time.Duration `koanf:"ready-timeout"`
	ProbeTimeout     time.Duration `koanf:"probe-timeout"`
	TerminateTimeout time.Duration `koanf:"terminate-timeout"`
	LockDir          string        `koanf:"lock-dir"`
}

var DefaultConfig = Config{
	Flavor:           Ganache.Name,
	Host:             "127.0.0.1",
	GasLimit:         10_000_000,
	Balance:          "100000000000000000000",
	ReadyLineLimit:   100,
	ReadyTimeout:     time.Minute,
	ProbeTimeout:     2 * time.Second,
	TerminateTimeout: 5 * time.Second,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".flavor", DefaultConfig.Flavor, "node implementation to run (ganache or anvil)")
	f.String(prefix+".binary", DefaultConfig.Binary, "node executable, defaults to the flavor's binary in PATH")
	f.String(prefix+".host", DefaultConfig.Host, "interface the node listens on")
	f.Uint64(prefix+".gas-limit", DefaultConfig.GasLimit, "block gas limit of the node")
	f.String(prefix+".balance", DefaultConfig.Balance, "wei each provisioned account is funded with")
	f.Int(prefix+".ready-line-limit", DefaultConfig.ReadyLineLimit, "output lines scanned for the ready message before giving up")
	f.Duration(prefix+".ready-timeout", DefaultConfig.ReadyTimeout, "how long a spawned node may take to become ready")
	f.Duration(prefix+".probe-timeout", DefaultConfig.ProbeTimeout, "timeout of the reachability probe for an existing node")
	f.Duration(prefix+".terminate-timeout", DefaultConfig.TerminateTimeout, "how long to wait after SIGTERM before killing the node")
	f.String(prefix+".lock-dir", DefaultConfig.LockDir, "directory of the per-port spawn lock files, defaults to the system temp dir")
}

func (c *Config) Validate() error {
	if _, err := FlavorByName(c.Flavor); err != nil {
		return err
	}
	if c.GasLimit == 0 {
		return errors.New("gas limit must be positive")
	}
	if c.ReadyLineLimit <= 0 {
		return errors.New("ready line limit must be positive")
	}
	if _, err := c.BalanceWei(); err != nil {
		return err
	}
	return nil
}

// BalanceWei parses the funding balance, which must fit 256 bits.
func (c *Config) BalanceWei() (*big.Int, error) {
	balance, err := uint256.FromDecimal(c.Balance)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid balance %q", c.Balance)
	}
	return balance.ToBig(), nil
}

func (c *Config) lockDir() string {
	if c.LockDir != "" {
		return c.LockDir
	}
	return os.TempDir()
}
