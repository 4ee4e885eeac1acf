// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/omgnetwork/chainharness/cmd/genericconf"
	"github.com/omgnetwork/chainharness/cmd/util/confighelpers"
	"github.com/omgnetwork/chainharness/deploy"
	"github.com/omgnetwork/chainharness/harness"
)

type DeployConfig struct {
	Recipe string `koanf:"recipe"`
	Output string `koanf:"output"`
}

var DefaultDeployConfig = DeployConfig{
	Recipe: "root-chain",
	Output: "",
}

func DeployConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".recipe", DefaultDeployConfig.Recipe, fmt.Sprintf("recipe to deploy, one of %v (empty to only start the node)", deploy.BuiltinNames()))
	f.String(prefix+".output", DefaultDeployConfig.Output, "write the deployed addresses as JSON to this file")
}

type Config struct {
	harness.Config `koanf:",squash"`

	Conf        genericconf.ConfConfig        `koanf:"conf"`
	LogLevel    string                        `koanf:"log-level"`
	LogType     string                        `koanf:"log-type"`
	FileLogging genericconf.FileLoggingConfig `koanf:"file-logging"`
	Deploy      DeployConfig                  `koanf:"deploy"`
	Hold        bool                          `koanf:"hold"`
}

var DefaultConfig = Config{
	Config:      harness.DefaultConfig,
	Conf:        genericconf.ConfConfigDefault,
	LogLevel:    "info",
	LogType:     "plaintext",
	FileLogging: genericconf.DefaultFileLoggingConfig,
	Deploy:      DefaultDeployConfig,
	Hold:        false,
}

func ConfigAddOptions(f *flag.FlagSet) {
	harness.ConfigAddOptions(f)
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", DefaultConfig.LogLevel, "log level, as slog level name or legacy verbosity 0-5")
	f.String("log-type", DefaultConfig.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	DeployConfigAddOptions("deploy", f)
	f.Bool("hold", DefaultConfig.Hold, "keep the node running until interrupted")
}

func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Deploy.Recipe != "" {
		if _, err := deploy.Lookup(c.Deploy.Recipe); err != nil {
			return err
		}
	}
	if c.Deploy.Output != "" && c.Deploy.Recipe == "" {
		return errors.New("deploy.output needs a recipe")
	}
	return nil
}

// ParseConfig returns a nil config and nil error when the configuration was
// dumped instead.
func ParseConfig(args []string) (*Config, error) {
	f := flag.NewFlagSet("chainharness", flag.ContinueOnError)
	ConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, err
	}

	if config.Conf.Dump {
		return nil, confighelpers.DumpConfig(k, nil)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
