// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/cmd/genericconf"
	"github.com/omgnetwork/chainharness/cmd/util/confighelpers"
	"github.com/omgnetwork/chainharness/deploy"
	"github.com/omgnetwork/chainharness/harness"
)

func printSampleUsage(progname string) {
	fmt.Printf("\n")
	fmt.Printf("Sample usage:                  %s --help \n", progname)
	fmt.Printf("Deploy and keep node running:  %s --deploy.recipe=root-chain --deploy.output=out/contracts.json --hold\n", progname)
}

func main() {
	os.Exit(mainImpl())
}

func mainImpl() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config, err := ParseConfig(os.Args[1:])
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config == nil {
		return 0
	}
	stopSignals := cancelOnSignal(ctx, cancel)
	defer stopSignals()

	pathResolver := genericconf.DefaultPathResolver("")
	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, pathResolver); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}

	if err := run(ctx, config); err != nil {
		log.Error("chainharness failed", "err", err)
		return 1
	}
	return 0
}

// cancelOnSignal cancels ctx on SIGINT or SIGTERM so that a spawned node is
// still torn down when the run is interrupted.
func cancelOnSignal(ctx context.Context, cancel context.CancelFunc) func() {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigint:
			log.Info("shutting down because of signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return func() { signal.Stop(sigint) }
}

func run(ctx context.Context, config *Config) error {
	session, err := harness.NewSession(ctx, config.Config)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("error closing session", "err", err)
		}
	}()

	if config.Deploy.Recipe != "" {
		recipe, err := deploy.Lookup(config.Deploy.Recipe)
		if err != nil {
			return err
		}
		runner, err := session.Runner()
		if err != nil {
			return err
		}
		set, err := runner.Run(ctx, recipe)
		if err != nil {
			return err
		}
		for alias, address := range set.Addresses() {
			log.Info("deployed", "alias", alias, "address", address)
		}
		if config.Deploy.Output != "" {
			if err := set.WriteOutputs(config.Deploy.Output); err != nil {
				return err
			}
			log.Info("wrote deployment outputs", "file", config.Deploy.Output)
		}
	}

	if !config.Hold {
		return nil
	}
	log.Info("holding node, interrupt to stop", "url", session.Node.URL(), "owned", session.Node.Owned())
	<-ctx.Done()
	return nil
}
