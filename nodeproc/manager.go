// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package nodeproc makes sure a development node serves each worker's port,
// attaching to one already running or spawning and supervising a new one.
package nodeproc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/omgnetwork/chainharness/accounts"
	"github.com/omgnetwork/chainharness/util/rpcclient"
)

var (
	// ErrNodeUnreachable is returned when no node could be started or
	// reached on the port.
	ErrNodeUnreachable = errors.New("node unreachable")
	// ErrReadinessTimeout is returned when a spawned node never announced
	// it was ready.
	ErrReadinessTimeout = errors.New("node readiness timeout")
)

const lockRetryDelay = 50 * time.Millisecond

// Manager keeps at most one node per port for the life of the process.
type Manager struct {
	config Config
	flavor *Flavor

	mutex    sync.Mutex
	registry map[int]Node
}

// NewManager validates config. A nil flavor selects the configured one.
func NewManager(config Config, flavor *Flavor) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if flavor == nil {
		var err error
		flavor, err = FlavorByName(config.Flavor)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{
		config:   config,
		flavor:   flavor,
		registry: make(map[int]Node),
	}, nil
}

func (m *Manager) Flavor() *Flavor {
	return m.flavor
}

func (m *Manager) Config() Config {
	return m.config
}

// Ensure returns a node serving port. A node this manager already handed out
// is returned again. Otherwise a node found answering on the port is
// attached to, and if there is none one is spawned with accs funded. Either
// way the node is handed out with automatic mining stopped. A zero gasLimit
// uses the configured one.
func (m *Manager) Ensure(ctx context.Context, port int, accs []*accounts.Account, gasLimit uint64) (Node, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if node, ok := m.registry[port]; ok {
		return node, nil
	}
	if gasLimit == 0 {
		gasLimit = m.config.GasLimit
	}

	unlock, err := m.lockPort(ctx, port)
	if err != nil {
		return nil, err
	}
	defer unlock()

	url := rpcclient.EndpointURL(m.config.Host, port)
	var node Node
	if probeErr := rpcclient.Probe(ctx, url, m.config.ProbeTimeout); probeErr == nil {
		log.Info("attaching to running node", "url", url)
		node = &ExternalProcess{port: port, url: url}
	} else {
		log.Debug("no node answering, spawning one", "url", url, "probe", probeErr)
		owned, err := m.spawn(ctx, port, url, accs, gasLimit)
		if err != nil {
			return nil, err
		}
		node = owned
	}

	if err := m.prepare(ctx, node, accs); err != nil {
		if termErr := node.Terminate(); termErr != nil {
			log.Warn("failed to terminate node after setup failure", "node", node, "err", termErr)
		}
		return nil, err
	}
	m.registry[port] = node
	return node, nil
}

// lockPort serializes probe and spawn with other processes resolving to the
// same port.
func (m *Manager) lockPort(ctx context.Context, port int) (func(), error) {
	dir := m.config.lockDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating lock directory")
	}
	lock := flock.New(filepath.Join(dir, fmt.Sprintf("chainharness-%d.lock", port)))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrapf(err, "locking port %d", port)
	}
	if !locked {
		return nil, fmt.Errorf("could not lock port %d", port)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("failed to release port lock", "path", lock.Path(), "err", err)
		}
	}, nil
}

func (m *Manager) launchConfig(port int, accs []*accounts.Account, gasLimit uint64) (LaunchConfig, error) {
	balance, err := m.config.BalanceWei()
	if err != nil {
		return LaunchConfig{}, err
	}
	return LaunchConfig{
		Host:     m.config.Host,
		Port:     port,
		GasLimit: gasLimit,
		Accounts: accs,
		Balance:  balance,
	}, nil
}

func (m *Manager) spawn(ctx context.Context, port int, url string, accs []*accounts.Account, gasLimit uint64) (*OwnedProcess, error) {
	launch, err := m.launchConfig(port, accs, gasLimit)
	if err != nil {
		return nil, err
	}
	binary := m.flavor.Binary
	if m.config.Binary != "" {
		binary = m.config.Binary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNodeUnreachable, errors.Wrapf(err, "finding %s", binary))
	}

	cmd := exec.Command(path, m.flavor.Args(launch)...) // #nosec G204 -- binary and arguments come from the harness config
	cmd.Env = append(os.Environ(), m.flavor.Env...)
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "creating output pipe")
	}
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("%w: %w", ErrNodeUnreachable, errors.Wrapf(err, "starting %s", binary))
	}
	// the child holds its own copy
	_ = writer.Close()

	owned := &OwnedProcess{
		port:             port,
		url:              url,
		flavor:           m.flavor.Name,
		cmd:              cmd,
		terminateTimeout: m.config.TerminateTimeout,
		lines:            make(chan string),
		watchDone:        make(chan struct{}),
		done:             make(chan struct{}),
	}
	go owned.pump(reader)
	log.Info("spawned node", "node", owned, "accounts", len(accs), "gasLimit", gasLimit)

	readyCtx := ctx
	if m.config.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, m.config.ReadyTimeout)
		defer cancel()
	}
	if err := owned.waitReady(readyCtx, m.flavor.ReadyPattern, m.config.ReadyLineLimit); err != nil {
		if killErr := owned.kill(); killErr != nil {
			log.Warn("failed to kill node that never became ready", "node", owned, "err", killErr)
		}
		return nil, err
	}
	return owned, nil
}

// prepare funds accounts on nodes that need it and stops automatic mining.
func (m *Manager) prepare(ctx context.Context, node Node, accs []*accounts.Account) error {
	client, err := rpc.DialContext(ctx, node.URL())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNodeUnreachable, errors.Wrapf(err, "dialing %s", node.URL()))
	}
	defer client.Close()

	if node.Owned() && m.flavor.Fund != nil {
		launch, err := m.launchConfig(node.Port(), accs, m.config.GasLimit)
		if err != nil {
			return err
		}
		if err := m.flavor.Fund(ctx, client, launch); err != nil {
			return errors.Wrap(err, "funding accounts")
		}
	}

	methods := m.flavor.Mining
	var stopped interface{}
	if err := client.CallContext(ctx, &stopped, methods.Stop, methods.StopArgs...); err != nil {
		return errors.Wrapf(err, "%s on %s", methods.Stop, node)
	}
	if ok, isBool := stopped.(bool); isBool && !ok {
		return fmt.Errorf("%s on %s returned false", methods.Stop, node)
	}
	log.Debug("automatic mining stopped", "node", node)
	return nil
}

// Spawned lists the nodes this manager started, by port.
func (m *Manager) Spawned() []*OwnedProcess {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var owned []*OwnedProcess
	for _, node := range m.registry {
		if process, ok := node.(*OwnedProcess); ok {
			owned = append(owned, process)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].port < owned[j].port })
	return owned
}

// Close terminates every node this manager started and forgets all nodes.
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var errs []error
	for port, node := range m.registry {
		if err := node.Terminate(); err != nil {
			errs = append(errs, err)
		}
		delete(m.registry, port)
	}
	if len(errs) > 0 {
		return fmt.Errorf("terminating nodes: %v", errs)
	}
	return nil
}
