// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package nodeproc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Node is a running development node serving JSON-RPC on a port.
type Node interface {
	Port() int
	URL() string
	// Owned reports whether the harness started the process.
	Owned() bool
	// Terminate stops a node the harness started. It is a no-op for nodes
	// that were already running.
	Terminate() error
	String() string
}

// ExternalProcess is a node found running on the port. The harness never
// stops it.
type ExternalProcess struct {
	port int
	url  string
}

func (p *ExternalProcess) Port() int        { return p.port }
func (p *ExternalProcess) URL() string      { return p.url }
func (p *ExternalProcess) Owned() bool      { return false }
func (p *ExternalProcess) Terminate() error { return nil }
func (p *ExternalProcess) String() string {
	return fmt.Sprintf("external node at %s", p.url)
}

// OwnedProcess is a node the harness spawned.
type OwnedProcess struct {
	port             int
	url              string
	flavor           string
	cmd              *exec.Cmd
	terminateTimeout time.Duration

	// lines carries output to the readiness watcher until watchDone closes
	lines     chan string
	watchDone chan struct{}
	done      chan struct{}
	waitErr   error

	terminateOnce sync.Once
	terminateErr  error
}

func (p *OwnedProcess) Port() int   { return p.port }
func (p *OwnedProcess) URL() string { return p.url }
func (p *OwnedProcess) Owned() bool { return true }

func (p *OwnedProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *OwnedProcess) String() string {
	return fmt.Sprintf("%s node pid %d at %s", p.flavor, p.Pid(), p.url)
}

// Exited reports whether the process has been reaped.
func (p *OwnedProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// pump forwards output lines to the readiness watcher, then to the debug
// log, and reaps the process once output ends.
func (p *OwnedProcess) pump(output io.ReadCloser) {
	scanner := bufio.NewScanner(output)
	for scanner.Scan() {
		line := scanner.Text()
		select {
		case p.lines <- line:
		case <-p.watchDone:
			log.Debug("node output", "port", p.port, "line", line)
		}
	}
	close(p.lines)
	_ = output.Close()
	p.waitErr = p.cmd.Wait()
	log.Debug("node process exited", "port", p.port, "err", p.waitErr)
	close(p.done)
}

// waitReady scans at most limit output lines for pattern.
func (p *OwnedProcess) waitReady(ctx context.Context, pattern *regexp.Regexp, limit int) error {
	defer close(p.watchDone)
	for scanned := 0; scanned < limit; {
		select {
		case line, ok := <-p.lines:
			if !ok {
				<-p.done
				return fmt.Errorf("%w: %s exited before it was ready: %v", ErrReadinessTimeout, p.flavor, p.waitErr)
			}
			scanned++
			log.Debug("node output", "port", p.port, "line", line)
			if pattern.MatchString(line) {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("%w: %s not ready after %d lines: %w", ErrReadinessTimeout, p.flavor, scanned, ctx.Err())
		}
	}
	return fmt.Errorf("%w: %s printed %d lines without matching %q", ErrReadinessTimeout, p.flavor, limit, pattern)
}

// Terminate sends SIGTERM and kills the process if it has not exited within
// the terminate timeout. Later calls return the first result.
func (p *OwnedProcess) Terminate() error {
	p.terminateOnce.Do(func() {
		if p.Exited() {
			return
		}
		log.Info("terminating node", "node", p)
		if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !p.Exited() {
			log.Warn("could not signal node, killing it", "node", p, "err", err)
			p.terminateErr = p.kill()
			return
		}
		select {
		case <-p.done:
		case <-time.After(p.terminateTimeout):
			log.Warn("node ignored SIGTERM, killing it", "node", p, "timeout", p.terminateTimeout)
			p.terminateErr = p.kill()
		}
	})
	return p.terminateErr
}

func (p *OwnedProcess) kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !p.Exited() {
		return errors.Wrapf(err, "killing node pid %d", p.Pid())
	}
	<-p.done
	return nil
}
