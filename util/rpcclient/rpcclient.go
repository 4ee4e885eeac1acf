// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

type ClientConfig struct {
	URL            string        `koanf:"url"`
	Timeout        time.Duration `koanf:"timeout"`
	ConnectionWait time.Duration `koanf:"connection-wait"`
	ArgLogLimit    uint          `koanf:"arg-log-limit"`
}

type ClientConfigFetcher func() *ClientConfig

var TestClientConfig = ClientConfig{
	Timeout:        5 * time.Second,
	ConnectionWait: time.Second,
}

var DefaultClientConfig = ClientConfig{
	URL:            "",
	Timeout:        30 * time.Second,
	ConnectionWait: 10 * time.Second,
	ArgLogLimit:    2048,
}

func RPCClientAddOptions(prefix string, f *flag.FlagSet, defaultConfig *ClientConfig) {
	f.String(prefix+".url", defaultConfig.URL, "url of the node, derived from the worker port when empty")
	f.Duration(prefix+".connection-wait", defaultConfig.ConnectionWait, "how long to wait for initial connection")
	f.Duration(prefix+".timeout", defaultConfig.Timeout, "per-response timeout (0-disabled)")
	f.Uint(prefix+".arg-log-limit", defaultConfig.ArgLogLimit, "limit size of arguments in log entries")
}

// EndpointURL is the http endpoint of a node listening on the loopback interface.
func EndpointURL(host string, port int) string {
	if host == "" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

type RpcClient struct {
	config ClientConfigFetcher
	client *rpc.Client
	logId  uint64
}

func NewRpcClient(config ClientConfigFetcher) *RpcClient {
	return &RpcClient{
		config: config,
	}
}

func (c *RpcClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Client exposes the underlying connection, e.g. for ethclient.NewClient.
func (c *RpcClient) Client() *rpc.Client {
	return c.client
}

// minArgLogLimit fits one character on each side of the ".." marker.
const minArgLogLimit = 4

func (c *ClientConfig) Validate() error {
	if c.ArgLogLimit != 0 && c.ArgLogLimit < minArgLogLimit {
		return fmt.Errorf("arg log limit %d must be 0 or at least %d", c.ArgLogLimit, minArgLogLimit)
	}
	return nil
}

func limitString(limit int, str string) string {
	if limit == 0 || len(str) <= limit {
		return str
	}
	if limit < minArgLogLimit {
		limit = minArgLogLimit
	}
	prefix := str[:limit/2-1]
	postfix := str[len(str)-limit/2+1:]
	return fmt.Sprintf("%v..%v", prefix, postfix)
}

func logArgs(limit int, args ...interface{}) string {
	res := "["
	for i, arg := range args {
		marshalled, err := json.Marshal(arg)
		if err != nil {
			res += "\"CANNOT MARSHALL:" + limitString(limit, err.Error()) + "\""
		} else {
			res += limitString(limit, string(marshalled))
		}
		if i < len(args)-1 {
			res += ", "
		}
	}
	res += "]"
	return res
}

// CallContext issues a single request. Failures are returned as is; the
// harness never retries control calls.
func (c *RpcClient) CallContext(ctxIn context.Context, result interface{}, method string, args ...interface{}) error {
	if c.client == nil {
		return errors.New("not connected")
	}
	logId := atomic.AddUint64(&c.logId, 1)
	log.Trace("sending RPC request", "method", method, "logId", logId, "args", logArgs(int(c.config().ArgLogLimit), args...))
	var ctx context.Context
	var cancelCtx context.CancelFunc
	timeout := c.config().Timeout
	if timeout > 0 {
		ctx, cancelCtx = context.WithTimeout(ctxIn, timeout)
	} else {
		ctx, cancelCtx = context.WithCancel(ctxIn)
	}
	err := c.client.CallContext(ctx, result, method, args...)
	cancelCtx()
	logger := log.Trace
	limit := int(c.config().ArgLogLimit)
	if err != nil {
		logger = log.Info
		limit = 0
	}
	logger("rpc response", "method", method, "logId", logId, "err", err, "result", limitString(limit, fmt.Sprintf("%+v", result)), "args", logArgs(limit, args...))
	return err
}

// Start dials the configured url, polling once a second until
// connection-wait elapses.
func (c *RpcClient) Start(ctxIn context.Context) error {
	url := c.config().URL
	if url == "" {
		return errors.New("no url provided for this connection")
	}
	connTimeout := time.After(c.config().ConnectionWait)
	for {
		var ctx context.Context
		var cancelCtx context.CancelFunc
		timeout := c.config().Timeout
		if timeout > 0 {
			ctx, cancelCtx = context.WithTimeout(ctxIn, timeout)
		} else {
			ctx, cancelCtx = context.WithCancel(ctxIn)
		}
		client, err := rpc.DialContext(ctx, url)
		if err == nil {
			// http dials never touch the network, so ask the node something
			var version string
			err = client.CallContext(ctx, &version, "net_version")
			if err == nil {
				cancelCtx()
				c.client = client
				return nil
			}
			client.Close()
		}
		cancelCtx()
		if strings.Contains(err.Error(), "parse") ||
			strings.Contains(err.Error(), "malformed") {
			return fmt.Errorf("%w: url %s", err, url)
		}
		select {
		case <-connTimeout:
			return fmt.Errorf("timeout trying to connect lastError: %w", err)
		case <-ctxIn.Done():
			return ctxIn.Err()
		case <-time.After(time.Second):
		}
	}
}

// Probe reports whether a JSON-RPC node answers net_version at url within
// timeout. It never waits for a node to come up.
func Probe(ctx context.Context, url string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()
	var version string
	return client.CallContext(ctx, &version, "net_version")
}
