// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package rpcclient

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/omgnetwork/chainharness/util/testhelpers"
)

func TestLogArgs(t *testing.T) {
	t.Parallel()

	str := logArgs(0, 1, 2, 3, "hello, world")
	if str != "[1, 2, 3, \"hello, world\"]" {
		Fail(t, "unexpected logs limit 0 got:", str)
	}

	str = logArgs(4, 1, 2, 3, "hello, world")
	if str != "[1, 2, 3, \"..\"]" {
		Fail(t, "unexpected logs limit 4 got:", str)
	}

	for limit := 1; limit < minArgLogLimit; limit++ {
		str = logArgs(limit, "hello, world")
		if str != "[\"..\"]" {
			Fail(t, "unexpected logs limit", limit, "got:", str)
		}
	}
}

func TestClientConfigValidate(t *testing.T) {
	t.Parallel()
	config := DefaultClientConfig
	Require(t, config.Validate())
	config.ArgLogLimit = 0
	Require(t, config.Validate())
	config.ArgLogLimit = 2
	if config.Validate() == nil {
		Fail(t, "arg log limit 2 accepted")
	}
}

type netAPI struct{}

func (netAPI) Version() string { return "1337" }

type slowAPI struct{}

func (slowAPI) Sleep(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func createTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := rpc.NewServer()
	Require(t, server.RegisterName("net", netAPI{}))
	Require(t, server.RegisterName("test", slowAPI{}))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return httpServer
}

func TestProbe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	httpServer := createTestServer(t)
	Require(t, Probe(ctx, httpServer.URL, time.Second))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	Require(t, err)
	deadURL := "http://" + listener.Addr().String()
	Require(t, listener.Close())
	if err := Probe(ctx, deadURL, time.Second); err == nil {
		Fail(t, "probe of closed port succeeded")
	}
}

func TestStartAndTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	httpServer := createTestServer(t)
	config := TestClientConfig
	config.URL = httpServer.URL
	config.Timeout = 100 * time.Millisecond
	client := NewRpcClient(func() *ClientConfig { return &config })
	Require(t, client.Start(ctx))
	defer client.Close()

	var version string
	Require(t, client.CallContext(ctx, &version, "net_version"))
	if version != "1337" {
		Fail(t, "unexpected version", version)
	}
	if err := client.CallContext(ctx, nil, "test_sleep"); err == nil {
		Fail(t, "expected timeout")
	}
}

func TestStartWithoutURL(t *testing.T) {
	t.Parallel()
	config := TestClientConfig
	client := NewRpcClient(func() *ClientConfig { return &config })
	if err := client.Start(context.Background()); err == nil {
		Fail(t, "expected error for missing url")
	}
	if err := client.CallContext(context.Background(), nil, "net_version"); err == nil {
		Fail(t, "expected not connected error")
	}
}

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func Fail(t *testing.T, printables ...interface{}) {
	t.Helper()
	testhelpers.FailImpl(t, printables...)
}
