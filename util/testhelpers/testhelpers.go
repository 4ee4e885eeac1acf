// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"math/big"
	"math/rand"
	"net"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	red   = "\033[31;1m"
	clear = "\033[0;0m"
)

// Fail a test should an error occur
func RequireImpl(t testing.TB, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(red, printables, err, clear)
	}
}

func FailImpl(t testing.TB, printables ...interface{}) {
	t.Helper()
	t.Fatal(red, printables, clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomAddress() common.Address {
	var address common.Address
	RandomizeSlice(address[:])
	return address
}

// SaltedAddress is an address that repeats across executions for the same
// salt and index.
func SaltedAddress(_ testing.TB, salt string, index int64) common.Address {
	hash := crypto.Keccak256Hash([]byte(salt), common.BigToHash(big.NewInt(index)).Bytes())
	return common.BytesToAddress(hash.Bytes()[12:])
}

// FreePort asks the kernel for an unused loopback port. The port is released
// before returning, so a racing process could still grab it.
func FreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	RequireImpl(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	RequireImpl(t, listener.Close())
	return port
}
