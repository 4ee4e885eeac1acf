// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package accounts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestProvisionIsDeterministic(t *testing.T) {
	first := Provision(10)
	second := Provision(10)
	require.Len(t, first, 10)
	if diff := cmp.Diff(Addresses(first), Addresses(second)); diff != "" {
		t.Fatalf("provisioning is not deterministic (-first +second):\n%s", diff)
	}
	for i := range first {
		require.Equal(t, first[i].PrivateKeyHex(), second[i].PrivateKeyHex())
	}
}

func TestProvisionAddressesAreDistinct(t *testing.T) {
	seen := map[common.Address]int{}
	for i, acc := range Provision(50) {
		if prev, found := seen[acc.Address]; found {
			t.Fatalf("accounts %d and %d share address %v", prev, i, acc.Address)
		}
		seen[acc.Address] = i
	}
}

func TestKnownSeedAddresses(t *testing.T) {
	want := []string{
		"0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf",
		"0x2B5AD5c4795c026514f8317c7a215E218DcCD6cF",
		"0x6813Eb9362372EEF6200f3b1dbC3f819671cBA69",
	}
	for i, acc := range Provision(3) {
		require.Equal(t, common.HexToAddress(want[i]), acc.Address)
	}
	acc, err := FromSeed(1)
	require.NoError(t, err)
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", acc.PrivateKeyHex())
}

func TestFromSeedRejectsZero(t *testing.T) {
	_, err := FromSeed(0)
	require.Error(t, err)
}

func TestFundingArg(t *testing.T) {
	acc := Provision(1)[0]
	arg := acc.FundingArg(DefaultBalance)
	require.True(t, strings.HasPrefix(arg, "--account=0x"))
	require.True(t, strings.HasSuffix(arg, ",100000000000000000000"))
}

func TestTransactOpts(t *testing.T) {
	acc := Provision(1)[0]
	opts, err := acc.TransactOpts(big.NewInt(1337))
	require.NoError(t, err)
	require.Equal(t, acc.Address, opts.From)
}

func TestProvisionFromMnemonic(t *testing.T) {
	accs, err := ProvisionFromMnemonic(DevMnemonic, 2)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), accs[0].Address)
	require.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), accs[1].Address)

	_, err = ProvisionFromMnemonic("not a mnemonic", 1)
	require.Error(t, err)
}
