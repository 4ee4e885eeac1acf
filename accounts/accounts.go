// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package accounts derives the fixed pool of funded test accounts a node is
// started with.
package accounts

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
)

// FirstSeed is the seed of the first provisioned account. Zero is not a
// valid secp256k1 private key.
const FirstSeed = 1

// DefaultBalance is what every account is funded with: 100 ether.
var DefaultBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(params.Ether))

type Account struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// FromSeed builds the account whose private key is seed encoded as a 32-byte
// big-endian integer.
func FromSeed(seed uint64) (*Account, error) {
	if seed == 0 {
		return nil, errors.New("seed 0 is not a valid private key")
	}
	key, err := crypto.ToECDSA(common.BigToHash(new(big.Int).SetUint64(seed)).Bytes())
	if err != nil {
		return nil, fmt.Errorf("deriving key for seed %d: %w", seed, err)
	}
	return FromKey(key), nil
}

func FromKey(key *ecdsa.PrivateKey) *Account {
	return &Account{
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Key:     key,
	}
}

// Provision returns n accounts for seeds FirstSeed..n. The result is the same
// on every call.
func Provision(n int) []*Account {
	accs := make([]*Account, 0, n)
	for i := 0; i < n; i++ {
		acc, err := FromSeed(uint64(FirstSeed + i))
		if err != nil {
			// small integers are always below the curve order
			panic(err)
		}
		accs = append(accs, acc)
	}
	return accs
}

func (a *Account) PrivateKeyBytes() []byte {
	return crypto.FromECDSA(a.Key)
}

func (a *Account) PrivateKeyHex() string {
	return hexutil.Encode(a.PrivateKeyBytes())
}

// FundingArg renders the ganache-cli directive that pre-funds this account.
func (a *Account) FundingArg(balance *big.Int) string {
	return fmt.Sprintf("--account=%s,%s", a.PrivateKeyHex(), balance.String())
}

func (a *Account) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(a.Key, chainID)
}

func (a *Account) String() string {
	return a.Address.Hex()
}

// Addresses lists the addresses of accs in order.
func Addresses(accs []*Account) []common.Address {
	addrs := make([]common.Address, len(accs))
	for i, acc := range accs {
		addrs[i] = acc.Address
	}
	return addrs
}
