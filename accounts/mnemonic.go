// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package accounts

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// DevMnemonic is the well known development mnemonic shared by ganache,
// hardhat and anvil.
const DevMnemonic = "test test test test test test test test test test test junk"

// m/44'/60'/0'/0
var ethereumAccountPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// ProvisionFromMnemonic derives n accounts at m/44'/60'/0'/0/i from a BIP-39
// mnemonic, the way wallet-funded dev nodes do.
func ProvisionFromMnemonic(mnemonic string, n int) ([]*Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	master, err := hdkeychain.NewMaster(bip39.NewSeed(mnemonic, ""), &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create BIP32 master key: %w", err)
	}
	parent := master
	for _, index := range ethereumAccountPath {
		parent, err = parent.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive account path: %w", err)
		}
	}
	accs := make([]*Account, 0, n)
	for i := 0; i < n; i++ {
		child, err := parent.Derive(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("failed to derive account %d: %w", i, err)
		}
		ecPrivKey, err := child.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("failed to get EC private key for account %d: %w", i, err)
		}
		accs = append(accs, FromKey(ecPrivKey.ToECDSA()))
	}
	return accs, nil
}
