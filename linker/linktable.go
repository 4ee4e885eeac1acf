// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package linker

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/util/containers"
)

// ErrAlreadyLinked is returned when a library name is registered twice.
var ErrAlreadyLinked = errors.New("library already linked")

// LinkTable maps library names to deployed addresses. Entries are write-once
// and the table is safe for concurrent readers. A nil table reads as empty.
type LinkTable struct {
	entries containers.SyncMap[string, common.Address]
}

func NewLinkTable() *LinkTable {
	return &LinkTable{}
}

// Register records addr for every name given. Nothing is stored if one of the
// names is already present with a different address.
func (t *LinkTable) Register(addr common.Address, names ...string) error {
	if t == nil {
		return errors.New("registering in a nil link table")
	}
	for _, name := range names {
		if existing, ok := t.entries.Load(name); ok && existing != addr {
			return fmt.Errorf("%w: %s at %v", ErrAlreadyLinked, name, existing)
		}
	}
	for _, name := range names {
		existing, loaded := t.entries.LoadOrStore(name, addr)
		if loaded && existing != addr {
			return fmt.Errorf("%w: %s at %v", ErrAlreadyLinked, name, existing)
		}
		if !loaded {
			log.Debug("library registered", "name", name, "address", addr)
		}
	}
	return nil
}

func (t *LinkTable) Lookup(name string) (common.Address, bool) {
	if t == nil {
		return common.Address{}, false
	}
	return t.entries.Load(name)
}

// Names lists the registered names in sorted order.
func (t *LinkTable) Names() []string {
	var names []string
	if t == nil {
		return names
	}
	t.entries.Range(func(name string, _ common.Address) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Snapshot copies the table.
func (t *LinkTable) Snapshot() map[string]common.Address {
	snapshot := make(map[string]common.Address)
	if t == nil {
		return snapshot
	}
	t.entries.Range(func(name string, addr common.Address) bool {
		snapshot[name] = addr
		return true
	})
	return snapshot
}

func (t *LinkTable) Len() int {
	if t == nil {
		return 0
	}
	return t.entries.Len()
}
