// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omgnetwork/chainharness/contracts"
	"github.com/omgnetwork/chainharness/linker"
)

// ContractSet holds the contracts one recipe run deployed, in deployment
// order, together with the run's link table.
type ContractSet struct {
	Recipe string
	Links  *linker.LinkTable

	order     []string
	contracts map[string]*contracts.DeployedContract
	outputs   map[string]string
}

func newContractSet(recipe string) *ContractSet {
	return &ContractSet{
		Recipe:    recipe,
		Links:     linker.NewLinkTable(),
		contracts: make(map[string]*contracts.DeployedContract),
		outputs:   make(map[string]string),
	}
}

func (s *ContractSet) add(alias string, contract *contracts.DeployedContract) {
	s.order = append(s.order, alias)
	s.contracts[alias] = contract
	s.outputs[alias] = strings.ToLower(contract.Address.Hex())
}

func (s *ContractSet) Get(alias string) (*contracts.DeployedContract, bool) {
	contract, ok := s.contracts[alias]
	return contract, ok
}

// MustGet is Get for aliases a recipe is known to define.
func (s *ContractSet) MustGet(alias string) *contracts.DeployedContract {
	contract, ok := s.contracts[alias]
	if !ok {
		panic(fmt.Sprintf("contract set %s has no %s", s.Recipe, alias))
	}
	return contract
}

// Aliases lists the deployed aliases in deployment order.
func (s *ContractSet) Aliases() []string {
	return append([]string(nil), s.order...)
}

func (s *ContractSet) Addresses() map[string]common.Address {
	addrs := make(map[string]common.Address, len(s.contracts))
	for alias, contract := range s.contracts {
		addrs[alias] = contract.Address
	}
	return addrs
}

// Record adds an extra entry to the outputs, such as an operator address.
func (s *ContractSet) Record(key, value string) {
	s.outputs[key] = strings.ToLower(value)
}

func (s *ContractSet) Outputs() map[string]string {
	outputs := make(map[string]string, len(s.outputs))
	for key, value := range s.outputs {
		outputs[key] = value
	}
	return outputs
}

// WriteOutputs stores the outputs as indented JSON at path, creating its
// directory if needed.
func (s *ContractSet) WriteOutputs(path string) error {
	data, err := json.MarshalIndent(s.outputs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing outputs: %w", err)
	}
	return nil
}
