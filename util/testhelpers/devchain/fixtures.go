// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package devchain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

// Hand assembled EVM snippets. Runtime code is hex without 0x and may carry
// library placeholders in place of a PUSH20 operand.
const (
	// PUSH1 42 PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN: answers 42 to any call
	ReturnFortyTwo = "602a60005260206000f3"
	// PUSH1 0 PUSH1 0 REVERT
	RevertingInitCode = "60006000fd"
	// STOP
	Stop = "00"
)

// InitCode wraps runtime so that deploying it leaves runtime as the
// contract's code. Constructor arguments appended after it are ignored.
func InitCode(runtime string) string {
	length := len(runtime) / 2
	if length > 0xff {
		panic("runtime too long for the PUSH1 copier")
	}
	// PUSH1 len DUP1 PUSH1 11 PUSH1 0 CODECOPY PUSH1 0 RETURN
	return fmt.Sprintf("60%02x80600b6000396000f3", length) + runtime
}

// PushAddress is PUSH20 operand POP STOP, where operand is 40 hex characters
// or a library placeholder.
func PushAddress(operand string) string {
	if len(operand) != 40 {
		panic("PUSH20 operand must be 40 characters")
	}
	return "73" + operand + "5000"
}

// EmitUint256 logs the first calldata argument as the data of the event
// with the given signature, then stops.
func EmitUint256(signature string) string {
	topic := hex.EncodeToString(crypto.Keccak256([]byte(signature)))
	// PUSH1 32 PUSH1 4 PUSH1 0 CALLDATACOPY PUSH32 topic PUSH1 32 PUSH1 0 LOG1 STOP
	return "60206004600037" + "7f" + topic + "60206000a1" + "00"
}

// HashedPlaceholder is the solc >= 0.5 placeholder for a fully qualified
// library name.
func HashedPlaceholder(fullyQualified string) string {
	hash := hex.EncodeToString(crypto.Keccak256([]byte(fullyQualified)))
	return "__$" + hash[:34] + "$__"
}

// LegacyPlaceholder is the pre-0.5 placeholder: the name padded with
// underscores to 40 characters.
func LegacyPlaceholder(name string) string {
	body := "__" + name
	if len(body) > 38 {
		body = body[:38]
	}
	return body + strings.Repeat("_", 40-len(body))
}

const (
	ValueABI       = `[{"type":"function","name":"value","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}]`
	InitABI        = `[{"type":"function","name":"init","inputs":[{"name":"exitPeriod","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},{"type":"event","name":"Initialized","inputs":[{"name":"exitPeriod","type":"uint256","indexed":false}],"anonymous":false}]`
	AddressCtorABI = `[{"type":"constructor","inputs":[{"name":"target","type":"address"}],"stateMutability":"nonpayable"}]`
	EmptyABI       = `[]`
)

type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// Artifact is a hardhat style artifact file.
type Artifact struct {
	Format         string                                `json:"_format"`
	ContractName   string                                `json:"contractName"`
	SourceName     string                                `json:"sourceName"`
	ABI            json.RawMessage                       `json:"abi"`
	Bytecode       string                                `json:"bytecode"`
	LinkReferences map[string]map[string][]LinkReference `json:"linkReferences"`
}

func NewArtifact(name, abiJSON, bytecode string) *Artifact {
	return &Artifact{
		Format:         "hh-sol-artifact-1",
		ContractName:   name,
		SourceName:     "contracts/" + name + ".sol",
		ABI:            json.RawMessage(abiJSON),
		Bytecode:       "0x" + bytecode,
		LinkReferences: map[string]map[string][]LinkReference{},
	}
}

// WithLink records that the bytecode references library lib of source at
// every occurrence of its hashed placeholder.
func (a *Artifact) WithLink(source, lib string) *Artifact {
	placeholder := HashedPlaceholder(source + ":" + lib)
	code := strings.TrimPrefix(a.Bytecode, "0x")
	var refs []LinkReference
	for offset := 0; ; {
		idx := strings.Index(code[offset:], placeholder)
		if idx < 0 {
			break
		}
		refs = append(refs, LinkReference{Start: (offset + idx) / 2, Length: 20})
		offset += idx + len(placeholder)
	}
	if a.LinkReferences[source] == nil {
		a.LinkReferences[source] = map[string][]LinkReference{}
	}
	a.LinkReferences[source][lib] = refs
	return a
}

// Write stores the artifact as <dir>/<sourceName>/<contractName>.json.
func (a *Artifact) Write(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, a.SourceName, a.ContractName+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// LibraryChain writes the artifacts used by the deployment scenarios:
// PriorityQueueLib answers 42, PriorityQueueFactory embeds the library
// address, RootChain and ExitGame embed the factory address, ExitGame also
// takes an address constructor argument. MintableToken has no links and
// Reverting fails its constructor.
func LibraryChain(t testing.TB, dir string) {
	t.Helper()
	factoryPlaceholder := HashedPlaceholder("contracts/PriorityQueueFactory.sol:PriorityQueueFactory")
	NewArtifact("PriorityQueueLib", ValueABI, InitCode(ReturnFortyTwo)).Write(t, dir)
	NewArtifact("PriorityQueueFactory", EmptyABI,
		InitCode(PushAddress(HashedPlaceholder("contracts/PriorityQueueLib.sol:PriorityQueueLib")))).
		WithLink("contracts/PriorityQueueLib.sol", "PriorityQueueLib").
		Write(t, dir)
	NewArtifact("RootChain", InitABI, InitCode("73"+factoryPlaceholder+"50"+EmitUint256("Initialized(uint256)"))).
		WithLink("contracts/PriorityQueueFactory.sol", "PriorityQueueFactory").
		Write(t, dir)
	NewArtifact("ExitGame", AddressCtorABI, InitCode(PushAddress(factoryPlaceholder))).
		WithLink("contracts/PriorityQueueFactory.sol", "PriorityQueueFactory").
		Write(t, dir)
	NewArtifact("MintableToken", ValueABI, InitCode(ReturnFortyTwo)).Write(t, dir)
	NewArtifact("Reverting", EmptyABI, RevertingInitCode).Write(t, dir)
}
