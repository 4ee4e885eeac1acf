// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/omgnetwork/chainharness/linker"
)

// Artifact is a compiled contract. Artifacts are shared from the store's
// cache and must not be modified.
type Artifact struct {
	Name       string
	SourceName string
	ABI        abi.ABI
	RawABI     json.RawMessage
	// Bytecode is the creation code in hex without the 0x prefix. It may
	// hold library placeholders.
	Bytecode       string
	LinkReferences linker.LinkReferences
	// Library is set when another artifact links against this one.
	Library bool
}

// FullyQualifiedName is source:Name, the key solc hashes into placeholders.
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.Name
	}
	return a.SourceName + ":" + a.Name
}

// Deployable reports whether the artifact carries creation code, which
// interfaces and abstract contracts do not.
func (a *Artifact) Deployable() bool {
	return a.Bytecode != ""
}

func (a *Artifact) NeedsLinking() bool {
	return linker.NeedsLinking(a.Bytecode)
}

func (a *Artifact) String() string {
	return a.FullyQualifiedName()
}

// fileArtifact covers hardhat and truffle per-contract files as well as solc
// --combined-json output.
type fileArtifact struct {
	ContractName   string                  `json:"contractName"`
	SourceName     string                  `json:"sourceName"`
	SourcePath     string                  `json:"sourcePath"`
	ABI            json.RawMessage         `json:"abi"`
	Bytecode       json.RawMessage         `json:"bytecode"`
	LinkReferences linker.LinkReferences   `json:"linkReferences"`
	Contracts      map[string]combinedJSON `json:"contracts"`
}

type combinedJSON struct {
	ABI json.RawMessage `json:"abi"`
	Bin string          `json:"bin"`
}

// bytecodeObject is the foundry and solc standard-json shape of bytecode.
type bytecodeObject struct {
	Object         string                `json:"object"`
	LinkReferences linker.LinkReferences `json:"linkReferences"`
}

func (f *fileArtifact) combined() bool {
	return len(f.Contracts) > 0
}

func (f *fileArtifact) perFile() bool {
	return f.ContractName != "" && len(f.ABI) > 0
}

func (f *fileArtifact) source() string {
	if f.SourceName != "" {
		return f.SourceName
	}
	return f.SourcePath
}

// bytecode returns the creation code and any link references nested with it.
func (f *fileArtifact) bytecode() (string, linker.LinkReferences, error) {
	raw := bytes.TrimSpace(f.Bytecode)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", f.LinkReferences, nil
	}
	if raw[0] == '"' {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			return "", nil, err
		}
		return trimHex(code), f.LinkReferences, nil
	}
	var object bytecodeObject
	if err := json.Unmarshal(raw, &object); err != nil {
		return "", nil, err
	}
	refs := f.LinkReferences
	if len(object.LinkReferences) > 0 {
		refs = object.LinkReferences
	}
	return trimHex(object.Object), refs, nil
}

func trimHex(code string) string {
	return strings.TrimPrefix(strings.TrimSpace(code), "0x")
}

// splitCombinedKey splits a combined-json key "path:Name".
func splitCombinedKey(key string) (string, string) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

// parseABI accepts the ABI as a JSON array or, as older solc combined output
// has it, a string holding the array.
func parseABI(raw json.RawMessage) (abi.ABI, json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return abi.ABI{}, nil, err
		}
		raw = json.RawMessage(inner)
	}
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("parsing abi: %w", err)
	}
	return parsed, raw, nil
}
