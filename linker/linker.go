// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package linker substitutes deployed library addresses for the placeholders
// solc leaves in unlinked bytecode.
package linker

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

// ErrUnresolvedLibrary is returned when bytecode still references a library
// that the LinkTable does not know.
var ErrUnresolvedLibrary = errors.New("unresolved library")

// placeholderLen is the width of a placeholder in hex characters: one address.
const placeholderLen = 2 * common.AddressLength

type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LinkReferences is the compiler's linkReferences object, keyed by source
// file then library name. Offsets are in bytes.
type LinkReferences map[string]map[string][]LinkReference

// Libraries lists the fully qualified names referenced.
func (r LinkReferences) Libraries() []string {
	var names []string
	for source, libs := range r {
		for lib := range libs {
			names = append(names, qualify(source, lib))
		}
	}
	sort.Strings(names)
	return names
}

type UnresolvedLibraryError struct {
	Libraries []string
}

func (e *UnresolvedLibraryError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnresolvedLibrary, strings.Join(e.Libraries, ", "))
}

func (e *UnresolvedLibraryError) Is(target error) bool {
	return target == ErrUnresolvedLibrary
}

// HashedPlaceholder is the placeholder solc >= 0.5 emits for a fully
// qualified library name.
func HashedPlaceholder(fullyQualified string) string {
	hash := hex.EncodeToString(crypto.Keccak256([]byte(fullyQualified)))
	return "__$" + hash[:34] + "$__"
}

// LegacyPlaceholder is the pre-0.5 placeholder: the name, truncated to 36
// characters, between underscores up to one address width.
func LegacyPlaceholder(name string) string {
	body := "__" + name
	if len(body) > placeholderLen-2 {
		body = body[:placeholderLen-2]
	}
	return body + strings.Repeat("_", placeholderLen-len(body))
}

func isHashed(placeholder string) bool {
	return strings.HasPrefix(placeholder, "__$") && strings.HasSuffix(placeholder, "$__")
}

// legacyName recovers the (possibly truncated) name from a legacy
// placeholder.
func legacyName(placeholder string) string {
	return strings.TrimRight(strings.TrimPrefix(placeholder, "__"), "_")
}

func qualify(source, lib string) string {
	if source == "" {
		return lib
	}
	return source + ":" + lib
}

func bareName(name string) string {
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Placeholders lists the distinct placeholders left in bytecode, in order of
// first appearance. Hex never contains an underscore, so every "__" starts
// one.
func Placeholders(bytecode string) []string {
	code := strings.TrimPrefix(bytecode, "0x")
	seen := make(map[string]bool)
	var found []string
	for pos := 0; ; {
		idx := strings.Index(code[pos:], "__")
		if idx < 0 {
			return found
		}
		start := pos + idx
		end := start + placeholderLen
		if end > len(code) {
			end = len(code)
		}
		placeholder := code[start:end]
		if !seen[placeholder] {
			seen[placeholder] = true
			found = append(found, placeholder)
		}
		pos = end
	}
}

// NeedsLinking reports whether bytecode has any placeholder left.
func NeedsLinking(bytecode string) bool {
	return strings.Contains(bytecode, "__")
}

func lookup(table *LinkTable, name string) (common.Address, bool) {
	if addr, ok := table.Lookup(name); ok {
		return addr, true
	}
	bare := bareName(name)
	if addr, ok := table.Lookup(bare); ok {
		return addr, true
	}
	return table.Lookup(bare + ".sol:" + bare)
}

// resolvePlaceholder finds the address for a placeholder found by scanning.
func resolvePlaceholder(table *LinkTable, placeholder string) (common.Address, string, bool) {
	names := table.Names()
	if isHashed(placeholder) {
		for _, name := range names {
			if HashedPlaceholder(name) == placeholder {
				addr, _ := table.Lookup(name)
				return addr, name, true
			}
			bare := bareName(name)
			if candidate := bare + ".sol:" + bare; HashedPlaceholder(candidate) == placeholder {
				addr, _ := table.Lookup(name)
				return addr, candidate, true
			}
		}
		return common.Address{}, placeholder, false
	}
	name := legacyName(placeholder)
	if addr, ok := lookup(table, name); ok {
		return addr, name, true
	}
	for _, candidate := range names {
		if LegacyPlaceholder(candidate) == placeholder {
			addr, _ := table.Lookup(candidate)
			return addr, candidate, true
		}
	}
	return common.Address{}, name, false
}

// Link replaces every library placeholder in bytecode with the address
// registered in table. Offsets from refs are resolved first and must hold a
// placeholder; any placeholder left afterwards is matched by its hash or
// legacy name. Unknown libraries fail with an *UnresolvedLibraryError.
func Link(bytecode string, refs LinkReferences, table *LinkTable) ([]byte, error) {
	code := []byte(strings.TrimPrefix(bytecode, "0x"))
	unresolved := make(map[string]bool)
	// placeholders already reported through refs
	reported := make(map[string]bool)

	sources := make([]string, 0, len(refs))
	for source := range refs {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		libs := make([]string, 0, len(refs[source]))
		for lib := range refs[source] {
			libs = append(libs, lib)
		}
		sort.Strings(libs)
		for _, lib := range libs {
			name := qualify(source, lib)
			addr, ok := lookup(table, name)
			if !ok {
				unresolved[name] = true
				for _, ref := range refs[source][lib] {
					if start := ref.Start * 2; start+placeholderLen <= len(code) {
						reported[string(code[start:start+placeholderLen])] = true
					}
				}
				continue
			}
			encoded := hex.EncodeToString(addr.Bytes())
			for _, ref := range refs[source][lib] {
				start := ref.Start * 2
				end := start + placeholderLen
				if ref.Length != common.AddressLength || end > len(code) {
					return nil, fmt.Errorf("link reference for %s at byte %d (length %d) is outside the bytecode", name, ref.Start, ref.Length)
				}
				if string(code[start:start+2]) != "__" {
					return nil, fmt.Errorf("link reference for %s at byte %d does not hold a placeholder", name, ref.Start)
				}
				copy(code[start:end], encoded)
			}
			log.Trace("linked library reference", "library", name, "address", addr, "count", len(refs[source][lib]))
		}
	}

	text := string(code)
	for _, placeholder := range Placeholders(text) {
		if reported[placeholder] {
			continue
		}
		if len(placeholder) != placeholderLen {
			return nil, fmt.Errorf("truncated library placeholder %q", placeholder)
		}
		addr, name, ok := resolvePlaceholder(table, placeholder)
		if !ok {
			unresolved[name] = true
			continue
		}
		text = strings.ReplaceAll(text, placeholder, hex.EncodeToString(addr.Bytes()))
		log.Trace("linked library placeholder", "library", name, "address", addr)
	}

	if len(unresolved) > 0 {
		missing := make([]string, 0, len(unresolved))
		for name := range unresolved {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, &UnresolvedLibraryError{Libraries: missing}
	}
	linked, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decoding linked bytecode: %w", err)
	}
	return linked, nil
}
