// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package artifacts indexes compiled contract artifacts on disk and loads
// them on demand.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"

	"github.com/omgnetwork/chainharness/linker"
	"github.com/omgnetwork/chainharness/util/containers"
)

// ErrArtifactNotFound is returned by Load for names the index does not hold.
var ErrArtifactNotFound = errors.New("artifact not found")

type Config struct {
	Dir       string `koanf:"dir"`
	CacheSize int    `koanf:"cache-size"`
}

var DefaultConfig = Config{
	Dir:       "build/contracts",
	CacheSize: 64,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".dir", DefaultConfig.Dir, "directory holding compiled contract artifacts (searched recursively)")
	f.Int(prefix+".cache-size", DefaultConfig.CacheSize, "number of parsed artifacts kept in memory")
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("artifact directory not set")
	}
	return nil
}

// entry locates one contract inside the artifact directory.
type entry struct {
	path       string
	key        string // contract key inside a combined-json file, empty otherwise
	name       string
	sourceName string
	library    bool
}

func (e *entry) fullyQualifiedName() string {
	if e.sourceName == "" {
		return e.name
	}
	return e.sourceName + ":" + e.name
}

// Store is an index of the artifacts below a directory. Init must be called
// before Load. A Store is safe for concurrent use.
type Store struct {
	config Config

	mutex   sync.Mutex
	entries map[string]*entry // by fully qualified name
	byName  map[string][]*entry
	cache   *containers.LruCache[string, *Artifact]
	ready   bool
}

func NewStore(config Config) *Store {
	return &Store{
		config: config,
		cache:  containers.NewLruCache[string, *Artifact](config.CacheSize),
	}
}

// Init walks the artifact directory and builds the index. It can be called
// again to pick up recompiled artifacts.
func (s *Store) Init() error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	entries := make(map[string]*entry)
	byName := make(map[string][]*entry)
	referenced := make(map[string]bool)
	placeholders := make(map[string]bool)

	add := func(e *entry, code string, refs linker.LinkReferences) {
		fq := e.fullyQualifiedName()
		if previous, exists := entries[fq]; exists {
			log.Debug("duplicate artifact ignored", "name", fq, "kept", previous.path, "ignored", e.path)
			return
		}
		entries[fq] = e
		byName[e.name] = append(byName[e.name], e)
		for _, lib := range refs.Libraries() {
			referenced[lib] = true
		}
		for _, placeholder := range linker.Placeholders(code) {
			placeholders[placeholder] = true
		}
	}

	err := filepath.WalkDir(s.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
			return nil
		}
		file, err := readFile(path)
		if err != nil {
			log.Debug("skipping unreadable artifact", "path", path, "err", err)
			return nil
		}
		switch {
		case file.combined():
			for key, contract := range file.Contracts {
				source, name := splitCombinedKey(key)
				add(&entry{path: path, key: key, name: name, sourceName: source}, contract.Bin, nil)
			}
		case file.perFile() || (len(file.ABI) > 0 && len(file.Bytecode) > 0):
			code, refs, err := file.bytecode()
			if err != nil {
				log.Debug("skipping artifact with malformed bytecode", "path", path, "err", err)
				return nil
			}
			name, source := file.ContractName, file.source()
			if name == "" {
				// foundry: out/<Source>.sol/<Name>.json
				name = strings.TrimSuffix(filepath.Base(path), ".json")
				source = filepath.Base(filepath.Dir(path))
			}
			add(&entry{path: path, name: name, sourceName: source}, code, refs)
		default:
			log.Trace("not an artifact", "path", path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("indexing artifacts in %s: %w", s.config.Dir, err)
	}

	libraries := 0
	for fq, e := range entries {
		if referenced[fq] ||
			placeholders[linker.HashedPlaceholder(fq)] ||
			placeholders[linker.LegacyPlaceholder(e.name)] ||
			placeholders[linker.LegacyPlaceholder(fq)] {
			e.library = true
			libraries++
		}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries = entries
	s.byName = byName
	s.cache.Clear()
	s.ready = true
	log.Info("artifacts indexed", "dir", s.config.Dir, "contracts", len(entries), "libraries", libraries)
	return nil
}

func readFile(path string) (*fileArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file fileArtifact
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *Store) find(name string) (*entry, error) {
	if !s.ready {
		return nil, errors.New("artifact store not initialized")
	}
	if e, ok := s.entries[name]; ok {
		return e, nil
	}
	candidates := s.byName[name]
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.config.Dir)
	case 1:
		return candidates[0], nil
	default:
		sources := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			sources = append(sources, candidate.fullyQualifiedName())
		}
		sort.Strings(sources)
		return nil, fmt.Errorf("ambiguous contract name %s, use one of %s", name, strings.Join(sources, ", "))
	}
}

// Load returns the artifact for a contract name or a source:Name pair.
func (s *Store) Load(name string) (*Artifact, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, err := s.find(name)
	if err != nil {
		return nil, err
	}
	fq := e.fullyQualifiedName()
	if cached, ok := s.cache.Get(fq); ok {
		return cached, nil
	}
	art, err := e.load()
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s from %s: %w", fq, e.path, err)
	}
	s.cache.Add(fq, art)
	log.Trace("artifact loaded", "name", fq, "path", e.path, "library", art.Library)
	return art, nil
}

func (e *entry) load() (*Artifact, error) {
	file, err := readFile(e.path)
	if err != nil {
		return nil, err
	}
	art := &Artifact{
		Name:       e.name,
		SourceName: e.sourceName,
		Library:    e.library,
	}
	rawABI := file.ABI
	if e.key != "" {
		contract, ok := file.Contracts[e.key]
		if !ok {
			return nil, fmt.Errorf("%w: %s no longer in %s", ErrArtifactNotFound, e.key, e.path)
		}
		rawABI = contract.ABI
		art.Bytecode = trimHex(contract.Bin)
	} else {
		art.Bytecode, art.LinkReferences, err = file.bytecode()
		if err != nil {
			return nil, err
		}
	}
	art.ABI, art.RawABI, err = parseABI(rawABI)
	if err != nil {
		return nil, err
	}
	return art, nil
}

// Names lists the fully qualified names of every indexed contract.
func (s *Store) Names() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	names := make([]string, 0, len(s.entries))
	for fq := range s.entries {
		names = append(names, fq)
	}
	sort.Strings(names)
	return names
}

// Libraries lists the fully qualified names of contracts other artifacts
// link against.
func (s *Store) Libraries() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var names []string
	for fq, e := range s.entries {
		if e.library {
			names = append(names, fq)
		}
	}
	sort.Strings(names)
	return names
}
