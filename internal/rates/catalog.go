// Package rates loads the interest-rate catalog from YAML and serves it from
// an in-memory registry that can be swapped atomically on reload.
package rates

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"kpr/internal/loan"
)

//go:embed default_rates.yaml
var defaultCatalog []byte

// Entry pairs the wire form of a rate with its decoded value.
type Entry struct {
	Spec loan.RateSpec
	Rate loan.Rate
}

type catalogFile struct {
	Rates []loan.RateSpec `yaml:"rates"`
}

// Parse decodes a YAML catalog. The catalog must not be empty, IDs must be
// positive and unique, and every entry must decode. Tiered entries with bad
// tier data still decode, as malformed.
func Parse(data []byte) ([]Entry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rate catalog: %w", err)
	}
	if len(file.Rates) == 0 {
		return nil, fmt.Errorf("rate catalog has no rates")
	}

	seen := make(map[int]bool, len(file.Rates))
	entries := make([]Entry, 0, len(file.Rates))
	for _, spec := range file.Rates {
		if spec.ID <= 0 {
			return nil, fmt.Errorf("rate %q: id must be positive", spec.Title)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("rate %d: duplicate id", spec.ID)
		}
		seen[spec.ID] = true

		rate, err := loan.DecodeRate(spec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Spec: spec, Rate: rate})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Spec.ID < entries[j].Spec.ID })
	return entries, nil
}

// Default returns the catalog compiled into the binary.
func Default() ([]Entry, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate catalog: %w", err)
	}
	return Parse(data)
}

// Load returns the file catalog when path is set, otherwise the default one.
func Load(path string) ([]Entry, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Registry is a concurrency-safe view of the current catalog.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[int]Entry
}

func NewRegistry(entries []Entry) *Registry {
	r := &Registry{}
	r.Replace(entries)
	return r
}

// Replace swaps in a new catalog.
func (r *Registry) Replace(entries []Entry) {
	byID := make(map[int]Entry, len(entries))
	for _, e := range entries {
		byID[e.Spec.ID] = e
	}
	list := append([]Entry(nil), entries...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = list
	r.byID = byID
}

// List returns the catalog ordered by ID.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) Get(id int) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
