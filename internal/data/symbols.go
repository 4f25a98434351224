package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entitybind/entitybind/internal/binding"
)

// ContextEntry is one type-id context of the host metadata dump.
type ContextEntry struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

// SymbolEntry is one index symbol: the raw type name the host generated an
// index for and the context that owns it (0 for none).
type SymbolEntry struct {
	Index   int32  `yaml:"index"`
	Name    string `yaml:"name"`
	Context uint32 `yaml:"context"`
}

type symbolFile struct {
	Contexts []ContextEntry `yaml:"contexts"`
	Symbols  []SymbolEntry  `yaml:"symbols"`
}

// SymbolTable is the host's reflection metadata as loaded from YAML. Order is
// preserved and duplicate indices are kept; the registry decides precedence.
type SymbolTable struct {
	contexts []binding.Context
	symbols  []binding.Symbol
}

// LoadSymbolTable loads a metadata dump (symbols.yaml).
func LoadSymbolTable(path string) (*SymbolTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read symbol table: %w", err)
	}
	var f symbolFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse symbol table: %w", err)
	}

	t := &SymbolTable{
		contexts: make([]binding.Context, 0, len(f.Contexts)),
		symbols:  make([]binding.Symbol, 0, len(f.Symbols)),
	}
	seen := make(map[uint32]bool, len(f.Contexts))
	for _, c := range f.Contexts {
		if c.ID == 0 {
			return nil, fmt.Errorf("parse symbol table: context %q uses reserved id 0", c.Name)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("parse symbol table: context id %d declared twice", c.ID)
		}
		seen[c.ID] = true
		t.contexts = append(t.contexts, binding.Context{ID: binding.ContextID(c.ID), Name: c.Name})
	}
	for _, s := range f.Symbols {
		if s.Context != 0 && !seen[s.Context] {
			return nil, fmt.Errorf("parse symbol table: symbol %q refers to unknown context %d", s.Name, s.Context)
		}
		t.symbols = append(t.symbols, binding.Symbol{Index: s.Index, Name: s.Name, Context: binding.ContextID(s.Context)})
	}
	return t, nil
}

func (t *SymbolTable) Contexts() []binding.Context { return t.contexts }
func (t *SymbolTable) Symbols() []binding.Symbol   { return t.symbols }

// Count returns the number of index symbols loaded.
func (t *SymbolTable) Count() int {
	return len(t.symbols)
}

// EncodeSymbolTable renders contexts and symbols in the format
// LoadSymbolTable reads.
func EncodeSymbolTable(contexts []ContextEntry, symbols []SymbolEntry) ([]byte, error) {
	out, err := yaml.Marshal(symbolFile{Contexts: contexts, Symbols: symbols})
	if err != nil {
		return nil, fmt.Errorf("encode symbol table: %w", err)
	}
	return out, nil
}
