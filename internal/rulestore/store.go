// Package rulestore persists rule definitions to a TOML file and reloads
// them when the file changes on disk.
package rulestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/textmark/internal/rule"
)

// rulesFile is the on-disk document shape.
type rulesFile struct {
	Rules []rule.Rule `toml:"rules"`
}

// Store reads and writes an ordered rule list at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the rule list. A missing file is an empty rule set, not an
// error.
func (s *Store) Load() ([]rule.Rule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rules file %s: %w", s.path, err)
	}

	var doc rulesFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", s.path, err)
	}
	return doc.Rules, nil
}

// Save writes the rule list atomically: the document is written to a
// temporary file in the same directory and renamed over the target, so a
// concurrent reader never observes a partial write.
func (s *Store) Save(rules []rule.Rule) error {
	data, err := toml.Marshal(rulesFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating rules directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".rules-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp rules file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing rules file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing rules file: %w", err)
	}
	return nil
}
