// Package manifest handles objhandles.toml application configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents an objhandles.toml configuration.
type Manifest struct {
	Cache   CacheConfig   `toml:"cache"`
	Logging LoggingConfig `toml:"logging"`
	Types   TypesConfig   `toml:"types"`

	// Dir is the directory containing the objhandles.toml file (set at load time).
	Dir string `toml:"-"`
}

// CacheConfig tunes the shared object store.
type CacheConfig struct {
	InitialCapacity int `toml:"initial-capacity"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// TypesConfig lists the types that opt into by-handle marshaling. An empty
// list means every registered type is accepted.
type TypesConfig struct {
	ByHandle []string `toml:"by-handle"`
}

// Load parses an objhandles.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "objhandles.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Cache.InitialCapacity == 0 {
		m.Cache.InitialCapacity = 256
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an objhandles.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "objhandles.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}
