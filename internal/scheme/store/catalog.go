// Package store holds scheme catalogs.
//
// The engine never owns catalog storage. This package provides the in-memory adapter
// used by the server: schemes are decoded from YAML, validated once at load and then
// served read-only.
package store

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"schemeflow/internal/scheme/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Schemes []*models.Scheme `yaml:"schemes"`
}

// Parse decodes a YAML catalog and validates every scheme in it. Unknown keys are
// rejected so typos in operator operands do not silently drop a criterion.
func Parse(data []byte) ([]*models.Scheme, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Schemes))
	for _, s := range file.Schemes {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[string(s.ID)]; dup {
			return nil, fmt.Errorf("catalog: duplicate scheme %q", s.ID)
		}
		seen[string(s.ID)] = struct{}{}
	}
	return file.Schemes, nil
}

// LoadFile reads and parses a catalog from disk.
func LoadFile(path string) ([]*models.Scheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// DefaultSchemes returns the catalog compiled into the binary.
func DefaultSchemes() ([]*models.Scheme, error) {
	return Parse(defaultCatalog)
}
