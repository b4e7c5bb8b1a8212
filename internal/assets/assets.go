// Package assets picks up registration documents the documentation generator
// drops into the data directory. A document carries the registry for one
// trait page; producing the data is the generator's job, this package only
// finds and decodes it.
package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/traitdex/traitdex/internal/types"
)

type Config struct {
	IncludePatterns []string `yaml:"include_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MaxFileSize     int64    `yaml:"max_file_size"`
}

func DefaultConfig() Config {
	return Config{
		IncludePatterns: []string{"**/*.implementors.json"},
		ExcludePatterns: []string{
			"**/.git/**",
			"**/node_modules/**",
			"**/target/**",
		},
		MaxFileSize: 10 * 1024 * 1024,
	}
}

// Document is one registration asset: the registry a generator emitted for a
// single trait page.
type Document struct {
	Trait    string         `json:"trait"`
	Registry types.Registry `json:"registry"`
}

// Matches reports whether a path relative to the scan root is a registration
// asset under the configured patterns.
func (c Config) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range c.ExcludePatterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	for _, pattern := range c.IncludePatterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Scan walks root and returns the registration asset paths, sorted by walk
// order. Unreadable subdirectories are skipped rather than failing the scan.
func Scan(root string, cfg Config) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if cfg.Matches(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return paths, nil
}

// Read loads and decodes one registration asset. Oversized files are
// rejected; file content is normalized to UTF-8 before decoding since
// generators on some platforms emit UTF-16 with a BOM.
func Read(path string, cfg Config) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
		return nil, fmt.Errorf("asset %s exceeds size limit (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// Decode parses a registration document from raw bytes.
func Decode(data []byte) (*Document, error) {
	text := NormalizeToUTF8(data)

	var doc Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode registration document: %w", err)
	}
	if doc.Trait == "" {
		return nil, fmt.Errorf("registration document has no trait")
	}
	if doc.Registry == nil {
		doc.Registry = types.Registry{}
	}
	return &doc, nil
}
