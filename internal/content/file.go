package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a parsed content file, immutable for the duration of one sync run.
// Hash is the SHA-256 of the canonicalized JSON, so two files with the same
// data in different key order hash identically.
type File struct {
	Category Category
	Slug     string
	Path     string
	Topic    string // topic subdirectory for nested categories, empty otherwise
	Raw      map[string]any
	Hash     string
}

// Key returns the (category, slug) identity of the file.
func (f *File) Key() string {
	return string(f.Category) + ":" + f.Slug
}

// Load reads and parses a single content JSON file. The slug is derived
// from the filename.
func Load(cat Category, topic, path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	hash, err := HashJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to hash content file %s: %w", path, err)
	}

	return &File{
		Category: cat,
		Slug:     strings.TrimSuffix(filepath.Base(path), ".json"),
		Path:     path,
		Topic:    topic,
		Raw:      raw,
		Hash:     hash,
	}, nil
}

// HashJSON returns the SHA-256 hex digest of the canonical serialization
// of v. encoding/json marshals map keys in sorted order, so hashing the
// re-marshaled form is insensitive to key order on disk.
func HashJSON(v any) (string, error) {
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize JSON: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
