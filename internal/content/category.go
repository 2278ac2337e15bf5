// Package content provides the filesystem side of the sync pipeline:
// category definitions, content file records with canonical hashes, and
// the directory scanner.
package content

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Category identifies a content type. Each category maps to a directory
// under the content root; jobs and changelog sync to dedicated tables,
// everything else to the unified content table.
type Category string

const (
	Agents      Category = "agents"
	MCP         Category = "mcp"
	Rules       Category = "rules"
	Commands    Category = "commands"
	Hooks       Category = "hooks"
	Statuslines Category = "statuslines"
	Skills      Category = "skills"
	Collections Category = "collections"
	Guides      Category = "guides"
	Jobs        Category = "jobs"
	Changelog   Category = "changelog"
)

// Known returns all scannable categories in directory order.
// Changelog is excluded: it comes from a single Markdown file, not a
// directory of JSON files.
func Known() []Category {
	return []Category{
		Agents, MCP, Rules, Commands, Hooks,
		Statuslines, Skills, Collections, Guides, Jobs,
	}
}

// IsKnown reports whether name is a recognized category, including changelog.
func IsKnown(name string) bool {
	switch Category(name) {
	case Agents, MCP, Rules, Commands, Hooks, Statuslines,
		Skills, Collections, Guides, Jobs, Changelog:
		return true
	}
	return false
}

// Nested reports whether the category organizes content into one level of
// topic subdirectories (currently only guides).
func (c Category) Nested() bool {
	return c == Guides
}

// DedicatedTable reports whether the category syncs to its own table
// instead of the unified content table.
func (c Category) DedicatedTable() bool {
	return c == Jobs || c == Changelog
}

// ParsePath derives (category, slug, topic) from a content file path.
// The path may be absolute, relative to the repository root, or relative
// to the content root; the first path segment matching a known category
// wins. An unrecognized category is a configuration mismatch and returns
// an error rather than being skipped.
func ParsePath(root, path string) (Category, string, string, error) {
	clean := filepath.ToSlash(filepath.Clean(path))
	if root != "" {
		rootClean := filepath.ToSlash(filepath.Clean(root))
		if rest, ok := strings.CutPrefix(clean, rootClean+"/"); ok {
			clean = rest
		}
	}

	segs := strings.Split(clean, "/")
	for i, seg := range segs[:len(segs)-1] {
		if !IsKnown(seg) {
			continue
		}
		cat := Category(seg)
		slug := strings.TrimSuffix(segs[len(segs)-1], ".json")
		topic := ""
		if cat.Nested() && len(segs) > i+2 {
			topic = segs[i+1]
		}
		return cat, slug, topic, nil
	}

	return "", "", "", fmt.Errorf("no known category in path %s", path)
}
