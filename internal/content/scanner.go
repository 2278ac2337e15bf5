package content

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Scanner walks the content tree and produces File records.
// Individual file failures are logged and skipped; a missing category
// directory is a warning, not an error.
type Scanner struct {
	root   string
	logger *log.Logger
}

// NewScanner creates a scanner rooted at the content directory.
// If logger is nil, a default logger writing to stderr is used.
func NewScanner(root string, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.New(os.Stderr, "[scan] ", log.LstdFlags)
	}
	return &Scanner{root: root, logger: logger}
}

// ScanTree scans every known category directory under the root.
// Filenames containing "template" are excluded. Nested categories
// (guides) recurse one topic level.
func (s *Scanner) ScanTree() ([]*File, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return nil, fmt.Errorf("content root does not exist: %s", s.root)
	}

	var files []*File
	for _, cat := range Known() {
		dir := filepath.Join(s.root, string(cat))
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			s.logger.Printf("WARNING: category directory missing: %s (skipping)", dir)
			continue
		}

		scanned, err := s.scanCategory(cat, dir)
		if err != nil {
			return nil, err
		}
		files = append(files, scanned...)
	}

	if err := checkDuplicates(files); err != nil {
		return nil, err
	}
	return files, nil
}

// ScanPaths parses exactly the given changed file paths, ignoring the rest
// of the tree. Non-JSON paths are filtered out and repeated paths are
// parsed once. Paths whose file no longer exists are skipped with a
// warning (a racing delete, handled by the deletion phase).
func (s *Scanner) ScanPaths(paths []string) ([]*File, error) {
	var files []*File
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		if !strings.HasSuffix(p, ".json") {
			continue
		}
		if strings.Contains(filepath.Base(p), "template") {
			continue
		}

		cat, _, topic, err := ParsePath(s.root, p)
		if err != nil {
			return nil, err
		}

		if _, err := os.Stat(p); os.IsNotExist(err) {
			s.logger.Printf("WARNING: changed file no longer exists: %s (skipping)", p)
			continue
		}

		f, err := Load(cat, topic, p)
		if err != nil {
			s.logger.Printf("WARNING: skipping invalid content file %s: %v", p, err)
			continue
		}
		files = append(files, f)
	}

	if err := checkDuplicates(files); err != nil {
		return nil, err
	}
	return files, nil
}

// scanCategory reads one category directory, recursing one level into
// topic subdirectories for nested categories.
func (s *Scanner) scanCategory(cat Category, dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read category directory %s: %w", dir, err)
	}

	var files []*File
	for _, entry := range entries {
		if entry.IsDir() {
			if !cat.Nested() {
				continue
			}
			topicFiles, err := s.scanTopic(cat, entry.Name(), filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			files = append(files, topicFiles...)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if !wantFile(entry.Name()) {
			continue
		}

		f, err := Load(cat, "", path)
		if err != nil {
			s.logger.Printf("WARNING: skipping invalid content file %s: %v", path, err)
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// scanTopic reads one topic subdirectory of a nested category.
func (s *Scanner) scanTopic(cat Category, topic, dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic directory %s: %w", dir, err)
	}

	var files []*File
	for _, entry := range entries {
		if entry.IsDir() || !wantFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := Load(cat, topic, path)
		if err != nil {
			s.logger.Printf("WARNING: skipping invalid content file %s: %v", path, err)
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// wantFile reports whether a directory entry is a syncable content file.
func wantFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.Contains(name, "template")
}

// checkDuplicates enforces (category, slug) uniqueness within one scan.
// The same slug in different categories is fine.
func checkDuplicates(files []*File) error {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if prev, ok := seen[f.Key()]; ok {
			return fmt.Errorf("duplicate slug %q in category %s: %s and %s", f.Slug, f.Category, prev, f.Path)
		}
		seen[f.Key()] = f.Path
	}
	return nil
}

// SplitPathList splits a whitespace-separated path list, as supplied via
// the CHANGED_FILES / DELETED_FILES environment variables.
func SplitPathList(list string) []string {
	return strings.Fields(list)
}
