// Package changelog parses the repository CHANGELOG.md into structured
// entry records for the sync pipeline.
//
// The expected format is one `## ` heading per release:
//
//	## [1.2.3] - 2025-07-01
//
//	**TL;DR:** short summary line.
//
//	### Added
//	- new thing
//
//	### Fixed
//	- broken thing
//
// Everything between one release heading and the next is the entry body.
package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Entry is a single parsed release.
type Entry struct {
	Slug        string              // version with dots replaced by dashes, e.g. 1-2-3
	Version     string              // version as written, e.g. 1.2.3
	ReleaseDate string              // YYYY-MM-DD, empty if the heading carries no date
	Title       string              // full heading text
	TLDR        string              // TL;DR paragraph, empty if absent
	Changes     map[string][]string // change type (added, fixed, ...) -> items
	Content     string              // markdown body under the heading
	RawContent  string              // heading plus body, verbatim
}

var (
	headingRe = regexp.MustCompile(`^##\s+\[?([^\]\s]+)\]?(?:\s*[-–]\s*(\d{4}-\d{2}-\d{2}))?\s*$`)
	tldrRe    = regexp.MustCompile(`(?i)^\*\*tl;?dr:?\*\*:?\s*(.+)$`)
	sectionRe = regexp.MustCompile(`^###\s+(.+?)\s*$`)
	bulletRe  = regexp.MustCompile(`^[-*]\s+(.+)$`)
)

// ParseFile parses the changelog at path. A missing file is not an error:
// it returns an empty slice, since a content tree without a changelog is
// valid.
func ParseFile(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open changelog %s: %w", path, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse changelog %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads markdown from r and returns one Entry per release heading.
// Content before the first release heading is ignored.
func Parse(r io.Reader) ([]*Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []*Entry
	var cur *Entry
	var body []string
	var raw []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(body, "\n"))
		cur.RawContent = strings.TrimRight(strings.Join(raw, "\n"), "\n")
		finishEntry(cur)
		entries = append(entries, cur)
		cur, body, raw = nil, nil, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			cur = &Entry{
				Version:     m[1],
				ReleaseDate: m[2],
				Slug:        strings.ReplaceAll(m[1], ".", "-"),
				Title:       strings.TrimSpace(strings.TrimPrefix(line, "##")),
				Changes:     make(map[string][]string),
			}
			raw = append(raw, line)
			continue
		}
		if cur != nil {
			body = append(body, line)
			raw = append(raw, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read changelog: %w", err)
	}
	flush()

	return entries, nil
}

// finishEntry extracts the TL;DR paragraph and categorized change lists
// from the entry body.
func finishEntry(e *Entry) {
	section := ""
	for _, line := range strings.Split(e.Content, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := tldrRe.FindStringSubmatch(trimmed); m != nil && e.TLDR == "" {
			e.TLDR = strings.TrimSpace(m[1])
			continue
		}
		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			section = strings.ToLower(m[1])
			continue
		}
		if section == "" {
			continue
		}
		if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
			e.Changes[section] = append(e.Changes[section], strings.TrimSpace(m[1]))
		}
	}
}
