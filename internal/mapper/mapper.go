// Package mapper transforms parsed content files and changelog entries
// into database-ready row shapes.
//
// Field mapping is declarative: each category has a table of
// (source key, metadata key) pairs consulted by one generic mapping
// function, so adding a category means adding table rows, not control flow.
package mapper

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/claudepro-directory/contentsync/internal/changelog"
	"github.com/claudepro-directory/contentsync/internal/content"
)

// ErrUnknownCategory indicates a category with no mapping table. This is a
// configuration mismatch, not a data problem, and aborts the batch.
var ErrUnknownCategory = errors.New("unknown content category")

// SEO description bounds for changelog entries.
const (
	descMinLen = 50
	descMaxLen = 160
)

// ContentRow is the unified content table representation. Category-specific
// optional fields live in Metadata so the destination schema does not grow
// per category.
type ContentRow struct {
	Category         string
	Slug             string
	Title            string
	Description      string
	Author           string
	Tags             []string
	DateAdded        string
	LastModified     string
	Content          string
	Source           string
	DocumentationURL string
	Metadata         map[string]any
	Hash             string
}

// JobRow is the dedicated jobs table representation.
type JobRow struct {
	Slug        string
	Title       string
	Description string
	Company     string
	Location    string
	JobType     string
	Salary      string
	ApplyURL    string
	Remote      bool
	Tags        []string
	DateAdded   string
	Hash        string
}

// ChangelogRow is the dedicated changelog table representation.
type ChangelogRow struct {
	Slug        string
	Title       string
	Description string
	ReleaseDate string
	TLDR        string
	Changes     map[string][]string
	Content     string
}

// MapContent maps a unified-table content file to its row. Jobs and
// changelog have their own mappers; passing their categories here returns
// ErrUnknownCategory.
func MapContent(f *content.File) (*ContentRow, error) {
	fields, ok := metadataFields[f.Category]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownCategory, f.Category, f.Path)
	}

	row := &ContentRow{
		Category:         string(f.Category),
		Slug:             f.Slug,
		Title:            stringField(f.Raw, "title"),
		Description:      stringField(f.Raw, "description"),
		Author:           stringField(f.Raw, "author"),
		Tags:             stringSlice(f.Raw, "tags"),
		DateAdded:        stringField(f.Raw, "dateAdded"),
		LastModified:     stringField(f.Raw, "lastModified"),
		Content:          stringField(f.Raw, "content"),
		Source:           stringField(f.Raw, "source"),
		DocumentationURL: stringField(f.Raw, "documentationUrl"),
		Metadata:         make(map[string]any),
		Hash:             f.Hash,
	}
	if row.Title == "" {
		row.Title = titleFromSlug(f.Slug)
	}
	if row.Description == "" {
		row.Description = placeholderDescription(f.Category, row.Title)
	}

	for _, fm := range fields {
		if v, ok := f.Raw[fm.Source]; ok {
			row.Metadata[fm.Dest] = v
		}
	}
	if f.Topic != "" {
		row.Metadata["topic"] = f.Topic
	}

	return row, nil
}

// MapJob maps a jobs-category content file to its dedicated table row.
func MapJob(f *content.File) (*JobRow, error) {
	if f.Category != content.Jobs {
		return nil, fmt.Errorf("%w: %s is not a job", ErrUnknownCategory, f.Category)
	}

	row := &JobRow{
		Slug:        f.Slug,
		Title:       stringField(f.Raw, "title"),
		Description: stringField(f.Raw, "description"),
		Company:     stringField(f.Raw, "company"),
		Location:    stringField(f.Raw, "location"),
		JobType:     stringField(f.Raw, "jobType"),
		Salary:      stringField(f.Raw, "salary"),
		ApplyURL:    stringField(f.Raw, "applyUrl"),
		Remote:      boolField(f.Raw, "remote"),
		Tags:        stringSlice(f.Raw, "tags"),
		DateAdded:   stringField(f.Raw, "dateAdded"),
		Hash:        f.Hash,
	}
	if row.Title == "" {
		row.Title = titleFromSlug(f.Slug)
	}
	if row.Description == "" {
		row.Description = placeholderDescription(content.Jobs, row.Title)
	}
	return row, nil
}

// MapChangelog maps a parsed changelog entry to its dedicated table row,
// deriving the SEO description.
func MapChangelog(e *changelog.Entry) *ChangelogRow {
	return &ChangelogRow{
		Slug:        e.Slug,
		Title:       e.Title,
		Description: deriveDescription(e),
		ReleaseDate: e.ReleaseDate,
		TLDR:        e.TLDR,
		Changes:     e.Changes,
		Content:     e.Content,
	}
}

// deriveDescription builds a 50-160 character description by falling back
// through tldr, the first substantial non-heading paragraph, and a generic
// string. Candidates below the 50-char floor are rejected; the result is
// truncated to 160.
func deriveDescription(e *changelog.Entry) string {
	if len(e.TLDR) >= descMinLen {
		return truncate(e.TLDR, descMaxLen)
	}
	if p := firstParagraph(e.Content); len(p) >= descMinLen {
		return truncate(p, descMaxLen)
	}
	return truncate(fmt.Sprintf("Changelog entry: %s", e.Title), descMaxLen)
}

// firstParagraph returns the first paragraph of markdown that is not a
// heading, list item, or TL;DR marker.
func firstParagraph(md string) string {
	for _, block := range strings.Split(md, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		var keep []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
				strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
				keep = nil
				break
			}
			keep = append(keep, trimmed)
		}
		if len(keep) > 0 {
			return strings.Join(keep, " ")
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so a multi-byte character is never split.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// placeholderDescription generates the default description for files
// shipped without one.
func placeholderDescription(cat content.Category, title string) string {
	return fmt.Sprintf("Community %s entry: %s", cat, title)
}

// titleFromSlug turns "code-reviewer" into "Code Reviewer".
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// stringField extracts a string value, tolerating absence and wrong types.
func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// boolField extracts a bool value, tolerating absence and wrong types.
func boolField(raw map[string]any, key string) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}

// stringSlice extracts a []string from a JSON array, skipping non-string
// elements.
func stringSlice(raw map[string]any, key string) []string {
	arr, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
