package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claudepro-directory/contentsync/internal/mapper"
)

// SelectContentHashes fetches slug -> content_hash for one category,
// restricted to the given slugs. One query per category bounds query count
// to the number of categories, not the number of files.
func (s *Store) SelectContentHashes(ctx context.Context, category string, slugs []string) (map[string]string, error) {
	if len(slugs) == 0 {
		return map[string]string{}, nil
	}

	query := fmt.Sprintf(
		"SELECT slug, content_hash FROM content WHERE category = ? AND slug IN (%s)",
		placeholders(len(slugs)),
	)
	args := make([]any, 0, len(slugs)+1)
	args = append(args, category)
	for _, slug := range slugs {
		args = append(args, slug)
	}

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query content hashes for %s: %w", category, err)
	}
	defer rows.Close()

	index := make(map[string]string, len(slugs))
	for rows.Next() {
		var slug, hash string
		if err := rows.Scan(&slug, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan content hash: %w", err)
		}
		index[slug] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content hashes: %w", err)
	}
	return index, nil
}

// UpsertContent inserts or updates a unified-table row.
//
// The conflict target is (category, slug).
func (s *Store) UpsertContent(row *mapper.ContentRow) error {
	return s.UpsertContentContext(context.Background(), row)
}

// UpsertContentContext inserts or updates a unified-table row with context
// support.
func (s *Store) UpsertContentContext(ctx context.Context, row *mapper.ContentRow) error {
	tagsJSON, err := json.Marshal(row.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	metaJSON, err := json.Marshal(row.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
	INSERT INTO content (
		category, slug, title, description, author, tags,
		date_added, last_modified, content, source,
		documentation_url, metadata, content_hash, synced_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(category, slug) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		author = excluded.author,
		tags = excluded.tags,
		date_added = excluded.date_added,
		last_modified = excluded.last_modified,
		content = excluded.content,
		source = excluded.source,
		documentation_url = excluded.documentation_url,
		metadata = excluded.metadata,
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`

	_, err = s.conn.ExecContext(ctx, s.rebind(query),
		row.Category,
		row.Slug,
		row.Title,
		row.Description,
		row.Author,
		string(tagsJSON),
		row.DateAdded,
		row.LastModified,
		row.Content,
		row.Source,
		row.DocumentationURL,
		string(metaJSON),
		row.Hash,
		now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert content %s/%s: %w", row.Category, row.Slug, err)
	}
	return nil
}

// DeleteContent removes a unified-table row. Returns nil if the row doesn't
// exist (idempotent).
func (s *Store) DeleteContent(category, slug string) error {
	return s.DeleteContentContext(context.Background(), category, slug)
}

// DeleteContentContext removes a unified-table row with context support.
func (s *Store) DeleteContentContext(ctx context.Context, category, slug string) error {
	query := `DELETE FROM content WHERE category = ? AND slug = ?`
	if _, err := s.conn.ExecContext(ctx, s.rebind(query), category, slug); err != nil {
		return fmt.Errorf("failed to delete content %s/%s: %w", category, slug, err)
	}
	return nil
}

// ContentCount returns the total number of unified-table rows.
func (s *Store) ContentCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get content count: %w", err)
	}
	return count, nil
}

// ContentCountByCategory returns row counts keyed by category.
func (s *Store) ContentCountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT category, COUNT(*) FROM content GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query content counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan content count: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content counts: %w", err)
	}
	return counts, nil
}
