package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claudepro-directory/contentsync/internal/mapper"
)

// ChangelogSlugs returns the set of release slugs already in the store.
// The changelog table has no hash column, so "row exists" means "already
// synced, skip".
func (s *Store) ChangelogSlugs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT slug FROM changelog")
	if err != nil {
		return nil, fmt.Errorf("failed to query changelog slugs: %w", err)
	}
	defer rows.Close()

	slugs := make(map[string]bool)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan changelog slug: %w", err)
		}
		slugs[slug] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating changelog slugs: %w", err)
	}
	return slugs, nil
}

// UpsertChangelog inserts or updates a changelog row. The conflict target
// is slug.
func (s *Store) UpsertChangelog(row *mapper.ChangelogRow) error {
	return s.UpsertChangelogContext(context.Background(), row)
}

// UpsertChangelogContext inserts or updates a changelog row with context
// support.
func (s *Store) UpsertChangelogContext(ctx context.Context, row *mapper.ChangelogRow) error {
	changesJSON, err := json.Marshal(row.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	query := `
	INSERT INTO changelog (
		slug, title, description, release_date, tldr, changes, content, synced_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(slug) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		release_date = excluded.release_date,
		tldr = excluded.tldr,
		changes = excluded.changes,
		content = excluded.content,
		synced_at = excluded.synced_at
	`

	_, err = s.conn.ExecContext(ctx, s.rebind(query),
		row.Slug,
		row.Title,
		row.Description,
		row.ReleaseDate,
		row.TLDR,
		string(changesJSON),
		row.Content,
		now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert changelog %s: %w", row.Slug, err)
	}
	return nil
}

// DeleteChangelog removes a changelog row. Returns nil if the row doesn't
// exist (idempotent).
func (s *Store) DeleteChangelog(ctx context.Context, slug string) error {
	query := `DELETE FROM changelog WHERE slug = ?`
	if _, err := s.conn.ExecContext(ctx, s.rebind(query), slug); err != nil {
		return fmt.Errorf("failed to delete changelog %s: %w", slug, err)
	}
	return nil
}

// ChangelogCount returns the total number of changelog rows.
func (s *Store) ChangelogCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM changelog").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get changelog count: %w", err)
	}
	return count, nil
}
