package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claudepro-directory/contentsync/internal/mapper"
)

// SelectJobHashes fetches slug -> content_hash for the given job slugs.
func (s *Store) SelectJobHashes(ctx context.Context, slugs []string) (map[string]string, error) {
	if len(slugs) == 0 {
		return map[string]string{}, nil
	}

	query := fmt.Sprintf(
		"SELECT slug, content_hash FROM jobs WHERE slug IN (%s)",
		placeholders(len(slugs)),
	)
	args := make([]any, 0, len(slugs))
	for _, slug := range slugs {
		args = append(args, slug)
	}

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query job hashes: %w", err)
	}
	defer rows.Close()

	index := make(map[string]string, len(slugs))
	for rows.Next() {
		var slug, hash string
		if err := rows.Scan(&slug, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan job hash: %w", err)
		}
		index[slug] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job hashes: %w", err)
	}
	return index, nil
}

// UpsertJob inserts or updates a jobs row. The conflict target is slug.
func (s *Store) UpsertJob(row *mapper.JobRow) error {
	return s.UpsertJobContext(context.Background(), row)
}

// UpsertJobContext inserts or updates a jobs row with context support.
func (s *Store) UpsertJobContext(ctx context.Context, row *mapper.JobRow) error {
	tagsJSON, err := json.Marshal(row.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	remote := 0
	if row.Remote {
		remote = 1
	}

	query := `
	INSERT INTO jobs (
		slug, title, description, company, location, job_type,
		salary, apply_url, remote, tags, date_added, content_hash, synced_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(slug) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		company = excluded.company,
		location = excluded.location,
		job_type = excluded.job_type,
		salary = excluded.salary,
		apply_url = excluded.apply_url,
		remote = excluded.remote,
		tags = excluded.tags,
		date_added = excluded.date_added,
		content_hash = excluded.content_hash,
		synced_at = excluded.synced_at
	`

	_, err = s.conn.ExecContext(ctx, s.rebind(query),
		row.Slug,
		row.Title,
		row.Description,
		row.Company,
		row.Location,
		row.JobType,
		row.Salary,
		row.ApplyURL,
		remote,
		string(tagsJSON),
		row.DateAdded,
		row.Hash,
		now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", row.Slug, err)
	}
	return nil
}

// DeleteJob removes a jobs row. Returns nil if the row doesn't exist
// (idempotent).
func (s *Store) DeleteJob(slug string) error {
	return s.DeleteJobContext(context.Background(), slug)
}

// DeleteJobContext removes a jobs row with context support.
func (s *Store) DeleteJobContext(ctx context.Context, slug string) error {
	query := `DELETE FROM jobs WHERE slug = ?`
	if _, err := s.conn.ExecContext(ctx, s.rebind(query), slug); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", slug, err)
	}
	return nil
}

// JobCount returns the total number of jobs rows.
func (s *Store) JobCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get job count: %w", err)
	}
	return count, nil
}
