// Package syncer orchestrates the content sync pipeline: scan, hash-index
// fetch, diff planning, batched upserts, and orphan deletion.
//
// The syncer is resilient by design. Individual file and row failures are
// logged and counted; only setup failures and category configuration
// mismatches abort a run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/claudepro-directory/contentsync/internal/changelog"
	"github.com/claudepro-directory/contentsync/internal/content"
	"github.com/claudepro-directory/contentsync/internal/mapper"
	"github.com/claudepro-directory/contentsync/internal/planner"
	"github.com/claudepro-directory/contentsync/internal/store"
)

// Config holds syncer tuning knobs.
type Config struct {
	// BatchSize is the number of write items per batch.
	BatchSize int

	// Workers bounds how many batches run in parallel.
	Workers int

	// ChangelogPath is the Markdown changelog location. Empty disables
	// changelog sync.
	ChangelogPath string

	// Logger for sync activity.
	Logger *log.Logger

	// Events receives lifecycle notifications. Nil means discard.
	Events EventSink
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize: 50,
		Workers:   4,
		Logger:    log.New(os.Stderr, "[sync] ", log.LstdFlags),
	}
}

// Syncer reconciles a content tree against the store.
type Syncer struct {
	store  *store.Store
	cfg    *Config
	logger *log.Logger
	events EventSink
}

// New creates a Syncer. The store must be open and have its schema
// created. A nil config uses DefaultConfig.
func New(st *store.Store, cfg *Config) *Syncer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	events := cfg.Events
	if events == nil {
		events = nopSink{}
	}
	return &Syncer{store: st, cfg: cfg, logger: cfg.Logger, events: events}
}

// FullSync rescans the entire content tree plus the changelog and
// reconciles everything against the store. No deletion phase: a full
// rescan carries no information about removed files.
func (s *Syncer) FullSync(ctx context.Context, root string) (Snapshot, error) {
	start := time.Now()
	stats := &Stats{}

	scanner := content.NewScanner(root, s.logger)
	files, err := scanner.ScanTree()
	if err != nil {
		return stats.Snapshot(), err
	}
	stats.scanned.Add(int64(len(files)))
	s.logger.Printf("Scanned %d content files under %s", len(files), root)

	if err := s.reconcile(ctx, files, stats); err != nil {
		return stats.Snapshot(), err
	}

	if err := s.syncChangelog(ctx, stats); err != nil {
		return stats.Snapshot(), err
	}

	snap := stats.Snapshot()
	s.events.SyncCompleted(snap, time.Since(start))
	s.logger.Printf("Full sync complete: %s", snap)
	return snap, nil
}

// IncrementalSync parses exactly the supplied changed paths and deletes
// rows for the supplied deleted paths. Both lists empty is a benign no-op.
func (s *Syncer) IncrementalSync(ctx context.Context, root string, changed, deleted []string) (Snapshot, error) {
	start := time.Now()
	stats := &Stats{}

	if len(changed) == 0 && len(deleted) == 0 {
		return stats.Snapshot(), nil
	}

	scanner := content.NewScanner(root, s.logger)
	files, err := scanner.ScanPaths(changed)
	if err != nil {
		return stats.Snapshot(), err
	}
	stats.scanned.Add(int64(len(files)))
	s.logger.Printf("Parsed %d changed files", len(files))

	if err := s.reconcile(ctx, files, stats); err != nil {
		return stats.Snapshot(), err
	}

	if s.changelogChanged(changed) {
		if err := s.syncChangelog(ctx, stats); err != nil {
			return stats.Snapshot(), err
		}
	}

	if err := s.deleteOrphans(ctx, root, deleted, stats); err != nil {
		return stats.Snapshot(), err
	}

	snap := stats.Snapshot()
	s.events.SyncCompleted(snap, time.Since(start))
	s.logger.Printf("Incremental sync complete: %s", snap)
	return snap, nil
}

// reconcile fetches the hash index, plans the diff, and runs the batch
// upserter for the given files.
func (s *Syncer) reconcile(ctx context.Context, files []*content.File, stats *Stats) error {
	if len(files) == 0 {
		return nil
	}

	index := s.fetchHashIndex(ctx, files)
	plan := planner.Build(files, index)
	stats.unchanged.Add(int64(len(plan.Unchanged)))

	s.logger.Printf("Plan: %d insert, %d update, %d unchanged",
		len(plan.Insert), len(plan.Update), len(plan.Unchanged))

	updating := make(map[string]bool, len(plan.Update))
	for _, f := range plan.Update {
		updating[f.Key()] = true
	}
	return s.upsertAll(ctx, plan.Writes(), updating, stats)
}

// fetchHashIndex issues one hash query per category, concurrently. A
// failed category degrades to an empty index (its files re-insert) rather
// than aborting the run.
func (s *Syncer) fetchHashIndex(ctx context.Context, files []*content.File) map[content.Category]planner.HashIndex {
	groups := make(map[content.Category][]string)
	for _, f := range files {
		groups[f.Category] = append(groups[f.Category], f.Slug)
	}

	index := make(map[content.Category]planner.HashIndex, len(groups))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for cat, slugs := range groups {
		wg.Add(1)
		go func(cat content.Category, slugs []string) {
			defer wg.Done()

			var hashes map[string]string
			var err error
			if cat == content.Jobs {
				hashes, err = s.store.SelectJobHashes(ctx, slugs)
			} else {
				hashes, err = s.store.SelectContentHashes(ctx, string(cat), slugs)
			}
			if err != nil {
				s.logger.Printf("WARNING: hash fetch failed for %s, treating all as new: %v", cat, err)
				hashes = map[string]string{}
			}

			mu.Lock()
			index[cat] = hashes
			mu.Unlock()
		}(cat, slugs)
	}
	wg.Wait()

	return index
}

// upsertAll splits the write list into fixed-size batches and runs them
// with bounded parallelism. Per-item failures are counted and the run
// continues; an unknown category is a configuration mismatch and aborts.
func (s *Syncer) upsertAll(ctx context.Context, writes []*content.File, updating map[string]bool, stats *Stats) error {
	if len(writes) == 0 {
		return nil
	}

	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	var fatalMu sync.Mutex
	var fatal error
	setFatal := func(err error) {
		fatalMu.Lock()
		if fatal == nil {
			fatal = err
		}
		fatalMu.Unlock()
	}
	hasFatal := func() bool {
		fatalMu.Lock()
		defer fatalMu.Unlock()
		return fatal != nil
	}

	for start := 0; start < len(writes); start += s.cfg.BatchSize {
		if hasFatal() {
			break
		}
		end := min(start+s.cfg.BatchSize, len(writes))
		batch := writes[start:end]

		wg.Add(1)
		sem <- struct{}{}
		go func(batch []*content.File) {
			defer wg.Done()
			defer func() { <-sem }()

			for _, f := range batch {
				if err := s.upsertOne(ctx, f, updating, stats); err != nil {
					if errors.Is(err, mapper.ErrUnknownCategory) {
						setFatal(err)
						return
					}
					s.logger.Printf("WARNING: failed to sync %s: %v", f.Key(), err)
					stats.errors.Add(1)
				}
			}
		}(batch)
	}
	wg.Wait()

	fatalMu.Lock()
	defer fatalMu.Unlock()
	return fatal
}

// upsertOne maps and writes a single file, updating counters on success.
func (s *Syncer) upsertOne(ctx context.Context, f *content.File, updating map[string]bool, stats *Stats) error {
	if f.Category == content.Jobs {
		row, err := mapper.MapJob(f)
		if err != nil {
			return err
		}
		if err := s.store.UpsertJobContext(ctx, row); err != nil {
			return err
		}
	} else {
		row, err := mapper.MapContent(f)
		if err != nil {
			return err
		}
		if err := s.store.UpsertContentContext(ctx, row); err != nil {
			return err
		}
	}

	action := "inserted"
	if updating[f.Key()] {
		action = "updated"
		stats.updated.Add(1)
	} else {
		stats.inserted.Add(1)
	}
	s.events.ItemSynced(string(f.Category), f.Slug, action)
	return nil
}

// syncChangelog parses the changelog file and upserts entries not already
// in the store. Existence is the only change signal: the changelog table
// carries no hash column.
func (s *Syncer) syncChangelog(ctx context.Context, stats *Stats) error {
	if s.cfg.ChangelogPath == "" {
		return nil
	}

	entries, err := changelog.ParseFile(s.cfg.ChangelogPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	stats.scanned.Add(int64(len(entries)))

	existing, err := s.store.ChangelogSlugs(ctx)
	if err != nil {
		s.logger.Printf("WARNING: changelog slug fetch failed, treating all as new: %v", err)
		existing = map[string]bool{}
	}

	for _, e := range entries {
		if existing[e.Slug] {
			stats.unchanged.Add(1)
			continue
		}
		row := mapper.MapChangelog(e)
		if err := s.store.UpsertChangelogContext(ctx, row); err != nil {
			s.logger.Printf("WARNING: failed to sync changelog %s: %v", e.Slug, err)
			stats.errors.Add(1)
			continue
		}
		stats.inserted.Add(1)
		s.events.ItemSynced(string(content.Changelog), e.Slug, "inserted")
	}
	return nil
}

// deleteOrphans removes rows whose source file was deleted. A path with an
// unrecognized category is a fatal mapping error; per-row delete failures
// are counted and the remaining deletions continue.
func (s *Syncer) deleteOrphans(ctx context.Context, root string, deleted []string, stats *Stats) error {
	for _, p := range deleted {
		if !strings.HasSuffix(p, ".json") {
			if s.cfg.ChangelogPath != "" && filepath.Base(p) == filepath.Base(s.cfg.ChangelogPath) {
				s.logger.Printf("WARNING: changelog file deleted, leaving existing entries in place: %s", p)
			}
			continue
		}
		if strings.Contains(filepath.Base(p), "template") {
			continue
		}

		cat, slug, _, err := content.ParsePath(root, p)
		if err != nil {
			return fmt.Errorf("cannot map deleted file: %w", err)
		}

		var delErr error
		if cat == content.Jobs {
			delErr = s.store.DeleteJobContext(ctx, slug)
		} else {
			delErr = s.store.DeleteContentContext(ctx, string(cat), slug)
		}
		if delErr != nil {
			s.logger.Printf("WARNING: failed to delete %s/%s: %v", cat, slug, delErr)
			stats.errors.Add(1)
			continue
		}

		stats.deleted.Add(1)
		s.events.ItemSynced(string(cat), slug, "deleted")
		s.logger.Printf("Deleted orphan: %s/%s", cat, slug)
	}
	return nil
}

// changelogChanged reports whether the changed list names the changelog
// file.
func (s *Syncer) changelogChanged(changed []string) bool {
	if s.cfg.ChangelogPath == "" {
		return false
	}
	base := filepath.Base(s.cfg.ChangelogPath)
	for _, p := range changed {
		if filepath.Base(p) == base {
			return true
		}
	}
	return false
}
