// Package daemon provides watch mode: an fsnotify loop over the content
// tree that feeds debounced change batches into the incremental sync path.
//
// The daemon:
//  1. Performs an initial full sync
//  2. Watches category directories (and guide topic subdirectories)
//  3. Queues file events with debouncing to batch rapid updates
//  4. Flushes each batch as an incremental sync
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/claudepro-directory/contentsync/internal/content"
	"github.com/claudepro-directory/contentsync/internal/syncer"
)

// Config holds daemon configuration.
type Config struct {
	// DebounceInterval is how long to wait before flushing queued file
	// changes. Batches rapid updates together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[watch] ", log.LstdFlags),
	}
}

// Daemon watches the content tree and keeps the store in sync.
type Daemon struct {
	sync   *syncer.Syncer
	root   string
	config *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // path -> last event time
	changeQueueMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a Daemon syncing the content tree at root.
func New(s *syncer.Syncer, root string, config *Config) (*Daemon, error) {
	if s == nil {
		return nil, fmt.Errorf("syncer cannot be nil")
	}
	if root == "" {
		return nil, fmt.Errorf("root cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 250 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[watch] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		sync:        s,
		root:        root,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
	}, nil
}

// Start runs the daemon until ctx is cancelled. It performs an initial
// full sync, then watches for changes.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting watch daemon")

	if _, err := d.sync.FullSync(ctx, d.root); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	if err := d.addWatches(); err != nil {
		return err
	}

	d.wg.Add(2)
	go d.watchFileEvents(ctx)
	go d.flushLoop(ctx)

	<-ctx.Done()
	return d.stop()
}

// stop closes the watcher and waits for the event goroutines.
func (d *Daemon) stop() error {
	d.config.Logger.Println("Stopping watch daemon")
	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}
	d.wg.Wait()
	d.config.Logger.Println("Watch daemon stopped")
	return nil
}

// addWatches registers the content root, every category directory, and one
// topic level for nested categories. The root itself is watched so
// changelog edits are seen too.
func (d *Daemon) addWatches() error {
	if err := d.watcher.Add(d.root); err != nil {
		return fmt.Errorf("failed to watch content root %s: %w", d.root, err)
	}

	for _, cat := range content.Known() {
		dir := filepath.Join(d.root, string(cat))
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := d.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}

		if !cat.Nested() {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub := filepath.Join(dir, entry.Name())
			if err := d.watcher.Add(sub); err != nil {
				return fmt.Errorf("failed to watch %s: %w", sub, err)
			}
		}
	}

	d.config.Logger.Printf("Watching content tree at %s", d.root)
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !d.wantPath(event.Name) {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// wantPath reports whether an event path is part of the sync surface:
// content JSON files (excluding templates) or the changelog.
func (d *Daemon) wantPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".json") {
		return !strings.Contains(base, "template")
	}
	return strings.EqualFold(base, "CHANGELOG.md")
}

// queueChange records a file event for the next flush.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	d.changeQueue[path] = time.Now()
}

// flushLoop periodically drains the change queue into an incremental sync.
func (d *Daemon) flushLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.flush(ctx)
		}
	}
}

// flush takes settled queue entries, classifies them as changed or
// deleted, and runs one incremental sync for the batch.
func (d *Daemon) flush(ctx context.Context) {
	now := time.Now()

	d.changeQueueMu.Lock()
	var changed, deleted []string
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		delete(d.changeQueue, path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			deleted = append(deleted, path)
		} else {
			changed = append(changed, path)
		}
	}
	d.changeQueueMu.Unlock()

	if len(changed) == 0 && len(deleted) == 0 {
		return
	}

	snap, err := d.sync.IncrementalSync(ctx, d.root, changed, deleted)
	if err != nil {
		d.config.Logger.Printf("Error during incremental sync: %v", err)
		return
	}
	d.config.Logger.Printf("Flushed %d changed, %d deleted: %s", len(changed), len(deleted), snap)
}
