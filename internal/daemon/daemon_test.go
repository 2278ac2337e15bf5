package daemon

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/claudepro-directory/contentsync/internal/store"
	"github.com/claudepro-directory/contentsync/internal/syncer"
)

func setupTestSyncer(t *testing.T) *syncer.Syncer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(store.DriverSQLite, "file:"+dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return syncer.New(st, &syncer.Config{
		BatchSize: 50,
		Workers:   2,
		Logger:    log.New(os.Stderr, "[test] ", 0),
	})
}

func writeContent(t *testing.T, root, category, slug, body string) string {
	t.Helper()

	dir := filepath.Join(root, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, slug+".json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestNewValidation(t *testing.T) {
	s := setupTestSyncer(t)

	if _, err := New(nil, "root", nil); err == nil {
		t.Error("expected error for nil syncer")
	}
	if _, err := New(s, "", nil); err == nil {
		t.Error("expected error for empty root")
	}

	d, err := New(s, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = d.watcher.Close()
}

func TestNewDefaultsPartialConfig(t *testing.T) {
	s := setupTestSyncer(t)

	// A config that only sets the logger must still get a usable
	// debounce interval: the flush ticker rejects a zero period.
	d, err := New(s, t.TempDir(), &Config{
		Logger: log.New(os.Stderr, "[test] ", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.watcher.Close()

	if d.config.DebounceInterval <= 0 {
		t.Fatalf("debounce interval not defaulted: %v", d.config.DebounceInterval)
	}

	// The flush loop must start and stop cleanly with the defaulted config.
	ctx, cancel := context.WithCancel(context.Background())
	d.wg.Add(1)
	go d.flushLoop(ctx)
	cancel()
	d.wg.Wait()
}

func TestWantPath(t *testing.T) {
	s := setupTestSyncer(t)
	d, err := New(s, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.watcher.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"content/agents/reviewer.json", true},
		{"content/agents/agent-template.json", false},
		{"content/CHANGELOG.md", true},
		{"content/changelog.md", true},
		{"content/agents/notes.txt", false},
		{"content/agents/.reviewer.json.swp", false},
	}
	for _, tt := range tests {
		if got := d.wantPath(tt.path); got != tt.want {
			t.Errorf("wantPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFlushSyncsQueuedChanges(t *testing.T) {
	s := setupTestSyncer(t)
	root := t.TempDir()
	path := writeContent(t, root, "agents", "reviewer", `{"title":"Reviewer"}`)

	d, err := New(s, root, &Config{
		DebounceInterval: 10 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[test] ", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.watcher.Close()

	d.queueChange(path)
	time.Sleep(20 * time.Millisecond) // let the entry settle past the debounce
	d.flush(context.Background())

	snap, err := s.IncrementalSync(context.Background(), root, []string{path}, nil)
	if err != nil {
		t.Fatalf("IncrementalSync: %v", err)
	}
	// The flush already wrote the row, so a re-sync sees it unchanged.
	if snap.Unchanged != 1 {
		t.Errorf("expected flush to have synced the file: %s", snap)
	}
}

func TestFlushClassifiesDeletions(t *testing.T) {
	s := setupTestSyncer(t)
	root := t.TempDir()
	path := writeContent(t, root, "mcp", "github", `{"title":"GitHub"}`)

	d, err := New(s, root, &Config{
		DebounceInterval: 10 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[test] ", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.watcher.Close()

	// Sync the file in, then delete it and flush the deletion.
	if _, err := s.IncrementalSync(context.Background(), root, []string{path}, nil); err != nil {
		t.Fatalf("IncrementalSync: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	d.queueChange(path)
	time.Sleep(20 * time.Millisecond)
	d.flush(context.Background())

	// Re-adding the file should classify as insert: the row is gone.
	writeContent(t, root, "mcp", "github", `{"title":"GitHub"}`)
	snap, err := s.IncrementalSync(context.Background(), root, []string{path}, nil)
	if err != nil {
		t.Fatalf("IncrementalSync: %v", err)
	}
	if snap.Inserted != 1 {
		t.Errorf("expected row to have been deleted by the flush: %s", snap)
	}
}

func TestFlushDebounceHoldsFreshEntries(t *testing.T) {
	s := setupTestSyncer(t)
	root := t.TempDir()
	path := writeContent(t, root, "rules", "api-design", `{"title":"API"}`)

	d, err := New(s, root, &Config{
		DebounceInterval: time.Hour, // nothing settles during the test
		Logger:           log.New(os.Stderr, "[test] ", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.watcher.Close()

	d.queueChange(path)
	d.flush(context.Background())

	d.changeQueueMu.Lock()
	queued := len(d.changeQueue)
	d.changeQueueMu.Unlock()
	if queued != 1 {
		t.Errorf("fresh entry should stay queued, queue len = %d", queued)
	}
}
