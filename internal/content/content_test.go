package content

import (
	"log"
	"os"
	"path/filepath"
	"testing"
)

// writeJSON creates a content file under dir.
func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", 0)
}

func TestHashJSONKeyOrderInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	a := writeJSON(t, tmpDir, "a.json", `{"title":"X","tags":["a","b"]}`)
	b := writeJSON(t, tmpDir, "b.json", `{"tags":["a","b"],"title":"X"}`)

	fa, err := Load(Agents, "", a)
	if err != nil {
		t.Fatalf("Load a: %v", err)
	}
	fb, err := Load(Agents, "", b)
	if err != nil {
		t.Fatalf("Load b: %v", err)
	}

	if fa.Hash != fb.Hash {
		t.Errorf("hashes differ for key-reordered JSON: %s vs %s", fa.Hash, fb.Hash)
	}
}

func TestHashJSONValueSensitive(t *testing.T) {
	h1, err := HashJSON(map[string]any{"title": "X"})
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	h2, err := HashJSON(map[string]any{"title": "Y"})
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	if h1 == h2 {
		t.Error("different values produced the same hash")
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		root     string
		path     string
		wantCat  Category
		wantSlug string
		wantTop  string
		wantErr  bool
	}{
		{
			name: "flat category", root: "content",
			path:    "content/agents/code-reviewer.json",
			wantCat: Agents, wantSlug: "code-reviewer",
		},
		{
			name: "nested guide with topic", root: "content",
			path:    "content/guides/tutorials/getting-started.json",
			wantCat: Guides, wantSlug: "getting-started", wantTop: "tutorials",
		},
		{
			name: "guide directly under category", root: "content",
			path:    "content/guides/overview.json",
			wantCat: Guides, wantSlug: "overview",
		},
		{
			name: "repo-relative path", root: "content",
			path:    "site/content/mcp/github-server.json",
			wantCat: MCP, wantSlug: "github-server",
		},
		{
			name: "jobs category", root: "content",
			path:    "content/jobs/backend-engineer.json",
			wantCat: Jobs, wantSlug: "backend-engineer",
		},
		{
			name: "unrecognized category", root: "content",
			path:    "content/widgets/thing.json",
			wantErr: true,
		},
		{
			name: "no category at all", root: "content",
			path:    "README.json",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, slug, topic, err := ParsePath(tt.root, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s, got %s/%s", tt.path, cat, slug)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%s): %v", tt.path, err)
			}
			if cat != tt.wantCat || slug != tt.wantSlug || topic != tt.wantTop {
				t.Errorf("got (%s, %s, %s), want (%s, %s, %s)",
					cat, slug, topic, tt.wantCat, tt.wantSlug, tt.wantTop)
			}
		})
	}
}

func TestScanTree(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "agents"), "reviewer.json", `{"title":"Reviewer"}`)
	writeJSON(t, filepath.Join(root, "agents"), "agent-template.json", `{"title":"Template"}`)
	writeJSON(t, filepath.Join(root, "mcp"), "github.json", `{"title":"GitHub"}`)
	writeJSON(t, filepath.Join(root, "guides", "tutorials"), "intro.json", `{"title":"Intro"}`)
	// Unknown directories are simply not scanned.
	writeJSON(t, filepath.Join(root, "drafts"), "wip.json", `{"title":"WIP"}`)

	s := NewScanner(root, testLogger())
	files, err := s.ScanTree()
	if err != nil {
		t.Fatalf("ScanTree: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	byKey := make(map[string]*File)
	for _, f := range files {
		byKey[f.Key()] = f
	}
	if byKey["agents:reviewer"] == nil {
		t.Error("missing agents:reviewer")
	}
	if byKey["agents:agent-template"] != nil {
		t.Error("template file was not excluded")
	}
	if g := byKey["guides:intro"]; g == nil {
		t.Error("missing guides:intro")
	} else if g.Topic != "tutorials" {
		t.Errorf("guide topic = %q, want tutorials", g.Topic)
	}
}

func TestScanTreeMissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "nope"), testLogger())
	if _, err := s.ScanTree(); err == nil {
		t.Error("expected error for missing content root")
	}
}

func TestScanTreeInvalidJSONSkipped(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "rules"), "good.json", `{"title":"Good"}`)
	writeJSON(t, filepath.Join(root, "rules"), "bad.json", `{not json`)

	s := NewScanner(root, testLogger())
	files, err := s.ScanTree()
	if err != nil {
		t.Fatalf("ScanTree: %v", err)
	}
	if len(files) != 1 || files[0].Slug != "good" {
		t.Errorf("expected only the valid file, got %d files", len(files))
	}
}

func TestScanTreeDuplicateSlug(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "guides", "tutorials"), "setup.json", `{"title":"A"}`)
	writeJSON(t, filepath.Join(root, "guides", "workflows"), "setup.json", `{"title":"B"}`)

	s := NewScanner(root, testLogger())
	if _, err := s.ScanTree(); err == nil {
		t.Error("expected duplicate slug error within one category")
	}
}

func TestScanTreeSameSlugAcrossCategories(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, "agents"), "github.json", `{"title":"A"}`)
	writeJSON(t, filepath.Join(root, "mcp"), "github.json", `{"title":"B"}`)

	s := NewScanner(root, testLogger())
	files, err := s.ScanTree()
	if err != nil {
		t.Fatalf("same slug in different categories should be fine: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %d", len(files))
	}
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	good := writeJSON(t, filepath.Join(root, "hooks"), "pre-commit.json", `{"title":"Pre"}`)
	gone := filepath.Join(root, "hooks", "removed.json")

	s := NewScanner(root, testLogger())
	files, err := s.ScanPaths([]string{
		good,
		gone,                                  // deleted between diff and scan
		filepath.Join(root, "README.md"),      // not JSON
		filepath.Join(root, "hooks", "hook-template.json"),
	})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 1 || files[0].Slug != "pre-commit" {
		t.Fatalf("expected only pre-commit, got %d files", len(files))
	}
}

func TestScanPathsRepeatedPath(t *testing.T) {
	root := t.TempDir()
	path := writeJSON(t, filepath.Join(root, "agents"), "reviewer.json", `{"title":"Reviewer"}`)

	// The same file listed twice (a rebase can do this) is one file,
	// not a duplicate-slug error.
	s := NewScanner(root, testLogger())
	files, err := s.ScanPaths([]string{path, path})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %d", len(files))
	}
}

func TestScanPathsUnknownCategoryFatal(t *testing.T) {
	root := t.TempDir()
	p := writeJSON(t, filepath.Join(root, "widgets"), "thing.json", `{"title":"T"}`)

	s := NewScanner(root, testLogger())
	if _, err := s.ScanPaths([]string{p}); err == nil {
		t.Error("expected error for unknown category in changed path")
	}
}

func TestSplitPathList(t *testing.T) {
	got := SplitPathList("content/agents/a.json\ncontent/mcp/b.json content/rules/c.json\n")
	if len(got) != 3 {
		t.Fatalf("expected 3 paths, got %d: %v", len(got), got)
	}
	if got[0] != "content/agents/a.json" || got[2] != "content/rules/c.json" {
		t.Errorf("unexpected split result: %v", got)
	}

	if got := SplitPathList(""); len(got) != 0 {
		t.Errorf("empty list should split to nothing, got %v", got)
	}
}
