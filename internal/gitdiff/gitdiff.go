// Package gitdiff derives changed/deleted content file lists from git,
// feeding the same incremental path as the CHANGED_FILES / DELETED_FILES
// environment variables.
package gitdiff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 30 * time.Second

// Changes holds the parsed output of a git diff.
type Changes struct {
	Changed []string
	Deleted []string
}

// Since runs `git diff --name-status <rev>` in repoDir and splits the
// result into changed and deleted paths. Renames count as a delete of the
// old path and a change of the new one.
func Since(ctx context.Context, repoDir, rev string) (*Changes, error) {
	out, err := execGit(ctx, repoDir, "diff", "--name-status", rev)
	if err != nil {
		return nil, fmt.Errorf("git diff against %s failed: %w", rev, err)
	}
	return parseNameStatus(string(out)), nil
}

// execGit runs a git command with a timeout, returning stdout. Stderr is
// folded into the error for diagnostics.
func execGit(ctx context.Context, workDir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// parseNameStatus splits `git diff --name-status` output. Lines are
// tab-separated: status, path, and for renames/copies a second path.
func parseNameStatus(out string) *Changes {
	ch := &Changes{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		switch {
		case strings.HasPrefix(status, "D"):
			ch.Deleted = append(ch.Deleted, fields[1])
		case strings.HasPrefix(status, "R"), strings.HasPrefix(status, "C"):
			if len(fields) >= 3 {
				if strings.HasPrefix(status, "R") {
					ch.Deleted = append(ch.Deleted, fields[1])
				}
				ch.Changed = append(ch.Changed, fields[2])
			}
		default:
			// A, M, T and friends all mean the path now has content.
			ch.Changed = append(ch.Changed, fields[1])
		}
	}
	return ch
}
