package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/claudepro-directory/contentsync/internal/config"
	"github.com/claudepro-directory/contentsync/internal/gitdiff"
	"github.com/claudepro-directory/contentsync/internal/mapper"
	"github.com/claudepro-directory/contentsync/internal/syncer"
	"github.com/claudepro-directory/contentsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync content files to the database",
	Long: `Sync the content tree to the database.

By default this is an incremental sync driven by the CHANGED_FILES and
DELETED_FILES environment variables (space or newline separated paths),
as set by the deploy workflow. With neither variable set the command is
a no-op and exits 0.

Modes:
  csync sync                   # incremental from CHANGED_FILES/DELETED_FILES
  csync sync --full            # rescan the whole tree
  csync sync --from-git HEAD~1 # derive the change lists from git

Only changed rows are written: one hash query per category decides
which files are new, modified, or unchanged. The command exits 1 if any
item failed to sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		full, _ := cmd.Flags().GetBool("full")
		fromGit, _ := cmd.Flags().GetString("from-git")
		yes, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		workers, _ := cmd.Flags().GetInt("workers")

		cfg, err := loadConfig()
		if err != nil {
			fatal("%v", err)
		}
		if batchSize > 0 {
			cfg.BatchSize = batchSize
		}
		if workers > 0 {
			cfg.Workers = workers
		}
		if cfg.FieldTable != "" {
			if err := mapper.LoadFieldOverrides(cfg.FieldTable); err != nil {
				fatal("loading field table: %v", err)
			}
		}

		ctx := context.Background()

		st, err := openStore(ctx, cfg)
		if err != nil {
			fatal("opening store: %v", err)
		}
		defer st.Close()

		if err := st.InitSchemaContext(ctx); err != nil {
			fatal("initializing schema: %v", err)
		}

		s := syncer.New(st, &syncer.Config{
			BatchSize:     cfg.BatchSize,
			Workers:       cfg.Workers,
			ChangelogPath: cfg.ChangelogPath,
			Logger:        log.New(os.Stderr, "[sync] ", log.LstdFlags),
		})

		start := time.Now()
		var snap syncer.Snapshot

		if full {
			fmt.Printf("%s Full sync from %s...\n", ui.RenderAccent("🔄"), cfg.ContentDir)
			snap, err = s.FullSync(ctx, cfg.ContentDir)
		} else {
			changed, deleted := changeLists(ctx, fromGit)

			if len(changed) == 0 && len(deleted) == 0 {
				fmt.Println("No content changes detected, nothing to sync")
				return
			}
			if len(deleted) > 0 && !confirmDeletions(deleted, yes) {
				fmt.Println("Aborted")
				os.Exit(1)
			}

			fmt.Printf("%s Incremental sync: %d changed, %d deleted...\n",
				ui.RenderAccent("🔄"), len(changed), len(deleted))
			snap, err = s.IncrementalSync(ctx, cfg.ContentDir, changed, deleted)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error during sync: %v\n", err)
			os.Exit(1)
		}

		elapsed := time.Since(start)
		printSummary(snap, elapsed)

		if snap.Errors > 0 {
			fmt.Fprintf(os.Stderr, "%s %d items failed to sync\n", ui.RenderError("✗"), snap.Errors)
			os.Exit(1)
		}
	},
}

// changeLists resolves changed/deleted paths either from git or from the
// workflow environment variables.
func changeLists(ctx context.Context, fromGit string) (changed, deleted []string) {
	if fromGit == "" {
		return config.ChangedFiles(), config.DeletedFiles()
	}

	changes, err := gitdiff.Since(ctx, ".", fromGit)
	if err != nil {
		fatal("deriving change lists from git: %v", err)
	}
	return changes.Changed, changes.Deleted
}

// confirmDeletions asks before removing database rows. Non-interactive
// runs (CI) and --yes skip the prompt.
func confirmDeletions(deleted []string, yes bool) bool {
	if yes || !term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}

	fmt.Printf("%s %d deleted files will have their rows removed:\n", ui.RenderWarn("⚠"), len(deleted))
	for _, p := range deleted {
		fmt.Printf("   %s\n", p)
	}

	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Delete %d database rows?", len(deleted))).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	if err != nil {
		return false
	}
	return ok
}

// printSummary writes the end-of-run counters.
func printSummary(snap syncer.Snapshot, elapsed time.Duration) {
	fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed.Round(time.Millisecond))
	fmt.Printf("   Scanned: %d\n", snap.Scanned)
	fmt.Printf("   Inserted: %d\n", snap.Inserted)
	fmt.Printf("   Updated: %d\n", snap.Updated)
	fmt.Printf("   Unchanged: %d\n", snap.Unchanged)
	fmt.Printf("   Deleted: %d\n", snap.Deleted)
	if snap.Errors > 0 {
		fmt.Printf("   Errors: %d\n", snap.Errors)
	}
}

func init() {
	syncCmd.Flags().Bool("full", false, "rescan and sync the entire content tree")
	syncCmd.Flags().String("from-git", "", "derive change lists from 'git diff <rev>'")
	syncCmd.Flags().BoolP("yes", "y", false, "skip the deletion confirmation prompt")
	syncCmd.Flags().Int("batch-size", 0, "items per write batch (default 50)")
	syncCmd.Flags().Int("workers", 0, "parallel batch workers (default 4)")
	rootCmd.AddCommand(syncCmd)
}
