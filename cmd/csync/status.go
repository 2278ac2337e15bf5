package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/claudepro-directory/contentsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database row counts",
	Long: `Display row counts for synced content.

Shows per-category content counts plus the jobs and changelog tables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("%v", err)
		}

		ctx := context.Background()

		st, err := openStore(ctx, cfg)
		if err != nil {
			fatal("opening store: %v", err)
		}
		defer st.Close()

		byCategory, err := st.ContentCountByCategory(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting content counts: %v\n", err)
			os.Exit(1)
		}
		jobCount, err := st.JobCount(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting job count: %v\n", err)
			os.Exit(1)
		}
		changelogCount, err := st.ChangelogCount(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting changelog count: %v\n", err)
			os.Exit(1)
		}

		categories := make([]string, 0, len(byCategory))
		total := 0
		for cat, n := range byCategory {
			categories = append(categories, cat)
			total += n
		}
		sort.Strings(categories)

		fmt.Printf("\n%s Content Database Status\n\n", ui.RenderAccent("📊"))
		for _, cat := range categories {
			fmt.Printf("%-14s %d\n", cat+":", byCategory[cat])
		}
		fmt.Printf("%-14s %d\n", "jobs:", jobCount)
		fmt.Printf("%-14s %d\n", "changelog:", changelogCount)
		fmt.Printf("\nTotal content rows: %d\n\n", total+jobCount+changelogCount)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
