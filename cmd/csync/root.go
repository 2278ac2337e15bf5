package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claudepro-directory/contentsync/internal/config"
	"github.com/claudepro-directory/contentsync/internal/store"
)

var (
	cfgFile      string
	flagRoot     string
	flagDriver   string
	flagDatabase string
)

var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Content directory to database sync",
	Long: `csync keeps the site database in step with the content directory.

Content lives as JSON files under per-category directories plus a
Markdown changelog. csync scans them, diffs content hashes against the
database, and writes only what changed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .csync.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "content-dir", "", "content tree root (default \"content\")")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "store driver: pgx or sqlite3 (default \"pgx\")")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database-url", "", "store DSN (default $DATABASE_URL)")
}

// loadConfig resolves configuration and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if flagRoot != "" {
		cfg.ContentDir = flagRoot
	}
	if flagDriver != "" {
		cfg.Driver = flagDriver
	}
	if flagDatabase != "" {
		cfg.DatabaseURL = flagDatabase
	}
	return cfg, nil
}

// openStore resolves the DSN and opens the store. Callers own Close.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	url, err := cfg.ResolveDatabaseURL(ctx)
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Driver, url)
}

// fatal prints an error and exits, matching the command Run convention.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
