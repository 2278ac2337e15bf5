package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claudepro-directory/contentsync/internal/ui"
)

var initSchemaCmd = &cobra.Command{
	Use:   "init-schema",
	Short: "Create database tables and indexes",
	Long: `Create the content, jobs, and changelog tables if they don't exist.

Safe to run repeatedly; existing tables are left untouched. The sync
command also does this on startup, so init-schema is mainly useful for
provisioning a fresh database ahead of the first deploy.`,
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

		if err := st.InitSchemaContext(ctx); err != nil {
			fatal("initializing schema: %v", err)
		}

		fmt.Printf("%s Schema initialized (%s)\n", ui.RenderPass("✓"), cfg.Driver)
	},
}

func init() {
	rootCmd.AddCommand(initSchemaCmd)
}
