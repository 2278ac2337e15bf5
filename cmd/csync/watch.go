package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/claudepro-directory/contentsync/internal/daemon"
	"github.com/claudepro-directory/contentsync/internal/dashboard"
	"github.com/claudepro-directory/contentsync/internal/syncer"
	"github.com/claudepro-directory/contentsync/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the content tree and sync continuously (foreground)",
	Long: `Run the sync daemon in the foreground.

The daemon performs an initial full sync, then watches the content tree
for file changes and flushes debounced batches as incremental syncs.
This is intended for local content authoring: edit a JSON file and the
database follows within a second.

With --dashboard, a WebSocket server broadcasts live sync events:
  item_update:   a content item was inserted, updated, or deleted
  sync_complete: a sync run finished, with counters
  stats:         refreshed database row counts

Example usage:
  csync watch                        # watch with stderr logging
  csync watch --dashboard :9000      # plus live WebSocket dashboard
  csync watch --log-file csync.log   # rotate logs to a file`,
	Run: func(cmd *cobra.Command, args []string) {
		dashAddr, _ := cmd.Flags().GetString("dashboard")
		logFile, _ := cmd.Flags().GetString("log-file")

		cfg, err := loadConfig()
		if err != nil {
			fatal("%v", err)
		}

		var logOut io.Writer = os.Stderr
		if logFile != "" {
			logOut = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     14, // days
			}
		}
		logger := log.New(logOut, "[watch] ", log.LstdFlags)

		ctx := context.Background()

		st, err := openStore(ctx, cfg)
		if err != nil {
			fatal("opening store: %v", err)
		}
		defer st.Close()

		if err := st.InitSchemaContext(ctx); err != nil {
			fatal("initializing schema: %v", err)
		}

		var events syncer.EventSink
		var dash *dashboard.Server
		if dashAddr != "" {
			dash = dashboard.NewServer(&dashboard.Config{
				Addr:   dashAddr,
				Logger: log.New(logOut, "[dashboard] ", log.LstdFlags),
			})
			if err := dash.Start(); err != nil {
				fatal("starting dashboard: %v", err)
			}
			events = dashboard.NewSink(dash, st)
			fmt.Printf("Dashboard: ws://%s/ws\n", dash.GetAddr())
		}

		s := syncer.New(st, &syncer.Config{
			BatchSize:     cfg.BatchSize,
			Workers:       cfg.Workers,
			ChangelogPath: cfg.ChangelogPath,
			Logger:        log.New(logOut, "[sync] ", log.LstdFlags),
			Events:        events,
		})

		d, err := daemon.New(s, cfg.ContentDir, &daemon.Config{Logger: logger})
		if err != nil {
			fatal("creating daemon: %v", err)
		}

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("👀"), cfg.ContentDir)
		fmt.Println("Press Ctrl+C to stop")

		runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(runCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}

		if dash != nil {
			if err := dash.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "Error during dashboard shutdown: %v\n", err)
			}
		}
	},
}

func init() {
	watchCmd.Flags().String("dashboard", "", "serve a WebSocket dashboard on this address (e.g. :8080)")
	watchCmd.Flags().String("log-file", "", "write rotating logs to this file instead of stderr")
	rootCmd.AddCommand(watchCmd)
}
