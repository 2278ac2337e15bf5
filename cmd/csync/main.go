// Command csync synchronizes a content directory tree into the site
// database. It supports one-shot full and incremental syncs, a watch
// daemon, and a live WebSocket dashboard.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
