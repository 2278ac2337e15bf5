package syncer

import "time"

// EventSink receives sync lifecycle notifications. The watch-mode
// dashboard implements this to broadcast live progress; the default sink
// discards everything.
type EventSink interface {
	// ItemSynced is called after each successful write or delete.
	// Action is one of "inserted", "updated", "deleted".
	ItemSynced(category, slug, action string)

	// SyncCompleted is called once per sync run with the final counters.
	SyncCompleted(snap Snapshot, elapsed time.Duration)
}

type nopSink struct{}

func (nopSink) ItemSynced(category, slug, action string)           {}
func (nopSink) SyncCompleted(snap Snapshot, elapsed time.Duration) {}
