package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claudepro-directory/contentsync/internal/store"
	"github.com/claudepro-directory/contentsync/internal/syncer"
)

// Sink bridges sync events onto the dashboard broadcast channel. It
// implements syncer.EventSink.
type Sink struct {
	server *Server
	store  *store.Store
}

// NewSink creates a Sink broadcasting through server. The store is
// optional; when present, aggregate counts are broadcast after each run.
func NewSink(server *Server, st *store.Store) *Sink {
	return &Sink{server: server, store: st}
}

var _ syncer.EventSink = (*Sink)(nil)

// ItemSynced broadcasts a single item change.
func (k *Sink) ItemSynced(category, slug, action string) {
	data, err := json.Marshal(ItemUpdateData{
		Category: category,
		Slug:     slug,
		Action:   action,
	})
	if err != nil {
		return
	}
	k.server.Broadcast(Message{Type: MessageTypeItemUpdate, Data: data})
}

// SyncCompleted broadcasts the run counters, followed by refreshed store
// totals when a store is attached.
func (k *Sink) SyncCompleted(snap syncer.Snapshot, elapsed time.Duration) {
	data, err := json.Marshal(SyncCompleteData{
		Scanned:   snap.Scanned,
		Inserted:  snap.Inserted,
		Updated:   snap.Updated,
		Unchanged: snap.Unchanged,
		Deleted:   snap.Deleted,
		Errors:    snap.Errors,
		Duration:  elapsed,
	})
	if err != nil {
		return
	}
	k.server.Broadcast(Message{Type: MessageTypeSyncComplete, Data: data})

	if k.store != nil {
		k.broadcastStats()
	}
}

// broadcastStats queries store totals and broadcasts them. Failures are
// silently dropped: stats are advisory.
func (k *Sink) broadcastStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	byCategory, err := k.store.ContentCountByCategory(ctx)
	if err != nil {
		return
	}
	total := 0
	for _, n := range byCategory {
		total += n
	}
	jobs, err := k.store.JobCount(ctx)
	if err != nil {
		return
	}
	changelog, err := k.store.ChangelogCount(ctx)
	if err != nil {
		return
	}

	data, err := json.Marshal(StatsData{
		Total:      total,
		ByCategory: byCategory,
		Jobs:       jobs,
		Changelog:  changelog,
	})
	if err != nil {
		return
	}
	k.server.Broadcast(Message{Type: MessageTypeStats, Data: data})
}
