package syncer

import (
	"fmt"
	"sync/atomic"
)

// Stats accumulates counters across concurrent batch workers. Fields are
// atomic because batches run on parallel goroutines; workers must never
// rely on cooperative scheduling for counter safety.
type Stats struct {
	scanned   atomic.Int64
	inserted  atomic.Int64
	updated   atomic.Int64
	unchanged atomic.Int64
	deleted   atomic.Int64
	errors    atomic.Int64
}

// Snapshot is a point-in-time copy of the counters, safe to pass around
// after the run completes.
type Snapshot struct {
	Scanned   int64
	Inserted  int64
	Updated   int64
	Unchanged int64
	Deleted   int64
	Errors    int64
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Scanned:   s.scanned.Load(),
		Inserted:  s.inserted.Load(),
		Updated:   s.updated.Load(),
		Unchanged: s.unchanged.Load(),
		Deleted:   s.deleted.Load(),
		Errors:    s.errors.Load(),
	}
}

// String formats the snapshot for the end-of-run summary.
func (snap Snapshot) String() string {
	return fmt.Sprintf("scanned=%d inserted=%d updated=%d unchanged=%d deleted=%d errors=%d",
		snap.Scanned, snap.Inserted, snap.Updated, snap.Unchanged, snap.Deleted, snap.Errors)
}
