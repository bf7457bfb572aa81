// Package sched abstracts the scheduler that fires registered crontab
// entries. The dispatch layer only needs two capabilities: replace the
// active table wholesale, and start the thing that fires it. Everything
// about timing, concurrency between fired entries, and retry lives behind
// this boundary.
package sched

import (
	"context"

	"github.com/ivallesp/tenantcron/internal/crontab"
)

// Backend registers a complete entry table and starts the scheduler.
type Backend interface {
	// Register replaces whatever table was active before with exactly the
	// given entries. Rejection of a malformed schedule expression surfaces
	// here, before Start.
	Register(ctx context.Context, entries []crontab.Entry) error

	// Start begins firing registered entries and returns a handle to the
	// running instance. Under normal operation the dispatcher never stops
	// the handle; it exists so tests and embedders can.
	Start(ctx context.Context) (Handle, error)
}

// Handle is the running scheduler instance.
type Handle interface {
	Stop() error
}
