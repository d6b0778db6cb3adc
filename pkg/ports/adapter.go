package ports

import (
	"github.com/aretw0/opcmd/pkg/eventlog"
	"github.com/aretw0/opcmd/pkg/op"
)

// OpResult is the outcome of dispatching a single operation.
type OpResult struct {
	Success bool
	Message string
	// Prefix overrides the result-line prefix character. Empty means the
	// default: `+` on success, `!` on failure.
	Prefix string
}

// Adapter is the capability set a domain must supply to be served by the
// opcmd façade. M is the domain's model type, E its event type.
//
// ReverseEvent and ReplayEvent must be exact inverses/repeats of whatever
// DispatchOp recorded, and total over any event the adapter itself produced.
// They have no error return: a failure there is a contract violation by the
// adapter and is not recovered by the core.
type Adapter[M, E any] interface {
	// CreateEmpty builds a fresh model from a title and session params.
	CreateEmpty(title string, params map[string]string) (M, error)

	// Serialize writes the model to path; Deserialize reads one back.
	Serialize(model M, path string) error
	Deserialize(path string) (M, error)

	// RebuildIndices restores any derived lookup structures after the model
	// has been mutated by reversal or replay.
	RebuildIndices(model M)

	// Digest returns a short human-readable summary of the model state.
	Digest(model M) string

	// DispatchOp executes a parsed operation against the model, appending
	// any reversible events it produces to the log.
	DispatchOp(parsed *op.Op, model M, log *eventlog.Log[E]) OpResult

	// DispatchQuery answers a read-only query string.
	DispatchQuery(query string, model M) string

	ReverseEvent(event E, model M)
	ReplayEvent(event E, model M)
}

// Snapshotter is an optional adapter capability enabling atomic batch
// rollback. The snapshot is an opaque capsule: the core never inspects it,
// it only hands it back to Restore. Taking a snapshot must not touch the
// event log. Adapters that do not implement Snapshotter simply run batches
// without atomicity.
type Snapshotter[M any] interface {
	Snapshot(model M) any
	Restore(model M, snapshot any)
}
