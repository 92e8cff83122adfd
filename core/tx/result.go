package tx

import (
	"github.com/yoyow-org/yoyow-core-sub001/core/events"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// OpResult is one operation's outcome within an applied transaction (spec
// §7: "transaction results report, per operation, the events it raised").
type OpResult struct {
	Index  int
	Events []types.Event
}

// Result is everything ApplyTransaction reports about a transaction that
// made it all the way through (spec §7). A rejected transaction returns no
// Result at all — just the error identifying which operation failed and
// why.
type Result struct {
	ID  [32]byte
	Ops []OpResult
	Fee types.Share
}

// recordingEmitter buffers one operation's events for its OpResult. Events
// are only forwarded to the pipeline's real downstream emitter once the
// whole transaction has committed (see Pipeline.ApplyTransaction) — a
// transaction that later fails and rolls back must not have leaked an
// earlier operation's events to subscribers.
type recordingEmitter struct {
	events []types.Event
}

func (r *recordingEmitter) Emit(ev events.Event) {
	if te, ok := ev.(types.Event); ok {
		r.events = append(r.events, te)
	}
}
