// Package hostfn defines the interface a WASM contract sandbox calls
// through to read and mutate chain state (spec §6). The sandbox itself is
// out of scope for this module (Non-goals); it is represented only as an
// injected collaborator satisfying Context, matching the teacher's
// consensus/bft.NodeInterface treatment of another subsystem as a plain
// method-set boundary rather than a concrete type.
package hostfn

import "github.com/yoyow-org/yoyow-core-sub001/core/types"

// Context is the surface a contract execution needs from the object
// store while it runs: balance reads, an inline transfer primitive, and
// an event sink, all scoped to the calling contract's own authority (the
// sandbox never gets raw Store/Tables access).
type Context interface {
	GetCoreBalance(account types.AccountUID) (types.Share, error)
	GetBalance(account types.AccountUID, asset types.AssetAID) (types.Share, error)
	Transfer(from, to types.AccountUID, asset types.AssetAID, amount types.Share) error
	Emit(event types.Event)
}
