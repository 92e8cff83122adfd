// Package evaluator implements evaluate_and_apply (spec §2, §4) for every
// operation in the tagged-union taxonomy: one function per operation tag,
// dispatched from a registry keyed by types.OpTag rather than the teacher's
// single state_transition.go switch-on-tx-type (core/state_transition.go),
// since this chain's operations are a flat tagged union instead of a
// handful of top-level transaction kinds. Each evaluator both validates its
// preconditions and mutates the object store in one pass, matching the
// teacher's apply-as-you-validate style rather than a separate
// evaluate/apply split.
package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/events"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
	"github.com/yoyow-org/yoyow-core-sub001/native/gov"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
)

// Authority verification (get_required_signatures / verify_authority, spec
// §4.3) runs once per transaction over every operation's fee payer, in the
// transaction pipeline (core/tx) before any operation reaches Apply —
// evaluators here assume the signer set already satisfied the fee payer's
// active authority and focus purely on each operation's own business-logic
// preconditions (balances, pledges, sequence numbers, vote targets).

// Context bundles everything an evaluator needs: the object store's tables,
// the committee-voted fee schedule, the current block's height/time, and
// the event emitter transactions apply against.
type Context struct {
	Store        *store.Store
	Tables       *Tables
	FeeSchedule  *fees.Schedule
	ParamStore   *params.Store
	Events       events.Emitter
	HeadBlock    uint32
	HeadTime     uint32
	PledgeReleaseDelayBlocks uint64
}

// loadGovBaseline snapshots every committee-votable parameter family so a
// committee_proposal_create can be validated and merged against it (spec
// §4.4) before being admitted.
func (c *Context) loadGovBaseline() (gov.Baseline, error) {
	feeSchedule, err := c.ParamStore.FeeSchedule()
	if err != nil {
		return gov.Baseline{}, err
	}
	witness, err := c.ParamStore.WitnessParams()
	if err != nil {
		return gov.Baseline{}, err
	}
	contentAward, err := c.ParamStore.ContentAwardParams()
	if err != nil {
		return gov.Baseline{}, err
	}
	maintenance, err := c.ParamStore.MaintenanceParams()
	if err != nil {
		return gov.Baseline{}, err
	}
	return gov.Baseline{
		FeeSchedule:  feeSchedule,
		Witness:      witness,
		ContentAward: contentAward,
		Maintenance:  maintenance,
	}, nil
}

// emit is a nil-safe convenience wrapper; Context.Events may be a
// NoopEmitter in tests.
func (c *Context) emit(ev types.Event) {
	if c.Events != nil {
		c.Events.Emit(ev)
	}
}

// Func is the shape every operation evaluator implements: validate op
// against the current store state under ctx and apply its effect, or
// return a non-nil error (wrapped in chainerr.EvaluatorError by Apply) that
// leaves the store untouched because the caller's undo session discards
// it.
type Func func(ctx *Context, op types.Operation) error

// registry maps every OpTag this module implements to its evaluator. Built
// once in init(); Apply looks it up by the tag the operation itself
// reports rather than a second tag carried alongside it.
var registry = map[types.OpTag]Func{}

func register(tag types.OpTag, fn Func) {
	registry[tag] = fn
}

// Apply runs the registered evaluator for op, wrapping any failure in an
// EvaluatorError carrying the operation's tag (spec §7: "rejected
// transactions include ... the evaluator name").
func Apply(ctx *Context, op types.Operation) error {
	fn, ok := registry[op.OpTag()]
	if !ok {
		return fmt.Errorf("evaluator: no evaluator registered for tag %d: %w", op.OpTag(), chainerr.ErrEvaluation)
	}
	if err := fn(ctx, op); err != nil {
		return &chainerr.EvaluatorError{Evaluator: evaluatorName(op.OpTag()), Err: err}
	}
	return nil
}

func evaluatorName(tag types.OpTag) string {
	return fmt.Sprintf("op_tag_%d", tag)
}
