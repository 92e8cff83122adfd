// Package tx implements the transaction application pipeline: parse the
// wire form, check TaPoS and expiration, deduplicate by id, verify
// authority, run every operation's evaluator inside its own nested undo
// session, and report per-operation results (spec: "Parses, checks TaPoS &
// expiration, deduplicates by id, verifies authority, runs evaluators
// inside a nested undo session, emits per-op results"). Grounded on the
// teacher's core.StateProcessor.executeTransaction (core/state_transition.go):
// same event-buffer-then-truncate-on-error shape, same validate-then-
// dispatch structure, generalized from "one tx, one type-switch" to "one
// tx, N tagged operations applied in sequence."
package tx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/yoyow-org/yoyow-core-sub001/core/authority"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/events"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
)

// Pipeline applies signed transactions against one object store. It holds
// no per-transaction state of its own beyond the current block's height
// and time; every call to ApplyTransaction runs against those, set by the
// block pipeline before it starts applying a block's transactions.
type Pipeline struct {
	Store       *store.Store
	Tables      *evaluator.Tables
	FeeSchedule *fees.Schedule
	ParamStore  *params.Store

	HeadBlock                uint32
	HeadTime                 uint32
	PledgeReleaseDelayBlocks uint64

	// ChainID is mixed into every transaction's signing digest (spec §6),
	// separating this chain's signatures from any other network using the
	// same secp256k1 curve.
	ChainID []byte

	// MaxAuthorityDepth bounds the account-reference graph walk
	// authority.VerifyAuthority performs (spec §4.3).
	MaxAuthorityDepth int

	// Events receives every event raised by a transaction that committed,
	// in operation order. May be nil.
	Events events.Emitter
}

// newEvaluatorContext builds the per-operation evaluator.Context, scoped to
// rec so its events can be attached to that operation's OpResult before
// anything is forwarded downstream.
func (p *Pipeline) newEvaluatorContext(rec *recordingEmitter) *evaluator.Context {
	return &evaluator.Context{
		Store:                    p.Store,
		Tables:                   p.Tables,
		FeeSchedule:              p.FeeSchedule,
		ParamStore:               p.ParamStore,
		Events:                   rec,
		HeadBlock:                p.HeadBlock,
		HeadTime:                 p.HeadTime,
		PledgeReleaseDelayBlocks: p.PledgeReleaseDelayBlocks,
	}
}

// ApplyTransaction validates signed against the current chain head and, if
// it is well-formed, applies every operation in order inside its own
// nested undo session. On success it returns a Result; on failure it
// returns no Result and an error identifying why (TaPoS mismatch,
// expiration, duplicate id, insufficient authority, or the first failing
// operation's evaluator error, with that operation's index attached).
func (p *Pipeline) ApplyTransaction(signed *types.SignedTransaction) (*Result, error) {
	id, err := p.Validate(signed)
	if err != nil {
		return nil, err
	}

	// Every operation gets its own nested undo session, but none of them is
	// committed until every operation in the transaction has succeeded:
	// Session.Commit only pops the session off the stack, it does not fold
	// its undo log into the parent, so an outer session can only unwind an
	// inner one that is still open. Rolling back operation 3 of 5 therefore
	// means unwinding sessions 5, 4, 3, 2, 1 in that order, not just 3.
	txSession := p.Store.BeginUndoSession()
	var opSessions []*store.Session
	rollback := func() {
		for i := len(opSessions) - 1; i >= 0; i-- {
			opSessions[i].Undo()
		}
		txSession.Undo()
	}

	result := &Result{ID: id}
	var opEvents [][]types.Event
	for i, op := range signed.Operations {
		opSessions = append(opSessions, p.Store.BeginUndoSession())
		rec := &recordingEmitter{}
		fee, opEvs, err := p.applyOperation(op, rec)
		if err != nil {
			if evalErr, ok := err.(*chainerr.EvaluatorError); ok {
				evalErr.OpIndex = i
			}
			rollback()
			return nil, err
		}
		result.Fee += fee
		result.Ops = append(result.Ops, OpResult{Index: i, Events: opEvs})
		opEvents = append(opEvents, opEvs)
	}

	if err := p.Store.MarkTransactionSeen(id, signed.Expiration); err != nil {
		rollback()
		return nil, err
	}

	for i := len(opSessions) - 1; i >= 0; i-- {
		if err := opSessions[i].Commit(); err != nil {
			return nil, fmt.Errorf("tx: commit operation %d: %w", i, err)
		}
	}
	if err := txSession.Commit(); err != nil {
		return nil, err
	}

	if p.Events != nil {
		for _, evs := range opEvents {
			for _, ev := range evs {
				p.Events.Emit(ev)
			}
		}
	}
	return result, nil
}

// applyOperation prices op, collects its fee, and runs its evaluator
// against whatever undo session is currently active (the caller has
// already pushed one scoped to this operation).
func (p *Pipeline) applyOperation(op types.TaggedOperation, rec *recordingEmitter) (types.Share, []types.Event, error) {
	raw, err := rlp.EncodeToBytes(op)
	if err != nil {
		return 0, nil, fmt.Errorf("tx: encode operation %d: %w", op.Tag, err)
	}

	ctx := p.newEvaluatorContext(rec)

	fee, err := fees.SetFee(p.FeeSchedule, op.Payload, fees.CoreExchangeRate{}, len(raw), 0)
	if err != nil {
		return 0, nil, err
	}
	if err := evaluator.CollectFee(ctx, op.Payload.FeePayer(), evaluator.CoreAsset, fee); err != nil {
		return 0, nil, err
	}
	if err := evaluator.Apply(ctx, op.Payload); err != nil {
		return 0, nil, err
	}
	return fee, rec.events, nil
}

// Validate runs every read-only admission check ApplyTransaction performs
// before it touches an undo session -- TaPoS, expiration, dedup, and
// authority -- and returns signed's id on success. It does not evaluate any
// operation, so it cannot catch an evaluator-level failure (e.g.
// insufficient balance); mempool.Pool uses it as a cheap pre-filter ahead
// of the authoritative check a block application performs.
func (p *Pipeline) Validate(signed *types.SignedTransaction) ([32]byte, error) {
	id, err := signed.ID()
	if err != nil {
		return id, fmt.Errorf("tx: compute id: %w", err)
	}

	seen, err := p.Store.TransactionSeen(id)
	if err != nil {
		return id, err
	}
	if seen {
		return id, chainerr.ErrDuplicate
	}

	if signed.Expiration <= p.HeadTime {
		return id, chainerr.ErrExpired
	}

	summary, ok, err := p.Tables.BlockSummaryAt(uint32(signed.RefBlockNum))
	if err != nil {
		return id, err
	}
	if !ok || summary.BlockNum != uint32(signed.RefBlockNum) || summary.RefBlockPrefix() != signed.RefBlockPrefix {
		return id, chainerr.ErrTaPoSMismatch
	}

	if err := p.verifyAuthority(signed); err != nil {
		return id, err
	}
	return id, nil
}

// verifyAuthority recovers the compressed-pubkey key set signed's
// signatures satisfy and checks it against every operation's fee-payer
// active authority (spec §4.3).
func (p *Pipeline) verifyAuthority(signed *types.SignedTransaction) error {
	digest, err := signed.Transaction.SigDigest(p.ChainID)
	if err != nil {
		return err
	}
	available := make(authority.KeySet, len(signed.Signatures))
	for _, sig := range signed.Signatures {
		pub, err := crypto.RecoverCompressedPubkeyHex(digest, sig)
		if err != nil {
			return fmt.Errorf("tx: recover signer: %w", err)
		}
		available[pub] = struct{}{}
	}
	return authority.VerifyAuthority(signed.Operations, available, accountLookup{p.Tables}, p.MaxAuthorityDepth)
}
