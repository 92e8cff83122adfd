// Package chainerr is the typed error taxonomy shared by the store,
// authority resolver, evaluators, and consensus packages. It follows the
// teacher's core/errors convention of grouping sentinel errors with
// stdlib errors.New per subsystem, wrapped with fmt.Errorf("%w: ...") so
// callers can still errors.Is against the sentinel.
package chainerr

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// Store errors.
var (
	ErrNotFound      = errors.New("store: object not found")
	ErrAlreadyExists = errors.New("store: object already exists")
	ErrNoActiveSession = errors.New("store: no active undo session")
	ErrIndexMismatch = errors.New("store: secondary index disagreement")
)

// Authority errors.
var (
	ErrInsufficientAuthority = errors.New("authority: signature set does not satisfy required weight")
	ErrAuthorityDepthExceeded = errors.New("authority: graph walk exceeded max depth")
	ErrSecondaryPermissionDenied = errors.New("authority: operation not permitted by secondary authority")
)

// Evaluator errors (operation failed: precondition or invariant).
var (
	ErrEvaluation = errors.New("evaluator: precondition failed")
	ErrApply      = errors.New("evaluator: invariant violated on apply")
)

// Consensus errors (bad block: rejected, fork discarded).
var (
	ErrBadSignature    = errors.New("consensus: block signature invalid")
	ErrWrongWitness    = errors.New("consensus: signer is not the scheduled witness")
	ErrBadTimestamp    = errors.New("consensus: block timestamp does not match a valid slot")
	ErrMissedSchedule  = errors.New("consensus: schedule cursor not reached")
	ErrPreviousMismatch = errors.New("consensus: block does not link to current head")
)

// Transaction errors (rejected from mempool/block with a typed reason).
var (
	ErrExpired       = errors.New("transaction: expired")
	ErrTaPoSMismatch = errors.New("transaction: ref_block_prefix mismatch")
	ErrDuplicate     = errors.New("transaction: duplicate within dedup window")
	ErrMempoolFull   = errors.New("mempool: transaction limit reached")
)

// ErrResourceExceeded types CPU/recursion overruns (spec §7 "resource
// exceeded"); native/fees.SetFee returns it.
var ErrResourceExceeded = errors.New("resource: execution budget exceeded")

// EvaluatorError carries the operation index and evaluator name alongside
// the underlying failure, matching §7's "rejected transactions include the
// operation index, the evaluator name, and a structured message."
type EvaluatorError struct {
	OpIndex   int
	Evaluator string
	Err       error
}

func (e *EvaluatorError) Error() string {
	return e.Evaluator + ": operation " + strconv.Itoa(e.OpIndex) + ": " + e.Err.Error()
}

func (e *EvaluatorError) Unwrap() error { return e.Err }

// BlockError carries the block id and first failing transaction/operation,
// matching §7's "rejected blocks include the block id and the first failing
// transaction/operation."
type BlockError struct {
	BlockID      [20]byte
	TxIndex      int
	OpIndex      int
	Err          error
}

func (e *BlockError) Error() string {
	return "block " + hex.EncodeToString(e.BlockID[:]) + ": tx " + strconv.Itoa(e.TxIndex) + ": " + e.Err.Error()
}

func (e *BlockError) Unwrap() error { return e.Err }
