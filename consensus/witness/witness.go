// Package witness implements spec §4.5's block header validation, missed
// slot bookkeeping, and the irreversibility threshold computation.
package witness

import (
	"sort"

	"github.com/yoyow-org/yoyow-core-sub001/consensus/schedule"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// SignatureVerifier checks a witness signature against a signing key; the
// running node supplies a secp256k1 implementation (via crypto.PublicKey),
// kept as an interface here so header validation has no crypto-library
// import dependency of its own.
type SignatureVerifier func(signingKeyHex string, digest []byte, sig types.Signature65) bool

// ValidateHeader checks spec §4.5's three requirements: timestamp matches a
// positive slot, signer is the scheduled witness for that slot, and the
// signature verifies against the witness's signing key.
func ValidateHeader(h types.BlockHeader, sig types.Signature65, sched schedule.Schedule, genesis uint32, blockInterval uint32, signingKeyOf func(types.AccountUID) (string, bool), verify SignatureVerifier, digest []byte) error {
	slot := schedule.GetSlotAtTime(h.Timestamp, genesis, blockInterval, sched.CurrentASlot)
	if slot <= 0 {
		return chainerr.ErrBadTimestamp
	}
	scheduled, ok := sched.GetScheduledWitness(slot)
	if !ok || scheduled != h.Witness {
		return chainerr.ErrWrongWitness
	}
	key, ok := signingKeyOf(h.Witness)
	if !ok || key == "" {
		return chainerr.ErrWrongWitness
	}
	if !verify(key, digest, sig) {
		return chainerr.ErrBadSignature
	}
	return nil
}

// MissedSlotUpdate is the per-witness bookkeeping delta applied for one
// missed slot (spec §4.5: "increment total_missed, and if inactive past
// max_witness_inactive_blocks, clear signing_key").
type MissedSlotUpdate struct {
	Witness        types.AccountUID
	TotalMissed    uint64
	ClearSigningKey bool
}

// ProcessMissedSlots walks every slot strictly between the previous head
// slot and the slot the incoming block occupies, returning one update per
// missed slot in order. currentMissed supplies each witness's current
// missed-slot total; a witness whose new total exceeds maxInactiveBlocks has
// its signing key cleared.
func ProcessMissedSlots(sched schedule.Schedule, fromSlotExclusive, toSlotExclusive int64, currentMissed func(types.AccountUID) uint64, maxInactiveBlocks uint64) []MissedSlotUpdate {
	var updates []MissedSlotUpdate
	for slot := fromSlotExclusive + 1; slot < toSlotExclusive; slot++ {
		w, ok := sched.GetScheduledWitness(slot)
		if !ok {
			continue
		}
		missed := currentMissed(w) + 1
		updates = append(updates, MissedSlotUpdate{
			Witness:         w,
			TotalMissed:     missed,
			ClearSigningKey: missed > maxInactiveBlocks,
		})
	}
	return updates
}

// ConfirmedWitness is the subset of Witness state the irreversibility
// computation needs.
type ConfirmedWitness struct {
	UID               types.AccountUID
	LastConfirmedBlock uint32
}

// IrreversibilityThresholdNumerator/Denominator fix the 67% participation
// threshold from spec §4.5.
const (
	IrreversibilityThresholdNumerator   = 67
	IrreversibilityThresholdDenominator = 100
)

// ComputeLastIrreversible sorts the active witness set by
// LastConfirmedBlock and returns the value at index
// floor((1-threshold)*n), monotonically clamped against prevIrreversible.
func ComputeLastIrreversible(active []ConfirmedWitness, prevIrreversible uint32) uint32 {
	if len(active) == 0 {
		return prevIrreversible
	}
	sorted := append([]ConfirmedWitness(nil), active...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LastConfirmedBlock < sorted[j].LastConfirmedBlock })

	n := len(sorted)
	idx := (n * (IrreversibilityThresholdDenominator - IrreversibilityThresholdNumerator)) / IrreversibilityThresholdDenominator
	if idx >= n {
		idx = n - 1
	}
	candidate := sorted[idx].LastConfirmedBlock
	if candidate < prevIrreversible {
		return prevIrreversible
	}
	return candidate
}
