// Package pledge implements the bonded-stake state machine shared by the
// witness, committee, and platform governance roles (spec §4.4 "Witness
// pledge" state machine, generalized to all three roles since their rules
// are identical). Grounded on the teacher's native/potso StakeLock/cooldown
// shape (deleted, see DESIGN.md) — a total/releasing/release-block triple
// with a scheduled unlock, reproduced here over types.PledgeState.
package pledge

import (
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// Raise increases a pledge's Total, drawing first from any Releasing
// amount (cancelling part of a pending unbond) before locking new balance
// (spec §4.4: "raising uses delta from releasing-queue first, then locks
// new funds").
func Raise(p types.PledgeState, delta types.Share) (types.PledgeState, error) {
	if delta < 0 {
		return p, chainerr.ErrEvaluation
	}
	fromReleasing := delta
	if fromReleasing > p.Releasing {
		fromReleasing = p.Releasing
	}
	newTotal, err := sharemath.Add(p.Total, delta)
	if err != nil {
		return p, err
	}
	p.Total = newTotal
	p.Releasing -= fromReleasing
	return p, nil
}

// Lower schedules delta for release after releaseDelayBlocks (spec §4.4:
// "lowering pledge schedules the delta for release after
// witness_pledge_release_delay blocks"). delta must not exceed the
// currently-bonded, non-releasing portion.
func Lower(p types.PledgeState, delta types.Share, currentBlock, releaseDelayBlocks uint64) (types.PledgeState, error) {
	if delta < 0 || delta > p.Available() {
		return p, chainerr.ErrEvaluation
	}
	newReleasing, err := sharemath.Add(p.Releasing, delta)
	if err != nil {
		return p, err
	}
	p.Releasing = newReleasing
	p.ReleaseBlock = currentBlock + releaseDelayBlocks
	return p, nil
}

// MaturedRelease returns the portion of Releasing that has crossed
// ReleaseBlock as of currentBlock, and the pledge state with that portion
// drained from both Total and Releasing — the maintenance pass's "release
// matured ... pledges" step (spec §4.7 step 4).
func MaturedRelease(p types.PledgeState, currentBlock uint64) (released types.Share, next types.PledgeState) {
	if p.Releasing == 0 || currentBlock < p.ReleaseBlock {
		return 0, p
	}
	released = p.Releasing
	p.Total -= released
	p.Releasing = 0
	return released, p
}

// Resign fully schedules a pledge for release, used when a witness/
// committee-member/platform resigns voluntarily.
func Resign(p types.PledgeState, currentBlock, releaseDelayBlocks uint64) types.PledgeState {
	p.Releasing = p.Total
	p.ReleaseBlock = currentBlock + releaseDelayBlocks
	return p
}

// AveragePledgeStep applies the rolling average update spec §4.7 step 5
// describes ("update rolling averages scheduled at *_next_update_block"),
// using the same weighted-average helper the voter effective-votes update
// uses.
func AveragePledgeStep(oldAverage, currentPledge types.Share, oldWindowWeight, newWindowWeight uint64) (types.Share, error) {
	return sharemath.WeightedAverage(oldAverage, currentPledge, oldWindowWeight, newWindowWeight)
}
