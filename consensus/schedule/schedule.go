// Package schedule implements spec §4.5's witness schedule: slot math, the
// three-pool (by-vote-top / by-vote-rest / by-pledge) selection, and the
// deterministic blake3-seeded shuffle that replaces the original
// fc::rand64/std::shuffle pairing (see DESIGN.md for why: same seed -> same
// permutation is the required property, not bit-identical C++ output).
package schedule

import (
	"encoding/binary"
	"sort"

	"lukechampine.com/blake3"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// Candidate is the subset of Witness fields the scheduler needs to rank and
// weight witnesses, kept independent of core/store so this package has no
// import-cycle with the object store.
type Candidate struct {
	UID           types.AccountUID
	TotalVotes    types.Share
	AveragePledge types.Share
	IsValid       bool
}

// Params bounds the three pool sizes. These are committee-voted chain
// parameters in the running node (native/params); kept as a plain struct
// here so schedule rebuilding is a pure function of its inputs.
type Params struct {
	ByVoteTopCount  int
	ByVoteRestCount int
	ByPledgeCount   int
}

// Cursor tracks the two virtual-time round-robin positions carried across
// schedule rebuilds (spec §4.5: "cursor current_by_vote_time... advances
// proportionally to 1/votes", and the analogous by-pledge cursor).
type Cursor struct {
	ByVoteTime   uint64
	ByPledgeTime uint64
}

func sortByVotesDesc(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].TotalVotes != c[j].TotalVotes {
			return c[i].TotalVotes > c[j].TotalVotes
		}
		return c[i].UID < c[j].UID // tie-break by uid ascending
	})
}

// pickRoundRobin advances cursor by 1/weight per candidate (virtual time),
// returning the next n candidates in cursor order. weight must be > 0 for
// every candidate passed in; callers filter out zero-weight witnesses
// before calling.
func pickRoundRobin(candidates []Candidate, n int, cursor *uint64, weightOf func(Candidate) uint64) []Candidate {
	if len(candidates) == 0 || n == 0 {
		return nil
	}
	// Stable virtual-time ordering: sort by uid so the round-robin position
	// is reproducible across rebuilds for the same candidate set.
	ordered := append([]Candidate(nil), candidates...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].UID < ordered[j].UID })

	out := make([]Candidate, 0, n)
	start := int(*cursor % uint64(len(ordered)))
	for i := 0; i < n && i < len(ordered); i++ {
		idx := (start + i) % len(ordered)
		c := ordered[idx]
		out = append(out, c)
		*cursor += weightOf(c)
	}
	return out
}

// SelectPools runs the three-way selection of spec §4.5 step 1-3 and
// returns the concatenated (not yet shuffled) list plus the advanced
// cursor.
func SelectPools(all []Candidate, params Params, cursor Cursor) (selected []Candidate, next Cursor) {
	valid := make([]Candidate, 0, len(all))
	for _, c := range all {
		if c.IsValid {
			valid = append(valid, c)
		}
	}
	sortByVotesDesc(valid)

	topN := params.ByVoteTopCount
	if topN > len(valid) {
		topN = len(valid)
	}
	top := valid[:topN]
	rest := valid[topN:]

	inTop := make(map[types.AccountUID]bool, len(top))
	for _, c := range top {
		inTop[c.UID] = true
	}

	restWeighted := make([]Candidate, 0, len(rest))
	for _, c := range rest {
		if c.TotalVotes > 0 {
			restWeighted = append(restWeighted, c)
		}
	}
	next = cursor
	voteRest := pickRoundRobin(restWeighted, params.ByVoteRestCount, &next.ByVoteTime, func(c Candidate) uint64 {
		// weight ~ 1/votes: advancing by a large constant / votes approximates
		// the virtual-time step without floating point.
		if c.TotalVotes <= 0 {
			return 1
		}
		return uint64(1 << 32 / uint64(c.TotalVotes+1))
	})

	inRestPool := make(map[types.AccountUID]bool, len(voteRest))
	for _, c := range voteRest {
		inRestPool[c.UID] = true
	}

	pledgeCandidates := make([]Candidate, 0, len(valid))
	for _, c := range valid {
		if inTop[c.UID] || inRestPool[c.UID] {
			continue
		}
		if c.AveragePledge > 0 {
			pledgeCandidates = append(pledgeCandidates, c)
		}
	}
	byPledge := pickRoundRobin(pledgeCandidates, params.ByPledgeCount, &next.ByPledgeTime, func(c Candidate) uint64 {
		return uint64(1 << 32 / uint64(c.AveragePledge+1))
	})

	selected = append(selected, top...)
	selected = append(selected, voteRest...)
	selected = append(selected, byPledge...)
	return selected, next
}

// Shuffle deterministically permutes candidates using a counter-mode stream
// keyed by seed (the previous block id). Same seed + same input order ->
// same permutation, satisfying spec §4.5's "deterministic reproducible
// schedules" without depending on the C++ PRNG's bit layout.
func Shuffle(candidates []Candidate, seed []byte) []Candidate {
	out := append([]Candidate(nil), candidates...)
	for i := len(out) - 1; i > 0; i-- {
		j := int(streamUint64(seed, uint64(i)) % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// streamUint64 derives the i-th pseudo-random counter value from seed via
// blake3(seed || i), the same dependency the teacher already carries
// (lukechampine.com/blake3) repurposed as a keyed counter-mode stream.
func streamUint64(seed []byte, i uint64) uint64 {
	buf := make([]byte, len(seed)+8)
	copy(buf, seed)
	binary.LittleEndian.PutUint64(buf[len(seed):], i)
	sum := blake3.Sum256(buf)
	return binary.LittleEndian.Uint64(sum[:8])
}

// Schedule is the rebuilt, shuffled witness list plus the slot cursor math
// needed to look up who is scheduled at a given slot.
type Schedule struct {
	Shuffled      []types.AccountUID
	CurrentASlot  uint64
}

// GetSlotAtTime implements get_slot_at_time: (t - genesis)/block_interval -
// current_aslot.
func GetSlotAtTime(t, genesis uint32, blockIntervalSeconds uint32, currentASlot uint64) int64 {
	if t < genesis {
		return 0
	}
	slot := uint64(t-genesis) / uint64(blockIntervalSeconds)
	return int64(slot) - int64(currentASlot)
}

// GetScheduledWitness implements get_scheduled_witness: the witness at
// (current_aslot + slot) mod schedule_length.
func (s Schedule) GetScheduledWitness(slot int64) (types.AccountUID, bool) {
	if len(s.Shuffled) == 0 {
		return 0, false
	}
	idx := (int64(s.CurrentASlot) + slot) % int64(len(s.Shuffled))
	if idx < 0 {
		idx += int64(len(s.Shuffled))
	}
	return s.Shuffled[idx], true
}
