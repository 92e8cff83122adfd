package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func candidates() []Candidate {
	return []Candidate{
		{UID: 1, TotalVotes: 100, AveragePledge: 10, IsValid: true},
		{UID: 2, TotalVotes: 90, AveragePledge: 50, IsValid: true},
		{UID: 3, TotalVotes: 10, AveragePledge: 5, IsValid: true},
		{UID: 4, TotalVotes: 0, AveragePledge: 200, IsValid: true},
		{UID: 5, TotalVotes: 5, AveragePledge: 0, IsValid: false},
	}
}

func TestSelectPoolsTopByVotes(t *testing.T) {
	params := Params{ByVoteTopCount: 2, ByVoteRestCount: 1, ByPledgeCount: 1}
	selected, _ := SelectPools(candidates(), params, Cursor{})

	uids := make(map[types.AccountUID]bool)
	for _, c := range selected {
		uids[c.UID] = true
	}
	require.True(t, uids[1], "highest-vote witness must be in top pool")
	require.True(t, uids[2], "second highest-vote witness must be in top pool")
	require.False(t, uids[5], "invalid witness must never be selected")
}

func TestSelectPoolsExcludesZeroWeightFromRoundRobinPools(t *testing.T) {
	params := Params{ByVoteTopCount: 0, ByVoteRestCount: 10, ByPledgeCount: 10}
	selected, _ := SelectPools(candidates(), params, Cursor{})

	// With no top pool, uids 1-3 fill by-vote-rest and come first; uid 4 has
	// zero votes, so it can only follow them as the single by-pledge pick.
	require.Len(t, selected, 4)
	for _, c := range selected[:3] {
		require.NotEqual(t, types.AccountUID(4), c.UID, "zero-vote witness only eligible via by-pledge pool, not by-vote-rest")
	}
	require.Equal(t, types.AccountUID(4), selected[3].UID, "zero-vote witness with a pledge is picked by the by-pledge pool")
}

func TestShuffleIsDeterministicForSameSeed(t *testing.T) {
	cands := candidates()[:4]
	seed := []byte{1, 2, 3, 4}

	a := Shuffle(cands, seed)
	b := Shuffle(cands, seed)
	require.Equal(t, a, b, "same seed must produce same permutation")
}

func TestShuffleDiffersForDifferentSeed(t *testing.T) {
	cands := candidates()[:4]
	a := Shuffle(cands, []byte{1})
	b := Shuffle(cands, []byte{2})
	require.NotEqual(t, a, b)
}

func TestGetSlotAtTimeAndScheduledWitness(t *testing.T) {
	slot := GetSlotAtTime(1100, 1000, 3, 0)
	require.Equal(t, int64(33), slot)

	sched := Schedule{Shuffled: []types.AccountUID{10, 20, 30}, CurrentASlot: 1}
	w, ok := sched.GetScheduledWitness(2)
	require.True(t, ok)
	require.Equal(t, types.AccountUID(10), w) // (1+2) mod 3 == 0
}
