package award

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func baseParams() Params {
	return Params{
		TotalContentAwardAmount:   1_000_000,
		MinEffectiveCSAF:          100,
		CSAFModulusBps:            10000,
		ReceiptorAwardModulusBps:  5000,
		DisapproveAwardModulusBps: 5000,
		ApprovalCSAFFirstRateBps:  3000,
		ApprovalCSAFSecondRateBps: 7000,
		ApprovalCSAFMinWeightBps:  2000,
	}
}

func TestSettlePostBelowMinEffectiveCSAFIsSkipped(t *testing.T) {
	in := PostInput{TotalCSAF: 10}
	result, err := SettlePost(in, baseParams(), 10000)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestSettlePostSplitsScorerAndReceiptorPools(t *testing.T) {
	in := PostInput{
		Key:       types.PostKey{Platform: 1, Poster: 2, PID: 1},
		TotalCSAF: 1000,
		Scores: []types.Score{
			{Key: types.ScoreKey{FromAccount: 10}, Value: 5, CSAF: 500},
		},
		Receiptors: []types.ReceiptorEntry{
			{Account: 1, Ratio: types.PlatformReceiptorRatio},
			{Account: 2, Ratio: 7000},
		},
	}
	result, err := SettlePost(in, baseParams(), 10000)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Greater(t, result.ScorerPayouts[10], types.Share(0))
	require.Greater(t, result.ReceiptorPayouts[1], types.Share(0))
	require.Greater(t, result.ReceiptorPayouts[2], types.Share(0))
}

func TestSettlePostAppliesReceiptorModulusOnNegativeApproval(t *testing.T) {
	p := baseParams()
	negIn := PostInput{
		TotalCSAF: 1000,
		Scores:    []types.Score{{Key: types.ScoreKey{FromAccount: 10}, Value: -5, CSAF: 500}},
		Receiptors: []types.ReceiptorEntry{{Account: 1, Ratio: 10000}},
	}
	posIn := negIn
	posIn.Scores = []types.Score{{Key: types.ScoreKey{FromAccount: 10}, Value: 5, CSAF: 500}}

	negResult, err := SettlePost(negIn, p, 10000)
	require.NoError(t, err)
	posResult, err := SettlePost(posIn, p, 10000)
	require.NoError(t, err)

	require.Less(t, negResult.ReceiptorPayouts[1], posResult.ReceiptorPayouts[1], "negative net approval must discount the receiptor pool")
}

func TestSettlePlatformPoolProRata(t *testing.T) {
	spends := []PlatformCSAFSpend{{Platform: 1, CSAF: 300}, {Platform: 2, CSAF: 700}}
	out, err := SettlePlatformPool(spends, 1000)
	require.NoError(t, err)
	require.Equal(t, types.Share(300), out[1])
	require.Equal(t, types.Share(700), out[2])
}

func TestSettlePlatformVotedAwardFiltersAndRanks(t *testing.T) {
	votes := []PlatformVote{
		{Platform: 1, TotalVotes: 1000},
		{Platform: 2, TotalVotes: 10}, // below minVotes, excluded
		{Platform: 3, TotalVotes: 500},
	}
	out, err := SettlePlatformVotedAward(votes, 2, 100, 1000, 200)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Contains(t, out, types.AccountUID(1))
	require.Contains(t, out, types.AccountUID(3))
	require.NotContains(t, out, types.AccountUID(2))
	require.Greater(t, out[1], out[3], "platform with more votes earns a larger pro-rata share")
}
