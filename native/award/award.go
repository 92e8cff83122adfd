// Package award implements the content-award engine (spec §4.6): the
// post/scorer pool, the platform pool, and the separate platform-voted
// award epoch. Grounded on the teacher's native/creator (engine/state-
// interface shape, ledger objects) and native/potso (piecewise CSAF
// weighting, top-K reward selection), both deleted (see DESIGN.md) once
// their concrete NHB semantics were stripped out; only the shapes survive.
package award

import (
	"sort"

	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// ScorerRatioBps is the fixed scorer share of post earnings before
// receiptor-modulus discounting (spec §4.6 step 4: "scorers get SCORE_RATIO
// (20%)").
const ScorerRatioBps = 2000

// Params bundles the committee-voted content-award parameters this engine
// needs; the running node populates it from native/params each epoch.
type Params struct {
	TotalContentAwardAmount types.Share
	MinEffectiveCSAF        types.Share
	CSAFModulusBps          uint32 // approval_amount scaling
	ReceiptorAwardModulusBps uint32 // discount applied to receiptor share when approval is negative
	DisapproveAwardModulusBps uint32
	ApprovalCSAFFirstRateBps  uint32 // piecewise scorer-weight breakpoints, bps of total effective csaf
	ApprovalCSAFSecondRateBps uint32
	ApprovalCSAFMinWeightBps  uint32
}

// PostInput is the per-active-post data the engine needs: its total CSAF,
// the scores cast against it, and its current receiptor table.
type PostInput struct {
	Key        types.PostKey
	TotalCSAF  types.Share
	Scores     []types.Score
	Receiptors []types.ReceiptorEntry
}

// PostResult is one post's computed payout: per-scorer amounts and
// per-receiptor amounts, all denominated in the core asset.
type PostResult struct {
	Key              types.PostKey
	ScorerPayouts    map[types.AccountUID]types.Share
	ReceiptorPayouts map[types.AccountUID]types.Share
}

// approvalAmount computes step 1: Σ score.csaf * score/5 * casf_modulus/100%.
func approvalAmount(scores []types.Score, modulusBps uint32) (types.Share, error) {
	var total types.Share
	for _, sc := range scores {
		// score.csaf * score / 5, then * modulus / 10000.
		numerator, err := sharemath.MulDiv(sc.CSAF, types.Share(sc.Value), 5)
		if err != nil {
			return 0, err
		}
		scaled, err := sharemath.MulBps(numerator, modulusBps)
		if err != nil {
			return 0, err
		}
		total, err = sharemath.Add(total, scaled)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// scorerWeight implements step 6's piecewise-linear weighting: full weight
// below the first breakpoint, linearly decreasing to min_weight between the
// first and second breakpoints, flat at min_weight beyond.
func scorerWeight(csaf, totalEffectiveCSAF types.Share, p Params) uint32 {
	if totalEffectiveCSAF <= 0 {
		return 0
	}
	shareBps := uint32((int64(csaf) * 10000) / int64(totalEffectiveCSAF))
	switch {
	case shareBps <= p.ApprovalCSAFFirstRateBps:
		return 10000
	case shareBps >= p.ApprovalCSAFSecondRateBps:
		return p.ApprovalCSAFMinWeightBps
	default:
		span := p.ApprovalCSAFSecondRateBps - p.ApprovalCSAFFirstRateBps
		if span == 0 {
			return p.ApprovalCSAFMinWeightBps
		}
		progress := shareBps - p.ApprovalCSAFFirstRateBps
		drop := 10000 - p.ApprovalCSAFMinWeightBps
		return 10000 - (drop * progress / span)
	}
}

// SettlePost runs spec §4.6 steps 1-6 for a single active post whose
// TotalCSAF meets MinEffectiveCSAF, given its share of the period's total
// effective CSAF across all qualifying posts (effectiveCSAFShareBps).
func SettlePost(in PostInput, p Params, effectiveCSAFShareBps uint32) (*PostResult, error) {
	if in.TotalCSAF < p.MinEffectiveCSAF {
		return nil, nil
	}
	approval, err := approvalAmount(in.Scores, p.CSAFModulusBps)
	if err != nil {
		return nil, err
	}
	effectiveCSAF, err := sharemath.Add(in.TotalCSAF, approval)
	if err != nil {
		return nil, err
	}

	postEarning, err := sharemath.MulBps(p.TotalContentAwardAmount, effectiveCSAFShareBps)
	if err != nil {
		return nil, err
	}

	scorerPool, err := sharemath.MulBps(postEarning, ScorerRatioBps)
	if err != nil {
		return nil, err
	}
	receiptorPool, err := sharemath.Sub(postEarning, scorerPool)
	if err != nil {
		return nil, err
	}
	if approval < 0 {
		receiptorPool, err = sharemath.MulBps(receiptorPool, p.ReceiptorAwardModulusBps)
		if err != nil {
			return nil, err
		}
	}

	result := &PostResult{Key: in.Key, ScorerPayouts: map[types.AccountUID]types.Share{}, ReceiptorPayouts: map[types.AccountUID]types.Share{}}

	for _, r := range in.Receiptors {
		amt, err := sharemath.MulBps(receiptorPool, r.Ratio)
		if err != nil {
			return nil, err
		}
		result.ReceiptorPayouts[r.Account] = amt
	}

	for _, sc := range in.Scores {
		weightBps := scorerWeight(sc.CSAF, effectiveCSAF, p)
		base, err := sharemath.MulDiv(scorerPool, sc.CSAF, effectiveCSAF)
		if err != nil {
			continue
		}
		amt, err := sharemath.MulBps(base, weightBps)
		if err != nil {
			continue
		}
		if sc.Value < 0 {
			amt, err = sharemath.MulBps(amt, p.DisapproveAwardModulusBps)
			if err != nil {
				continue
			}
		}
		result.ScorerPayouts[sc.Key.FromAccount] = amt
	}

	return result, nil
}

// PlatformCSAFSpend is one platform's total CSAF spent on its active posts
// in the settling period, the basis for the platform pool's pro-rata split
// (spec §4.6 "Platform pool").
type PlatformCSAFSpend struct {
	Platform types.AccountUID
	CSAF     types.Share
}

// SettlePlatformPool distributes totalPlatformAward pro-rata by CSAF spend.
func SettlePlatformPool(spends []PlatformCSAFSpend, totalPlatformAward types.Share) (map[types.AccountUID]types.Share, error) {
	var total types.Share
	for _, s := range spends {
		var err error
		total, err = sharemath.Add(total, s.CSAF)
		if err != nil {
			return nil, err
		}
	}
	out := make(map[types.AccountUID]types.Share, len(spends))
	if total == 0 {
		return out, nil
	}
	for _, s := range spends {
		amt, err := sharemath.MulDiv(totalPlatformAward, s.CSAF, total)
		if err != nil {
			return nil, err
		}
		out[s.Platform] = amt
	}
	return out, nil
}

// PlatformVote is a platform's vote total, for the platform-voted award.
type PlatformVote struct {
	Platform   types.AccountUID
	TotalVotes types.Share
}

// SettlePlatformVotedAward picks the top requestedRank platforms with
// TotalVotes >= minVotes, splits basicRate equally and the rest pro-rata by
// votes (spec §4.6 "Platform-voted award").
func SettlePlatformVotedAward(votes []PlatformVote, requestedRank int, minVotes types.Share, totalAward, basicRate types.Share) (map[types.AccountUID]types.Share, error) {
	eligible := make([]PlatformVote, 0, len(votes))
	for _, v := range votes {
		if v.TotalVotes >= minVotes {
			eligible = append(eligible, v)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].TotalVotes != eligible[j].TotalVotes {
			return eligible[i].TotalVotes > eligible[j].TotalVotes
		}
		return eligible[i].Platform < eligible[j].Platform
	})
	if requestedRank < len(eligible) {
		eligible = eligible[:requestedRank]
	}

	out := make(map[types.AccountUID]types.Share, len(eligible))
	if len(eligible) == 0 {
		return out, nil
	}

	basicShare, err := sharemath.MulDiv(basicRate, 1, types.Share(len(eligible)))
	if err != nil {
		return nil, err
	}
	proRataPool, err := sharemath.Sub(totalAward, basicRate)
	if err != nil {
		return nil, err
	}
	var totalVotes types.Share
	for _, v := range eligible {
		totalVotes, err = sharemath.Add(totalVotes, v.TotalVotes)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range eligible {
		amt := basicShare
		if totalVotes > 0 {
			proRata, err := sharemath.MulDiv(proRataPool, v.TotalVotes, totalVotes)
			if err != nil {
				return nil, err
			}
			amt, err = sharemath.Add(amt, proRata)
			if err != nil {
				return nil, err
			}
		}
		out[v.Platform] = amt
	}
	return out, nil
}
