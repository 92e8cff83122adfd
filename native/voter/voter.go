// Package voter implements spec §4.4's account_update_proxy rules and the
// proxied-vote propagation described for the Voter entity in §3/§4.7: proxy
// chains bounded to MaxGovernanceVotingProxyLevel hops, effective-votes
// rolling update, and effective_last_vote_block propagation.
package voter

import (
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// Lookup resolves a voter record by account uid; the running node backs
// this with core/store.
type Lookup interface {
	Voter(uid types.AccountUID) (types.Voter, bool)
}

// DetectCycle walks the proxy chain starting at start and reports whether
// it would revisit a uid within MaxGovernanceVotingProxyLevel hops — the
// precondition account_update_proxy must check before installing a new
// proxy edge (spec §4.4: "checks for proxy cycles up to
// max_governance_voting_proxy_level").
func DetectCycle(start types.AccountUID, newProxy types.AccountUID, lookup Lookup) bool {
	if newProxy == types.ProxyToSelf || newProxy == start {
		return newProxy == start
	}
	seen := map[types.AccountUID]bool{start: true}
	cur := newProxy
	for depth := 0; depth <= types.MaxGovernanceVotingProxyLevel; depth++ {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		v, ok := lookup.Voter(cur)
		if !ok || v.ProxyUID == types.ProxyToSelf {
			return false
		}
		cur = v.ProxyUID
	}
	return true // chain longer than the allowed depth counts as a cycle for rejection purposes
}

// SwitchProxy applies an account_update_proxy mutation to a voter record:
// clearing direct votes when leaving self-vote mode. It changes only v; the
// old proxy's record, including its proxied-vote counters, is not updated.
func SwitchProxy(v types.Voter, newProxy types.AccountUID, headBlock uint32) types.Voter {
	v.ProxyUID = newProxy
	if newProxy != types.ProxyToSelf {
		// Proxied voters cast no direct votes of their own (spec §3 Voter
		// invariant: "if proxy != self, direct-vote counts = 0").
		v.WitnessesVoted = 0
		v.CommitteeVoted = 0
		v.PlatformsVoted = 0
	}
	v.ProxyLastVoteBlock[0] = headBlock
	v.EffectiveLastVoteBlock = headBlock
	return v
}

// PropagateVote advances proxyLastVoteBlock[k] for every hop of a proxy
// chain when the chain's root casts a vote (spec §4.4: "proxies' [k]
// entries advance when their proxier votes"), returning the updated chain
// of voter records in root-to-leaf order for the caller to persist.
func PropagateVote(chain []types.Voter, headBlock uint32) []types.Voter {
	out := append([]types.Voter(nil), chain...)
	for k := range out {
		if k < len(out[k].ProxyLastVoteBlock) {
			out[k].ProxyLastVoteBlock[k] = headBlock
		}
		var max uint32
		for _, b := range out[k].ProxyLastVoteBlock {
			if b > max {
				max = b
			}
		}
		out[k].EffectiveLastVoteBlock = max
	}
	return out
}

// EffectiveVotesUpdate computes the scheduled weighted-average roll of a
// voter's effective_votes toward its current raw Votes (spec §4.7 step 6:
// "applies a weighted-average of old and new votes over the governance
// window").
func EffectiveVotesUpdate(v types.Voter, windowOldWeight, windowNewWeight uint64) (types.Voter, error) {
	next, err := sharemath.WeightedAverage(v.EffectiveVotes, v.Votes, windowOldWeight, windowNewWeight)
	if err != nil {
		return v, err
	}
	v.EffectiveVotes = next
	return v, nil
}

// IsExpired reports whether v's effective_last_vote_block has fallen
// behind headBlock by more than governanceVotingExpirationBlocks (spec
// §4.7 step 7).
func IsExpired(v types.Voter, headBlock uint32, governanceVotingExpirationBlocks uint32) bool {
	if headBlock < governanceVotingExpirationBlocks {
		return false
	}
	return v.EffectiveLastVoteBlock < headBlock-governanceVotingExpirationBlocks
}

// RequireMinBalance is the account_update_proxy precondition: the account
// must have can_vote permission and core_balance at least
// minGovernanceVotingBalance (spec §4.4).
func RequireMinBalance(perm types.Permission, coreBalance, minGovernanceVotingBalance types.Share) error {
	if !perm.Has(types.PermissionCanVote) {
		return chainerr.ErrEvaluation
	}
	if coreBalance < minGovernanceVotingBalance {
		return chainerr.ErrEvaluation
	}
	return nil
}
