// Package authority implements get_required_signatures / verify_authority /
// get_potential_signatures over the weighted threshold account-authority
// graph (spec §4.3). Resolution walks account->account references up to a
// caller-supplied max depth, the only mechanism that breaks cycles.
package authority

import (
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// Level names which of an account's three authorities is being resolved.
// Secondary permits only a narrow operation set, gated by
// CheckSecondaryPermission.
type Level int

const (
	LevelOwner Level = iota
	LevelActive
	LevelSecondary
)

// SecondaryPermission is the bitmask of operations a secondary authority is
// allowed to sign for, per spec §4.3: "only content/forward/liked/buyout/
// comment/reward/transfer/post/content_update."
type SecondaryPermission uint32

const (
	SecondaryPermContent SecondaryPermission = 1 << iota
	SecondaryPermForward
	SecondaryPermLiked
	SecondaryPermBuyout
	SecondaryPermComment
	SecondaryPermReward
	SecondaryPermTransfer
	SecondaryPermPost
	SecondaryPermContentUpdate
)

// opSecondaryPermission maps the operations a secondary authority may cover
// to the bit it requires; operations absent from this map can never be
// signed by a secondary authority regardless of its bitmask.
var opSecondaryPermission = map[types.OpTag]SecondaryPermission{
	types.OpPost:          SecondaryPermPost,
	types.OpPostUpdate:    SecondaryPermContentUpdate,
	types.OpScoreCreate:   SecondaryPermLiked,
	types.OpReward:        SecondaryPermReward,
	types.OpRewardProxy:   SecondaryPermReward,
	types.OpBuyout:        SecondaryPermBuyout,
	types.OpTransfer:      SecondaryPermTransfer,
}

// Lookup resolves an account's three authorities and its current secondary
// permission bitmask by uid. Implemented by core/store in the running node;
// kept as an interface here so authority resolution stays a pure function
// of its inputs and is independently testable.
type Lookup interface {
	Owner(uid types.AccountUID) (types.Authority, bool)
	Active(uid types.AccountUID) (types.Authority, bool)
	Secondary(uid types.AccountUID) (types.Authority, SecondaryPermission, bool)
}

// KeySet is the set of public keys (hex compressed secp256k1) recovered
// from a transaction's signatures.
type KeySet map[string]struct{}

// Required is the result of get_required_signatures: the minimal set(s) of
// keys that would satisfy the transaction's authorities, split by whether
// they were found already present among the supplied signatures.
type Required struct {
	OwnerKeysRequired map[string]struct{}
	OtherKeysRequired map[string]struct{} // active + secondary
	ExistingSignatures map[string]struct{}
}

// weightedWalk accumulates the minimal key set whose combined weight meets
// authority.Threshold, preferring keys already in `available` (greedy
// minimization per spec §4.3), and recursing into account references up to
// maxDepth. The returned bool reports whether the keys in `available`
// (directly or through satisfied account references) meet the threshold.
func weightedWalk(a types.Authority, available KeySet, lookup Lookup, depth, maxDepth int, level Level, op types.OpTag, visiting map[types.AccountUID]bool) (map[string]struct{}, bool) {
	selected := make(map[string]struct{})
	// signed is the weight backed by available keys; total also counts the
	// unsigned keys added to the required set.
	var signed, total uint32

	// Prefer keys already signed-for.
	for key, weight := range a.Keys {
		if _, ok := available[key]; ok {
			selected[key] = struct{}{}
			signed += weight
			total += weight
			if signed >= a.Threshold {
				return selected, true
			}
		}
	}
	// Then remaining keys, in map order (deterministic enough: the result is
	// a required set, not a canonical minimum — any satisfying superset is
	// acceptable to verify_authority).
	for key, weight := range a.Keys {
		if total >= a.Threshold {
			break
		}
		if _, ok := selected[key]; ok {
			continue
		}
		selected[key] = struct{}{}
		total += weight
	}

	if depth >= maxDepth {
		return selected, false
	}

	for uid, weight := range a.Accounts {
		if visiting[uid] {
			continue
		}
		var sub types.Authority
		var ok bool
		switch level {
		case LevelOwner:
			sub, ok = lookup.Owner(uid)
		default:
			sub, ok = lookup.Active(uid)
		}
		if !ok {
			continue
		}
		visiting[uid] = true
		subKeys, satisfied := weightedWalk(sub, available, lookup, depth+1, maxDepth, LevelActive, op, visiting)
		visiting[uid] = false
		for k := range subKeys {
			selected[k] = struct{}{}
		}
		if satisfied {
			signed += weight
			if signed >= a.Threshold {
				return selected, true
			}
		}
	}
	return selected, false
}

// GetRequiredSignatures resolves the active authority of each operation's
// fee payer and returns the keys needed to satisfy it. Owner and secondary
// authorities, and accounts other than the fee payer, are not resolved, so
// OwnerKeysRequired is always empty.
func GetRequiredSignatures(ops []types.TaggedOperation, available KeySet, lookup Lookup, maxDepth int) (*Required, error) {
	result := &Required{
		OwnerKeysRequired:  make(map[string]struct{}),
		OtherKeysRequired:  make(map[string]struct{}),
		ExistingSignatures: make(map[string]struct{}),
	}
	for k := range available {
		result.ExistingSignatures[k] = struct{}{}
	}

	for _, op := range ops {
		payer := op.Payload.FeePayer()
		active, ok := lookup.Active(payer)
		if !ok {
			continue
		}
		keys, _ := weightedWalk(active, available, lookup, 0, maxDepth, LevelActive, op.Tag, map[types.AccountUID]bool{})
		for k := range keys {
			result.OtherKeysRequired[k] = struct{}{}
		}
	}
	return result, nil
}

// VerifyAuthority fails if the required set is not satisfied by the
// signatures present (spec §4.3).
func VerifyAuthority(ops []types.TaggedOperation, available KeySet, lookup Lookup, maxDepth int) error {
	for _, op := range ops {
		payer := op.Payload.FeePayer()
		active, ok := lookup.Active(payer)
		if !ok {
			return chainerr.ErrInsufficientAuthority
		}
		_, satisfied := weightedWalk(active, available, lookup, 0, maxDepth, LevelActive, op.Tag, map[types.AccountUID]bool{})
		if !satisfied {
			return chainerr.ErrInsufficientAuthority
		}
	}
	return nil
}

// GetPotentialSignatures returns the union, over any depth up to maxDepth,
// of every key that could possibly contribute to satisfying ops' required
// authorities — used by wallets to know which keys might be asked for,
// not which ones are strictly necessary.
func GetPotentialSignatures(ops []types.TaggedOperation, lookup Lookup, maxDepth int) map[string]struct{} {
	out := make(map[string]struct{})
	var walk func(a types.Authority, depth int, level Level, visiting map[types.AccountUID]bool)
	walk = func(a types.Authority, depth int, level Level, visiting map[types.AccountUID]bool) {
		for k := range a.Keys {
			out[k] = struct{}{}
		}
		if depth >= maxDepth {
			return
		}
		for uid := range a.Accounts {
			if visiting[uid] {
				continue
			}
			var sub types.Authority
			var ok bool
			switch level {
			case LevelOwner:
				sub, ok = lookup.Owner(uid)
			default:
				sub, ok = lookup.Active(uid)
			}
			if !ok {
				continue
			}
			visiting[uid] = true
			walk(sub, depth+1, LevelActive, visiting)
			visiting[uid] = false
		}
	}
	for _, op := range ops {
		if active, ok := lookup.Active(op.Payload.FeePayer()); ok {
			walk(active, 0, LevelActive, map[types.AccountUID]bool{})
		}
	}
	return out
}

// CheckSecondaryPermission reports whether a secondary authority whose
// bitmask is perms is allowed to sign for an operation tagged tag.
func CheckSecondaryPermission(perms SecondaryPermission, tag types.OpTag) bool {
	need, ok := opSecondaryPermission[tag]
	if !ok {
		return false
	}
	return perms&need != 0
}
