package authority

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

type fakeLookup struct {
	active map[types.AccountUID]types.Authority
	owner  map[types.AccountUID]types.Authority
}

func (f fakeLookup) Owner(uid types.AccountUID) (types.Authority, bool) {
	a, ok := f.owner[uid]
	return a, ok
}
func (f fakeLookup) Active(uid types.AccountUID) (types.Authority, bool) {
	a, ok := f.active[uid]
	return a, ok
}
func (f fakeLookup) Secondary(uid types.AccountUID) (types.Authority, SecondaryPermission, bool) {
	return types.Authority{}, 0, false
}

func transferFrom(from types.AccountUID) []types.TaggedOperation {
	return []types.TaggedOperation{{Tag: types.OpTransfer, Payload: types.TransferOp{From: from, To: 2, Asset: 0, Amount: 100}}}
}

func TestVerifyAuthoritySingleKeySatisfies(t *testing.T) {
	lookup := fakeLookup{active: map[types.AccountUID]types.Authority{
		1: {Threshold: 1, Keys: map[string]uint32{"keyA": 1}, Accounts: map[types.AccountUID]uint32{}},
	}}
	ops := transferFrom(1)

	require.NoError(t, VerifyAuthority(ops, KeySet{"keyA": {}}, lookup, 2))
	require.Error(t, VerifyAuthority(ops, KeySet{"keyB": {}}, lookup, 2))
}

func TestVerifyAuthorityWeightedThreshold(t *testing.T) {
	lookup := fakeLookup{active: map[types.AccountUID]types.Authority{
		1: {Threshold: 3, Keys: map[string]uint32{"keyA": 1, "keyB": 2}, Accounts: map[types.AccountUID]uint32{}},
	}}
	ops := transferFrom(1)

	require.Error(t, VerifyAuthority(ops, KeySet{"keyA": {}}, lookup, 2), "weight 1 < threshold 3")
	require.NoError(t, VerifyAuthority(ops, KeySet{"keyA": {}, "keyB": {}}, lookup, 2), "weight 3 >= threshold 3")
}

func TestVerifyAuthorityWalksAccountReferences(t *testing.T) {
	lookup := fakeLookup{active: map[types.AccountUID]types.Authority{
		1: {Threshold: 1, Keys: map[string]uint32{}, Accounts: map[types.AccountUID]uint32{2: 1}},
		2: {Threshold: 1, Keys: map[string]uint32{"keyC": 1}, Accounts: map[types.AccountUID]uint32{}},
	}}
	ops := transferFrom(1)

	require.NoError(t, VerifyAuthority(ops, KeySet{"keyC": {}}, lookup, 2))
}

func TestVerifyAuthorityDepthBoundBreaksCycles(t *testing.T) {
	lookup := fakeLookup{active: map[types.AccountUID]types.Authority{
		1: {Threshold: 1, Keys: map[string]uint32{}, Accounts: map[types.AccountUID]uint32{2: 1}},
		2: {Threshold: 1, Keys: map[string]uint32{}, Accounts: map[types.AccountUID]uint32{1: 1}},
	}}
	ops := transferFrom(1)

	// Cyclic authority with no reachable key must fail, not loop forever.
	require.Error(t, VerifyAuthority(ops, KeySet{}, lookup, 4))
}

func TestCheckSecondaryPermission(t *testing.T) {
	require.True(t, CheckSecondaryPermission(SecondaryPermTransfer, types.OpTransfer))
	require.False(t, CheckSecondaryPermission(SecondaryPermPost, types.OpTransfer))
	require.False(t, CheckSecondaryPermission(SecondaryPermTransfer, types.OpWitnessCreate))
}
