package voter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

type fakeLookup map[types.AccountUID]types.Voter

func (f fakeLookup) Voter(uid types.AccountUID) (types.Voter, bool) {
	v, ok := f[uid]
	return v, ok
}

func TestDetectCycleSelfProxy(t *testing.T) {
	require.False(t, DetectCycle(1, types.ProxyToSelf, fakeLookup{}))
}

func TestDetectCycleDirectSelfReference(t *testing.T) {
	require.True(t, DetectCycle(1, 1, fakeLookup{}))
}

func TestDetectCycleThroughChain(t *testing.T) {
	lookup := fakeLookup{
		2: {UID: 2, ProxyUID: 3},
		3: {UID: 3, ProxyUID: 1}, // closes the loop back to the proposer
	}
	require.True(t, DetectCycle(1, 2, lookup))
}

func TestDetectCycleAcceptsValidChain(t *testing.T) {
	lookup := fakeLookup{
		2: {UID: 2, ProxyUID: 3},
		3: {UID: 3, ProxyUID: types.ProxyToSelf},
	}
	require.False(t, DetectCycle(1, 2, lookup))
}

func TestSwitchProxyClearsDirectVotesWhenDelegating(t *testing.T) {
	v := types.Voter{UID: 1, WitnessesVoted: 5, CommitteeVoted: 2}
	v = SwitchProxy(v, 9, 100)
	require.Equal(t, uint16(0), v.WitnessesVoted)
	require.Equal(t, types.AccountUID(9), v.ProxyUID)
	require.Equal(t, uint32(100), v.EffectiveLastVoteBlock)
}

func TestIsExpired(t *testing.T) {
	v := types.Voter{EffectiveLastVoteBlock: 100}
	require.False(t, IsExpired(v, 150, 100))
	require.True(t, IsExpired(v, 250, 100))
}

func TestRequireMinBalance(t *testing.T) {
	require.Error(t, RequireMinBalance(0, 1000, 100))
	require.Error(t, RequireMinBalance(types.PermissionCanVote, 50, 100))
	require.NoError(t, RequireMinBalance(types.PermissionCanVote, 100, 100))
}
