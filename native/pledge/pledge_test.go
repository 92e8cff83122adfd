package pledge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func TestLowerSchedulesReleaseAndRaiseCancelsIt(t *testing.T) {
	p := types.PledgeState{Total: 1000}

	p, err := Lower(p, 400, 100, 50)
	require.NoError(t, err)
	require.Equal(t, types.Share(400), p.Releasing)
	require.Equal(t, uint64(150), p.ReleaseBlock)
	require.Equal(t, types.Share(600), p.Available())

	p, err = Raise(p, 300)
	require.NoError(t, err)
	require.Equal(t, types.Share(100), p.Releasing, "raise must draw from releasing queue first")
	require.Equal(t, types.Share(1300), p.Total)
}

func TestLowerRejectsExceedingAvailable(t *testing.T) {
	p := types.PledgeState{Total: 100}
	_, err := Lower(p, 200, 1, 10)
	require.Error(t, err)
}

func TestMaturedReleaseOnlyAfterReleaseBlock(t *testing.T) {
	p := types.PledgeState{Total: 1000, Releasing: 400, ReleaseBlock: 150}

	released, next := MaturedRelease(p, 140)
	require.Equal(t, types.Share(0), released, "not yet matured")
	require.Equal(t, p, next)

	released, next = MaturedRelease(p, 150)
	require.Equal(t, types.Share(400), released)
	require.Equal(t, types.Share(600), next.Total)
	require.Equal(t, types.Share(0), next.Releasing)
}

func TestResignSchedulesFullRelease(t *testing.T) {
	p := types.PledgeState{Total: 500}
	p = Resign(p, 10, 20)
	require.Equal(t, types.Share(500), p.Releasing)
	require.Equal(t, uint64(30), p.ReleaseBlock)
}
