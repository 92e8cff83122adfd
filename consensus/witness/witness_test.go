package witness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/consensus/schedule"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func TestValidateHeaderRejectsNonPositiveSlot(t *testing.T) {
	sched := schedule.Schedule{Shuffled: []types.AccountUID{1, 2, 3}, CurrentASlot: 10}
	h := types.BlockHeader{Timestamp: 100, Witness: 1} // genesis=100, interval=3 -> slot 0 - aslot 10 = -10

	err := ValidateHeader(h, types.Signature65{}, sched, 100, 3,
		func(types.AccountUID) (string, bool) { return "key", true },
		func(string, []byte, types.Signature65) bool { return true },
		nil,
	)
	require.ErrorIs(t, err, chainerr.ErrBadTimestamp)
}

func TestValidateHeaderRejectsWrongWitness(t *testing.T) {
	sched := schedule.Schedule{Shuffled: []types.AccountUID{1, 2, 3}, CurrentASlot: 0}
	h := types.BlockHeader{Timestamp: 109, Witness: 99} // slot = (109-100)/3 = 3

	err := ValidateHeader(h, types.Signature65{}, sched, 100, 3,
		func(types.AccountUID) (string, bool) { return "key", true },
		func(string, []byte, types.Signature65) bool { return true },
		nil,
	)
	require.Error(t, err)
}

func TestProcessMissedSlotsClearsKeyPastThreshold(t *testing.T) {
	sched := schedule.Schedule{Shuffled: []types.AccountUID{1}, CurrentASlot: 0}
	updates := ProcessMissedSlots(sched, 0, 3, func(types.AccountUID) uint64 { return 5 }, 5)
	require.Len(t, updates, 2)
	require.True(t, updates[0].ClearSigningKey)
}

func TestComputeLastIrreversibleIsMonotonic(t *testing.T) {
	active := []ConfirmedWitness{{UID: 1, LastConfirmedBlock: 100}, {UID: 2, LastConfirmedBlock: 50}, {UID: 3, LastConfirmedBlock: 80}}
	result := ComputeLastIrreversible(active, 40)
	require.GreaterOrEqual(t, result, uint32(40))

	lower := ComputeLastIrreversible(active, result+1000)
	require.Equal(t, result+1000, lower, "must never move irreversibility backward")
}
