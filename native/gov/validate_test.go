package gov

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
)

func itemFor(t *testing.T, kind types.CommitteeProposalItemKind, value any) types.CommitteeProposalItem {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return types.CommitteeProposalItem{Kind: kind, Value: raw}
}

func TestPreflightAppliesValidWitnessParams(t *testing.T) {
	item := itemFor(t, types.CommitteeItemWitnessParams, params.WitnessParams{
		ByVoteTopCount:      11,
		ByVoteRestCount:     5,
		ByPledgeCount:       5,
		SlotIntervalSeconds: 3,
		MaxMissedSlots:      50,
	})
	out, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{item})
	require.NoError(t, err)
	require.Equal(t, 11, out.Witness.ByVoteTopCount)
}

func TestPreflightRejectsZeroSlotInterval(t *testing.T) {
	item := itemFor(t, types.CommitteeItemWitnessParams, params.WitnessParams{
		ByVoteTopCount: 11, SlotIntervalSeconds: 0, MaxMissedSlots: 10,
	})
	_, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{item})
	require.Error(t, err)
}

func TestPreflightRejectsOutOfRangeContentAwardBps(t *testing.T) {
	item := itemFor(t, types.CommitteeItemContentAwardParams, params.ContentAwardParams{
		CSAFModulusBps: 20000,
	})
	_, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{item})
	require.Error(t, err)
}

func TestPreflightRejectsInvertedApprovalRates(t *testing.T) {
	item := itemFor(t, types.CommitteeItemContentAwardParams, params.ContentAwardParams{
		ApprovalCSAFFirstRateBps:  8000,
		ApprovalCSAFSecondRateBps: 3000,
	})
	_, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{item})
	require.Error(t, err)
}

func TestPreflightRejectsRegistrarTakeoverToSelf(t *testing.T) {
	item := itemFor(t, types.CommitteeItemRegistrarTakeover, params.RegistrarTakeoverParams{
		OldRegistrar: 1, NewRegistrar: 1,
	})
	_, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{item})
	require.Error(t, err)
}

func TestPreflightStopsAtFirstInvalidItemAndLeavesBaselineFromPriorValidItems(t *testing.T) {
	good := itemFor(t, types.CommitteeItemMaintenanceParams, params.MaintenanceParams{
		BudgetAdjustIntervalBlocks:    100,
		CommitteeUpdateIntervalBlocks: 100,
		ScheduleRebuildIntervalBlocks: 100,
		BudgetAdjustTargetBps:         500,
		BlocksPerYear:                 1000,
	})
	bad := itemFor(t, types.CommitteeItemMaintenanceParams, params.MaintenanceParams{
		BudgetAdjustIntervalBlocks: 0,
	})
	out, err := PreflightCommitteeProposal(Baseline{}, []types.CommitteeProposalItem{good, bad})
	require.Error(t, err)
	require.Equal(t, uint32(100), out.Maintenance.BudgetAdjustIntervalBlocks)
}
