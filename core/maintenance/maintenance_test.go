package maintenance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

type fakeState struct {
	head uint32
	dgp  types.DynamicGlobalProperties

	expiredProposal     *types.Proposal
	executedProposals   []types.InstanceID
	removedProposals    []types.InstanceID

	maturedPledges  []MaturedPledge
	appliedReleases []MaturedPledge

	budgetAdjustDue bool
	budgetSet       types.Share

	committeeUpdateDue   bool
	committeeReplaced    bool
	proposalsExpired     bool

	contentAwardDue  bool
	contentAwardRan  bool
	platformAwardDue bool
	platformAwardRan bool

	scheduleRebuildDue bool
	scheduleRebuilt    bool

	invariantDue     bool
	invariantChecked bool
}

func (f *fakeState) HeadBlockNum() uint32                        { return f.head }
func (f *fakeState) DGP() types.DynamicGlobalProperties          { return f.dgp }
func (f *fakeState) ExpiredTransactionIDs(uint32) [][32]byte     { return nil }
func (f *fakeState) ForgetTransaction([32]byte)                  {}
func (f *fakeState) ExpiredProposals(uint32) []types.Proposal {
	if f.expiredProposal == nil {
		return nil
	}
	return []types.Proposal{*f.expiredProposal}
}
func (f *fakeState) RemoveProposal(id types.InstanceID) { f.removedProposals = append(f.removedProposals, id) }
func (f *fakeState) ExecuteProposal(p types.Proposal) error {
	f.executedProposals = append(f.executedProposals, p.ID)
	return nil
}
func (f *fakeState) ExpiredScores(uint32) []types.Score { return nil }
func (f *fakeState) RemoveScore(types.ScoreKey)         {}
func (f *fakeState) MaturedPledges(uint64) []MaturedPledge { return f.maturedPledges }
func (f *fakeState) ApplyMaturedPledge(mp MaturedPledge)   { f.appliedReleases = append(f.appliedReleases, mp) }
func (f *fakeState) DueAveragePledgeUpdates(uint32) []AveragePledgeRef { return nil }
func (f *fakeState) ApplyAveragePledgeUpdate(AveragePledgeRef, types.Share) {}
func (f *fakeState) DueVoterUpdates(uint32) []types.Voter { return nil }
func (f *fakeState) SaveVoter(types.Voter)                {}
func (f *fakeState) InvalidVoters(uint32, uint32) []types.Voter { return nil }
func (f *fakeState) EraseVoter(types.AccountUID)                {}
func (f *fakeState) ResignedGovernanceVotesBatch(int) []types.Vote { return nil }
func (f *fakeState) RemoveVote(types.Vote)                         {}
func (f *fakeState) IsBudgetAdjustBlock() bool   { return f.budgetAdjustDue }
func (f *fakeState) CoreReserved() types.Share   { return 1_000_000 }
func (f *fakeState) BudgetAdjustTargetBps() uint32 { return 500 }
func (f *fakeState) BlocksPerYear() uint64       { return 10 }
func (f *fakeState) SetBudgetPerBlock(s types.Share) { f.budgetSet = s }
func (f *fakeState) IsCommitteeUpdateBlock() bool { return f.committeeUpdateDue }
func (f *fakeState) ReplaceActiveCommittee()       { f.committeeReplaced = true }
func (f *fakeState) ExpireUnapprovedCommitteeProposals(uint32) { f.proposalsExpired = true }
func (f *fakeState) ApprovedCommitteeProposalsDue(uint32) []types.CommitteeProposal { return nil }
func (f *fakeState) ExecuteCommitteeProposal(types.CommitteeProposal) error         { return nil }
func (f *fakeState) ContentAwardDue(uint32) bool { return f.contentAwardDue }
func (f *fakeState) RunContentAward() error      { f.contentAwardRan = true; return nil }
func (f *fakeState) PlatformAwardDue(uint32) bool { return f.platformAwardDue }
func (f *fakeState) RunPlatformVotedAward() error { f.platformAwardRan = true; return nil }
func (f *fakeState) IsScheduleRebuildBlock() bool { return f.scheduleRebuildDue }
func (f *fakeState) RebuildSchedule() error       { f.scheduleRebuilt = true; return nil }
func (f *fakeState) InvariantCheckDue(uint32) bool { return f.invariantDue }
func (f *fakeState) CheckAccountingIdentity() error { f.invariantChecked = true; return nil }

func TestRunExecutesAuthorizedExpiredProposalBeforeRemoving(t *testing.T) {
	fs := &fakeState{expiredProposal: &types.Proposal{ID: 7, RequiredApprovals: map[types.AccountUID]struct{}{1: {}}, AvailableApprovals: map[types.AccountUID]struct{}{1: {}}}}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.Contains(t, fs.executedProposals, types.InstanceID(7))
	require.Contains(t, fs.removedProposals, types.InstanceID(7))
}

func TestRunSkipsExecutionForUnauthorizedExpiredProposal(t *testing.T) {
	fs := &fakeState{expiredProposal: &types.Proposal{ID: 9, RequiredApprovals: map[types.AccountUID]struct{}{1: {}}, AvailableApprovals: map[types.AccountUID]struct{}{}}}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.Empty(t, fs.executedProposals)
	require.Contains(t, fs.removedProposals, types.InstanceID(9))
}

func TestRunAppliesMaturedPledges(t *testing.T) {
	fs := &fakeState{maturedPledges: []MaturedPledge{{Account: 1, Role: RoleWitness, Amount: 500}}}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.Equal(t, fs.maturedPledges, fs.appliedReleases)
}

func TestRunSkipsBudgetAdjustWhenNotDue(t *testing.T) {
	fs := &fakeState{budgetAdjustDue: false}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.Equal(t, types.Share(0), fs.budgetSet)
}

func TestRunAppliesBudgetAdjustWhenDue(t *testing.T) {
	fs := &fakeState{budgetAdjustDue: true}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.Greater(t, fs.budgetSet, types.Share(0))
}

func TestRunTriggersCommitteeUpdateAndAwardsAndScheduleAndInvariant(t *testing.T) {
	fs := &fakeState{
		committeeUpdateDue: true,
		contentAwardDue:    true,
		platformAwardDue:   true,
		scheduleRebuildDue: true,
		invariantDue:       true,
	}
	r := &Runner{State: fs}
	require.NoError(t, r.Run())
	require.True(t, fs.committeeReplaced)
	require.True(t, fs.proposalsExpired)
	require.True(t, fs.contentAwardRan)
	require.True(t, fs.platformAwardRan)
	require.True(t, fs.scheduleRebuilt)
	require.True(t, fs.invariantChecked)
}
