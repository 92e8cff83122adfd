// Package maintenance runs the periodic per-block maintenance pass, in the
// exact order spec §4.7 lists (steps 1-15). Each step is implemented as a
// method on Runner so tests can exercise one step in isolation; Run chains
// them in order at the tail of block application.
package maintenance

import (
	"log/slog"
	"sync"

	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/voter"
	"github.com/yoyow-org/yoyow-core-sub001/observability/logging"
)

// defaultLogger is the maintenance package's fallback logger, built through
// observability/logging.Setup so every Runner logs through the same JSON
// handler and key renames as the rest of the node even when its caller
// never sets Runner.Log explicitly.
var defaultLogger = sync.OnceValue(func() *slog.Logger {
	return logging.Setup("yoyow-maintenance", "")
})

// State is the minimal surface maintenance needs from the object store. The
// running node satisfies it with a thin adapter over core/store's tables;
// keeping it as an interface here lets each step be tested against a fake.
type State interface {
	HeadBlockNum() uint32
	DGP() types.DynamicGlobalProperties

	ExpiredTransactionIDs(headTime uint32) [][32]byte
	ForgetTransaction([32]byte)

	ExpiredProposals(headTime uint32) []types.Proposal
	RemoveProposal(types.InstanceID)
	ExecuteProposal(types.Proposal) error

	ExpiredScores(headTime uint32) []types.Score
	RemoveScore(types.ScoreKey)

	// MaturedPledges returns every pledge release that has crossed its
	// release block as of currentBlock, already computed via
	// native/pledge.MaturedRelease by the adapter.
	MaturedPledges(currentBlock uint64) []MaturedPledge
	ApplyMaturedPledge(MaturedPledge)

	DueAveragePledgeUpdates(headBlock uint32) []AveragePledgeRef
	ApplyAveragePledgeUpdate(AveragePledgeRef, types.Share)

	DueVoterUpdates(headBlock uint32) []types.Voter
	SaveVoter(types.Voter)

	InvalidVoters(headBlock uint32, governanceVotingExpirationBlocks uint32) []types.Voter
	EraseVoter(types.AccountUID)

	ResignedGovernanceVotesBatch(max int) []types.Vote
	RemoveVote(types.Vote)

	IsBudgetAdjustBlock() bool
	CoreReserved() types.Share
	BudgetAdjustTargetBps() uint32
	BlocksPerYear() uint64
	SetBudgetPerBlock(types.Share)

	IsCommitteeUpdateBlock() bool
	ReplaceActiveCommittee()
	ExpireUnapprovedCommitteeProposals(headBlock uint32)

	ApprovedCommitteeProposalsDue(headBlock uint32) []types.CommitteeProposal
	ExecuteCommitteeProposal(types.CommitteeProposal) error

	ContentAwardDue(headTime uint32) bool
	RunContentAward() error
	PlatformAwardDue(headTime uint32) bool
	RunPlatformVotedAward() error

	IsScheduleRebuildBlock() bool
	RebuildSchedule() error

	InvariantCheckDue(headBlock uint32) bool
	CheckAccountingIdentity() error
}

// MaturedPledge is one completed pledge release, ready to be credited back
// to the owning account's available balance.
type MaturedPledge struct {
	Account types.AccountUID
	Role    PledgeRole
	Amount  types.Share
}

// PledgeRole distinguishes the three pledge-backed governance roles sharing
// the native/pledge state machine.
type PledgeRole int

const (
	RoleWitness PledgeRole = iota
	RoleCommittee
	RolePlatform
)

// AveragePledgeRef identifies an account/role whose rolling average-pledge
// update is due.
type AveragePledgeRef struct {
	Account types.AccountUID
	Role    PledgeRole
	Current types.Share
}

// Runner executes the ordered maintenance steps against a State.
type Runner struct {
	State State
	Log   *slog.Logger

	GovernanceVotingExpirationBlocks uint32
	VoteCleanupBatchSize             int
}

// log returns r.Log if the caller set one, otherwise the package's shared
// default logger.
func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return defaultLogger()
}

// Run executes every step of spec §4.7 in order, returning on the first
// error (maintenance failures are internal-invariant class per §7: fatal).
func (r *Runner) Run() error {
	head := r.State.HeadBlockNum()
	dgp := r.State.DGP()

	r.clearExpiredTransactions(dgp.Time)
	if err := r.clearExpiredProposals(dgp.Time); err != nil {
		return err
	}
	r.clearExpiredScores(dgp.Time)
	r.releaseMaturedPledges(uint64(head))
	r.updateAveragePledges(head)
	r.updateVoterEffectiveVotes(head)
	r.invalidateExpiredVoters(head)
	r.processInvalidVoters(head)
	r.cleanupResignedVotes()
	r.budgetAdjust()
	r.committeeUpdate(head)
	if err := r.executeApprovedCommitteeProposals(head); err != nil {
		return err
	}
	if err := r.runAwards(dgp.Time); err != nil {
		return err
	}
	if err := r.scheduleUpdate(); err != nil {
		return err
	}
	if err := r.invariantCheck(head); err != nil {
		return err
	}
	return nil
}

// Step 1.
func (r *Runner) clearExpiredTransactions(headTime uint32) {
	for _, id := range r.State.ExpiredTransactionIDs(headTime) {
		r.State.ForgetTransaction(id)
	}
}

// Step 2: if an expired proposal becomes authorized at the moment of
// expiration, apply it first, then remove it either way. ExpirationTime is
// seconds since epoch (types.Proposal), so this runs off head time, not
// head block, as steps 1, 3 and 13 also do.
func (r *Runner) clearExpiredProposals(headTime uint32) error {
	for _, p := range r.State.ExpiredProposals(headTime) {
		if p.IsAuthorized() {
			if err := r.State.ExecuteProposal(p); err != nil {
				return err
			}
		}
		r.State.RemoveProposal(p.ID)
	}
	return nil
}

// Step 3.
func (r *Runner) clearExpiredScores(headTime uint32) {
	for _, sc := range r.State.ExpiredScores(headTime) {
		r.State.RemoveScore(sc.Key)
	}
}

// Step 4.
func (r *Runner) releaseMaturedPledges(currentBlock uint64) {
	for _, mp := range r.State.MaturedPledges(currentBlock) {
		r.State.ApplyMaturedPledge(mp)
	}
}

// Step 5.
func (r *Runner) updateAveragePledges(headBlock uint32) {
	for _, ref := range r.State.DueAveragePledgeUpdates(headBlock) {
		r.State.ApplyAveragePledgeUpdate(ref, ref.Current)
	}
}

// Step 6.
func (r *Runner) updateVoterEffectiveVotes(headBlock uint32) {
	for _, v := range r.State.DueVoterUpdates(headBlock) {
		updated, err := voter.EffectiveVotesUpdate(v, 1, 1)
		if err != nil {
			r.log().Warn("skipping voter effective-votes update", "voter", v.UID, "err", err)
			continue
		}
		r.State.SaveVoter(updated)
	}
}

// Step 7.
func (r *Runner) invalidateExpiredVoters(headBlock uint32) {
	for _, v := range r.State.InvalidVoters(headBlock, r.GovernanceVotingExpirationBlocks) {
		v.IsValid = false
		r.State.SaveVoter(v)
	}
}

// Step 8: erase invalid voters. Voter carries no proxied-voter count, so the
// record of the proxy an erased voter delegated to is left unchanged.
func (r *Runner) processInvalidVoters(headBlock uint32) {
	for _, v := range r.State.InvalidVoters(headBlock, r.GovernanceVotingExpirationBlocks) {
		if !v.IsValid {
			r.State.EraseVoter(v.UID)
		}
	}
}

// Step 9.
func (r *Runner) cleanupResignedVotes() {
	batch := r.VoteCleanupBatchSize
	if batch <= 0 {
		batch = 100
	}
	for _, v := range r.State.ResignedGovernanceVotesBatch(batch) {
		r.State.RemoveVote(v)
	}
}

// Step 10.
func (r *Runner) budgetAdjust() {
	if !r.State.IsBudgetAdjustBlock() {
		return
	}
	perBlock, err := sharemath.MulBps(r.State.CoreReserved(), r.State.BudgetAdjustTargetBps())
	if err != nil {
		return
	}
	years := r.State.BlocksPerYear()
	if years == 0 {
		return
	}
	perBlock, err = sharemath.MulDiv(perBlock, 1, types.Share(years))
	if err != nil {
		return
	}
	r.State.SetBudgetPerBlock(perBlock)
}

// Step 11.
func (r *Runner) committeeUpdate(headBlock uint32) {
	if !r.State.IsCommitteeUpdateBlock() {
		return
	}
	r.State.ReplaceActiveCommittee()
	r.State.ExpireUnapprovedCommitteeProposals(headBlock)
}

// Step 12.
func (r *Runner) executeApprovedCommitteeProposals(headBlock uint32) error {
	for _, cp := range r.State.ApprovedCommitteeProposalsDue(headBlock) {
		if err := r.State.ExecuteCommitteeProposal(cp); err != nil {
			return err
		}
	}
	return nil
}

// Step 13.
func (r *Runner) runAwards(headTime uint32) error {
	if r.State.ContentAwardDue(headTime) {
		if err := r.State.RunContentAward(); err != nil {
			return err
		}
	}
	if r.State.PlatformAwardDue(headTime) {
		if err := r.State.RunPlatformVotedAward(); err != nil {
			return err
		}
	}
	return nil
}

// Step 14.
func (r *Runner) scheduleUpdate() error {
	if !r.State.IsScheduleRebuildBlock() {
		return nil
	}
	return r.State.RebuildSchedule()
}

// Step 15.
func (r *Runner) invariantCheck(headBlock uint32) error {
	if !r.State.InvariantCheckDue(headBlock) {
		return nil
	}
	return r.State.CheckAccountingIdentity()
}
