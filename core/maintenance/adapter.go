package maintenance

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/yoyow-org/yoyow-core-sub001/consensus/schedule"
	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/events"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/award"
	"github.com/yoyow-org/yoyow-core-sub001/native/gov"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
	"github.com/yoyow-org/yoyow-core-sub001/native/pledge"
	"github.com/yoyow-org/yoyow-core-sub001/native/voter"
	"github.com/yoyow-org/yoyow-core-sub001/observability"
)

// Adapter is the concrete maintenance.State the running node wires into
// Runner: every method reads or mutates core/store through core/evaluator's
// Tables, inside whatever undo session the block pipeline already has open
// for the block that triggers maintenance (Adapter opens none of its own,
// the same "caller owns the session" contract core/tx.Pipeline uses).
//
// Several interface methods have no error return (Runner's loops call them
// unconditionally), so failures are recorded on err instead of surfacing
// immediately; the block pipeline must check Err() after Runner.Run returns
// and treat a non-nil value the same as a returned error.
type Adapter struct {
	Store  *store.Store
	Tables *evaluator.Tables
	Params *params.Store
	Log    *slog.Logger

	// CommitteeSize bounds how many committee members ReplaceActiveCommittee
	// keeps active. There is no dedicated committee-size chain parameter
	// (see DESIGN.md); this reuses the witness schedule's two vote-ranked
	// pool sizes as a stand-in when left zero.
	CommitteeSize int

	err error
}

func (a *Adapter) warn(msg string, args ...any) {
	log := a.Log
	if log == nil {
		log = defaultLogger()
	}
	log.Warn(msg, args...)
}

func (a *Adapter) recordErr(err error) {
	if err == nil {
		return
	}
	a.warn("maintenance step failed", "err", err)
	if a.err == nil {
		a.err = err
	}
}

// Err returns the first error recorded by a method with no error return of
// its own, or nil if every step so far has succeeded.
func (a *Adapter) Err() error { return a.err }

func (a *Adapter) DGP() types.DynamicGlobalProperties {
	dgp, err := a.Tables.DGP()
	if err != nil {
		a.recordErr(err)
		return types.DynamicGlobalProperties{}
	}
	return dgp
}

func (a *Adapter) HeadBlockNum() uint32 { return a.DGP().HeadBlockNum }

func (a *Adapter) evalContext() *evaluator.Context {
	dgp := a.DGP()
	return &evaluator.Context{
		Store:      a.Store,
		Tables:     a.Tables,
		ParamStore: a.Params,
		Events:     events.NoopEmitter{},
		HeadBlock:  dgp.HeadBlockNum,
		HeadTime:   dgp.Time,
	}
}

// Step 1: transaction dedup window.
func (a *Adapter) ExpiredTransactionIDs(headTime uint32) [][32]byte {
	ids, err := a.Store.ExpiredTransactionIDs(headTime)
	if err != nil {
		a.recordErr(err)
		return nil
	}
	return ids
}

func (a *Adapter) ForgetTransaction(id [32]byte) {
	a.recordErr(a.Store.ForgetTransaction(id))
}

// Step 2: proposal expiration/execution. ExpirationTime is seconds since
// epoch (types.Proposal), so this runs off head time even though the
// State/Runner plumbing names the parameter headTime for exactly that
// reason (see core/maintenance/maintenance.go).
func (a *Adapter) ExpiredProposals(headTime uint32) []types.Proposal {
	var due []types.Proposal
	err := a.Tables.Proposal.All(func(id types.InstanceID, p types.Proposal) error {
		if p.ExpirationTime <= headTime {
			p.ID = id
			due = append(due, p)
		}
		return nil
	})
	a.recordErr(err)
	return due
}

func (a *Adapter) RemoveProposal(id types.InstanceID) {
	a.recordErr(a.Tables.Proposal.Remove(id))
}

func (a *Adapter) ExecuteProposal(p types.Proposal) error {
	ctx := a.evalContext()
	for i, op := range p.Operations {
		if err := evaluator.Apply(ctx, op.Payload); err != nil {
			return &chainerr.EvaluatorError{OpIndex: i, Evaluator: "proposal_execute", Err: err}
		}
	}
	return nil
}

// Step 3: score expiration.
func (a *Adapter) ExpiredScores(headTime uint32) []types.Score {
	var due []types.Score
	err := a.Tables.Score.All(func(_ types.InstanceID, sc types.Score) error {
		if sc.ExpiresAt <= headTime {
			due = append(due, sc)
		}
		return nil
	})
	a.recordErr(err)
	return due
}

func (a *Adapter) RemoveScore(key types.ScoreKey) {
	id, ok, err := a.Tables.ScoreID(key)
	if err != nil {
		a.recordErr(err)
		return
	}
	if !ok {
		return
	}
	a.recordErr(a.Tables.Score.Remove(id))
}

// Step 4: matured pledge release.
func (a *Adapter) MaturedPledges(currentBlock uint64) []MaturedPledge {
	var out []MaturedPledge
	err := a.Tables.AccountStatistics.All(func(_ types.InstanceID, st types.AccountStatistics) error {
		for _, ref := range []struct {
			role PledgeRole
			p    types.PledgeState
		}{
			{RoleWitness, st.WitnessPledge},
			{RoleCommittee, st.CommitteePledge},
			{RolePlatform, st.PlatformPledge},
		} {
			released, _ := pledge.MaturedRelease(ref.p, currentBlock)
			if released > 0 {
				out = append(out, MaturedPledge{Account: st.Owner, Role: ref.role, Amount: released})
			}
		}
		return nil
	})
	a.recordErr(err)
	return out
}

func (a *Adapter) ApplyMaturedPledge(mp MaturedPledge) {
	_, err := a.Tables.AccountStatistics.Modify(types.InstanceID(mp.Account), func(st *types.AccountStatistics) {
		p := pledgeFieldFor(st, mp.Role)
		released, next := pledge.MaturedRelease(*p, uint64(a.HeadBlockNum()))
		*p = next
		st.CoreBalance += released
	})
	a.recordErr(err)
}

func pledgeFieldFor(st *types.AccountStatistics, role PledgeRole) *types.PledgeState {
	switch role {
	case RoleWitness:
		return &st.WitnessPledge
	case RoleCommittee:
		return &st.CommitteePledge
	default:
		return &st.PlatformPledge
	}
}

// pledgeUpdateWindowBlocks spaces consecutive average-pledge/effective-vote
// recomputations; there is no dedicated chain parameter for this cadence
// (see DESIGN.md).
const pledgeUpdateWindowBlocks = 28800

// Step 5: rolling average-pledge updates (witnesses and platforms; committee
// members carry no average-pledge figure, spec §3).
func (a *Adapter) DueAveragePledgeUpdates(headBlock uint32) []AveragePledgeRef {
	var out []AveragePledgeRef
	err := a.Tables.Witness.All(func(_ types.InstanceID, w types.Witness) error {
		if w.AveragePledgeNextUpdate <= headBlock {
			out = append(out, AveragePledgeRef{Account: w.Account, Role: RoleWitness, Current: w.Pledge})
		}
		return nil
	})
	if err != nil {
		a.recordErr(err)
		return out
	}
	err = a.Tables.Platform.All(func(_ types.InstanceID, p types.Platform) error {
		if p.AveragePledgeNextUpdate <= headBlock {
			out = append(out, AveragePledgeRef{Account: p.Owner, Role: RolePlatform, Current: p.Pledge})
		}
		return nil
	})
	a.recordErr(err)
	return out
}

func (a *Adapter) ApplyAveragePledgeUpdate(ref AveragePledgeRef, current types.Share) {
	switch ref.Role {
	case RoleWitness:
		id, ok, err := a.Tables.WitnessIDByAccount(ref.Account)
		if err != nil || !ok {
			a.recordErr(err)
			return
		}
		_, err = a.Tables.Witness.Modify(id, func(cur *types.Witness) {
			next, avgErr := pledge.AveragePledgeStep(cur.AveragePledge, current, 1, 1)
			if avgErr != nil {
				a.recordErr(avgErr)
				return
			}
			cur.AveragePledge = next
			cur.AveragePledgeNextUpdate += pledgeUpdateWindowBlocks
		})
		a.recordErr(err)
	case RolePlatform:
		id, ok, err := a.Tables.PlatformIDByAccount(ref.Account)
		if err != nil || !ok {
			a.recordErr(err)
			return
		}
		_, err = a.Tables.Platform.Modify(id, func(cur *types.Platform) {
			next, avgErr := pledge.AveragePledgeStep(cur.AveragePledge, current, 1, 1)
			if avgErr != nil {
				a.recordErr(avgErr)
				return
			}
			cur.AveragePledge = next
			cur.AveragePledgeNextUpdate += pledgeUpdateWindowBlocks
		})
		a.recordErr(err)
	}
}

// Step 6: voter effective-votes roll.
func (a *Adapter) DueVoterUpdates(headBlock uint32) []types.Voter {
	var out []types.Voter
	err := a.Tables.Voter.All(func(_ types.InstanceID, v types.Voter) error {
		if v.IsValid && v.EffectiveVotesNextUpdate <= headBlock {
			out = append(out, v)
		}
		return nil
	})
	a.recordErr(err)
	return out
}

func (a *Adapter) SaveVoter(v types.Voter) {
	id, ok, err := a.Tables.VoterIDByAccount(v.UID)
	if err != nil {
		a.recordErr(err)
		return
	}
	if !ok {
		a.recordErr(fmt.Errorf("maintenance: save voter %d: %w", v.UID, chainerr.ErrNotFound))
		return
	}
	v.EffectiveVotesNextUpdate = a.HeadBlockNum() + pledgeUpdateWindowBlocks
	_, err = a.Tables.Voter.Modify(id, func(cur *types.Voter) { *cur = v })
	a.recordErr(err)
}

// Step 7/8: expire and erase stale voters. Both interface methods query the
// same predicate; step 7 flips IsValid false and persists, step 8 re-reads
// (now seeing the persisted IsValid=false) and erases.
func (a *Adapter) InvalidVoters(headBlock uint32, governanceVotingExpirationBlocks uint32) []types.Voter {
	var out []types.Voter
	err := a.Tables.Voter.All(func(_ types.InstanceID, v types.Voter) error {
		if !v.IsValid || voter.IsExpired(v, headBlock, governanceVotingExpirationBlocks) {
			out = append(out, v)
		}
		return nil
	})
	a.recordErr(err)
	return out
}

func (a *Adapter) EraseVoter(uid types.AccountUID) {
	id, ok, err := a.Tables.VoterIDByAccount(uid)
	if err != nil {
		a.recordErr(err)
		return
	}
	if !ok {
		return
	}
	a.recordErr(a.Tables.Voter.Remove(id))
}

// Step 9: resigned/stale vote cleanup. A vote is stale once its recorded
// TargetSequence no longer matches the target's current Sequence (the
// target resigned and re-registered) or the target is no longer valid.
func (a *Adapter) ResignedGovernanceVotesBatch(max int) []types.Vote {
	var out []types.Vote
	err := a.Tables.Vote.All(func(_ types.InstanceID, v types.Vote) error {
		if len(out) >= max {
			return nil
		}
		stale, err := a.voteIsStale(v)
		if err != nil {
			return err
		}
		if stale {
			out = append(out, v)
		}
		return nil
	})
	a.recordErr(err)
	return out
}

func (a *Adapter) voteIsStale(v types.Vote) (bool, error) {
	switch v.Kind {
	case types.VoteTargetWitness:
		w, ok, err := a.Tables.WitnessByAccount(v.TargetUID)
		if err != nil {
			return false, err
		}
		return !ok || !w.IsValid || w.Sequence != v.TargetSequence, nil
	case types.VoteTargetCommittee:
		m, ok, err := a.Tables.CommitteeMemberByAccount(v.TargetUID)
		if err != nil {
			return false, err
		}
		return !ok || !m.IsValid || m.Sequence != v.TargetSequence, nil
	default:
		p, ok, err := a.Tables.PlatformByAccount(v.TargetUID)
		if err != nil {
			return false, err
		}
		return !ok || !p.IsValid || p.Sequence != v.TargetSequence, nil
	}
}

func (a *Adapter) RemoveVote(v types.Vote) {
	id, ok, err := a.Tables.VoteID(v.Kind, v.VoterUID, v.TargetUID)
	if err != nil {
		a.recordErr(err)
		return
	}
	if !ok {
		return
	}
	a.recordErr(a.Tables.Vote.Remove(id))
}

// Step 10: budget adjust.
func (a *Adapter) IsBudgetAdjustBlock() bool {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return false
	}
	if mp.BudgetAdjustIntervalBlocks == 0 {
		return false
	}
	return a.HeadBlockNum()%mp.BudgetAdjustIntervalBlocks == 0
}

// CoreReserved stands in for the not-yet-issued core-asset pool the budget
// targets a basis-point share of; there is no separate max-supply
// parameter, so this reuses CurrentSupply itself (documented in
// DESIGN.md as an Open Question simplification).
func (a *Adapter) CoreReserved() types.Share {
	dd, ok, err := a.Tables.AssetDynamicDataByAID(evaluator.CoreAsset)
	if err != nil {
		a.recordErr(err)
		return 0
	}
	if !ok {
		return 0
	}
	return dd.CurrentSupply
}

func (a *Adapter) BudgetAdjustTargetBps() uint32 {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return 0
	}
	return mp.BudgetAdjustTargetBps
}

func (a *Adapter) BlocksPerYear() uint64 {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return 0
	}
	return mp.BlocksPerYear
}

func (a *Adapter) SetBudgetPerBlock(v types.Share) {
	dgp := a.DGP()
	dgp.BudgetPerBlock = v
	a.recordErr(a.Tables.SetDGP(dgp))
}

// Step 11: committee roster update.
func (a *Adapter) IsCommitteeUpdateBlock() bool {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return false
	}
	if mp.CommitteeUpdateIntervalBlocks == 0 {
		return false
	}
	return a.HeadBlockNum()%mp.CommitteeUpdateIntervalBlocks == 0
}

func (a *Adapter) ReplaceActiveCommittee() {
	size := a.CommitteeSize
	if size <= 0 {
		wp, err := a.Params.WitnessParams()
		if err != nil {
			a.recordErr(err)
			return
		}
		size = wp.ByVoteTopCount + wp.ByVoteRestCount
	}

	type row struct {
		id types.InstanceID
		m  types.CommitteeMember
	}
	var rows []row
	err := a.Tables.CommitteeMember.All(func(id types.InstanceID, m types.CommitteeMember) error {
		rows = append(rows, row{id, m})
		return nil
	})
	if err != nil {
		a.recordErr(err)
		return
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].m.TotalVotes != rows[j].m.TotalVotes {
			return rows[i].m.TotalVotes > rows[j].m.TotalVotes
		}
		return rows[i].m.Account < rows[j].m.Account
	})
	for i, r := range rows {
		wantValid := i < size
		if r.m.IsValid == wantValid {
			continue
		}
		if _, err := a.Tables.CommitteeMember.Modify(r.id, func(m *types.CommitteeMember) { m.IsValid = wantValid }); err != nil {
			a.recordErr(err)
		}
	}
}

func (a *Adapter) ExpireUnapprovedCommitteeProposals(headBlock uint32) {
	var due []types.InstanceID
	err := a.Tables.CommitteeProposal.All(func(id types.InstanceID, cp types.CommitteeProposal) error {
		if !cp.IsApproved && cp.ExpirationBlock <= headBlock {
			due = append(due, id)
		}
		return nil
	})
	if err != nil {
		a.recordErr(err)
		return
	}
	for _, id := range due {
		a.recordErr(a.Tables.CommitteeProposal.Remove(id))
	}
}

// Step 12: execute approved committee proposals.
func (a *Adapter) ApprovedCommitteeProposalsDue(headBlock uint32) []types.CommitteeProposal {
	var due []types.CommitteeProposal
	err := a.Tables.CommitteeProposal.All(func(_ types.InstanceID, cp types.CommitteeProposal) error {
		if cp.IsApproved && cp.ExecutionBlock <= headBlock {
			due = append(due, cp)
		}
		return nil
	})
	a.recordErr(err)
	return due
}

// ExecuteCommitteeProposal merges every item into the current parameter
// baseline via native/gov, persists the merged families, special-cases
// registrar-takeover items (not folded into Baseline, see native/gov's
// applyDelta), and removes the now-executed proposal. CommitteeProposal's
// store id isn't its business Number, so the removal scans for the row
// whose Number matches rather than tracking a separate id map (simpler
// than threading an id cache through ApprovedCommitteeProposalsDue, at the
// cost of one extra scan per execution).
func (a *Adapter) ExecuteCommitteeProposal(cp types.CommitteeProposal) error {
	baseline := gov.Baseline{}
	var err error
	if baseline.FeeSchedule, err = a.Params.FeeSchedule(); err != nil {
		return err
	}
	if baseline.Witness, err = a.Params.WitnessParams(); err != nil {
		return err
	}
	if baseline.ContentAward, err = a.Params.ContentAwardParams(); err != nil {
		return err
	}
	if baseline.Maintenance, err = a.Params.MaintenanceParams(); err != nil {
		return err
	}

	merged, err := gov.PreflightCommitteeProposal(baseline, cp.Items)
	if err != nil {
		return fmt.Errorf("maintenance: committee proposal %d: %w", cp.Number, err)
	}
	if err := a.Params.SetFeeSchedule(merged.FeeSchedule); err != nil {
		return err
	}
	if err := a.Params.SetWitnessParams(merged.Witness); err != nil {
		return err
	}
	if err := a.Params.SetContentAwardParams(merged.ContentAward); err != nil {
		return err
	}
	if err := a.Params.SetMaintenanceParams(merged.Maintenance); err != nil {
		return err
	}

	for _, item := range cp.Items {
		if item.Kind != types.CommitteeItemRegistrarTakeover {
			continue
		}
		delta, err := gov.DecodeItem(item)
		if err != nil {
			return err
		}
		rt, ok := delta.Value.(params.RegistrarTakeoverParams)
		if !ok {
			return fmt.Errorf("maintenance: registrar takeover item decoded as %T", delta.Value)
		}
		if _, err := a.Tables.RegistrarTakeover.Create(types.RegistrarTakeover{
			OriginalRegistrar: rt.OldRegistrar,
			TakeoverRegistrar: rt.NewRegistrar,
		}); err != nil {
			return err
		}
	}

	var executedID types.InstanceID
	found := false
	if err := a.Tables.CommitteeProposal.All(func(id types.InstanceID, row types.CommitteeProposal) error {
		if row.Number == cp.Number {
			executedID, found = id, true
		}
		return nil
	}); err != nil {
		return err
	}
	if found {
		return a.Tables.CommitteeProposal.Remove(executedID)
	}
	return nil
}

// Step 13: content and platform-voted awards.
func (a *Adapter) ContentAwardDue(headTime uint32) bool {
	cp, err := a.Params.ContentAwardParams()
	if err != nil {
		a.recordErr(err)
		return false
	}
	if cp.PeriodSeconds == 0 {
		return false
	}
	return headTime%cp.PeriodSeconds == 0
}

func (a *Adapter) PlatformAwardDue(headTime uint32) bool {
	return a.ContentAwardDue(headTime)
}

func (a *Adapter) RunContentAward() error {
	cfg, err := a.Params.ContentAwardParams()
	if err != nil {
		return err
	}
	dgp := a.DGP()
	p := award.Params{
		TotalContentAwardAmount:   cfg.TotalContentAwardAmount,
		MinEffectiveCSAF:          cfg.MinEffectiveCSAF,
		CSAFModulusBps:            cfg.CSAFModulusBps,
		ReceiptorAwardModulusBps:  cfg.ReceiptorAwardModulusBps,
		DisapproveAwardModulusBps: cfg.DisapproveAwardModulusBps,
		ApprovalCSAFFirstRateBps:  cfg.ApprovalCSAFFirstRateBps,
		ApprovalCSAFSecondRateBps: cfg.ApprovalCSAFSecondRateBps,
		ApprovalCSAFMinWeightBps:  cfg.ApprovalCSAFMinWeightBps,
	}

	var inputs []award.PostInput
	var totalCSAF types.Share
	err = a.Tables.ActivePost.All(func(_ types.InstanceID, ap types.ActivePost) error {
		if ap.PeriodSequence != dgp.CurrentAwardPeriod {
			return nil
		}
		post, ok, perr := a.Tables.FindPost(ap.Key)
		if perr != nil {
			return perr
		}
		if !ok {
			return nil
		}
		var scores []types.Score
		for _, sid := range ap.Scores {
			sc, ok, serr := a.Tables.Score.Find(sid)
			if serr != nil {
				return serr
			}
			if ok {
				scores = append(scores, sc)
			}
		}
		inputs = append(inputs, award.PostInput{Key: ap.Key, TotalCSAF: ap.TotalCSAF, Scores: scores, Receiptors: post.Receiptors})
		sum, addErr := sharemath.Add(totalCSAF, ap.TotalCSAF)
		if addErr != nil {
			return addErr
		}
		totalCSAF = sum
		return nil
	})
	if err != nil {
		return err
	}

	ctx := a.evalContext()
	for _, in := range inputs {
		var shareBps uint32
		if totalCSAF > 0 {
			shareBps = uint32((int64(in.TotalCSAF) * 10000) / int64(totalCSAF))
		}
		result, serr := award.SettlePost(in, p, shareBps)
		if serr != nil {
			return serr
		}
		if result == nil {
			continue
		}
		if err := a.payOut(ctx, result.ScorerPayouts); err != nil {
			return err
		}
		if err := a.payOut(ctx, result.ReceiptorPayouts); err != nil {
			return err
		}
	}

	dgp.CurrentAwardPeriod++
	if err := a.Tables.SetDGP(dgp); err != nil {
		return err
	}
	observability.Chain().RecordAwardPayout("content")
	return nil
}

func (a *Adapter) payOut(ctx *evaluator.Context, payouts map[types.AccountUID]types.Share) error {
	for uid, amt := range payouts {
		if amt == 0 {
			continue
		}
		if err := evaluator.CreditReward(ctx, uid, evaluator.CoreAsset, amt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) RunPlatformVotedAward() error {
	cfg, err := a.Params.ContentAwardParams()
	if err != nil {
		return err
	}
	dgp := a.DGP()

	spendByPlatform := map[types.AccountUID]types.Share{}
	err = a.Tables.ActivePost.All(func(_ types.InstanceID, ap types.ActivePost) error {
		if ap.PeriodSequence != dgp.CurrentAwardPeriod {
			return nil
		}
		sum, addErr := sharemath.Add(spendByPlatform[ap.Key.Platform], ap.TotalCSAF)
		if addErr != nil {
			return addErr
		}
		spendByPlatform[ap.Key.Platform] = sum
		return nil
	})
	if err != nil {
		return err
	}
	spends := make([]award.PlatformCSAFSpend, 0, len(spendByPlatform))
	for platform, csaf := range spendByPlatform {
		spends = append(spends, award.PlatformCSAFSpend{Platform: platform, CSAF: csaf})
	}
	poolPayouts, err := award.SettlePlatformPool(spends, cfg.PlatformAwardTotal)
	if err != nil {
		return err
	}

	var votes []award.PlatformVote
	err = a.Tables.Platform.All(func(_ types.InstanceID, pl types.Platform) error {
		if pl.IsValid {
			votes = append(votes, award.PlatformVote{Platform: pl.Owner, TotalVotes: pl.TotalVotes})
		}
		return nil
	})
	if err != nil {
		return err
	}
	votedPayouts, err := award.SettlePlatformVotedAward(votes, cfg.PlatformAwardRequestedRank, cfg.PlatformAwardMinVotes, cfg.PlatformAwardTotal, cfg.PlatformAwardBasicRate)
	if err != nil {
		return err
	}

	ctx := a.evalContext()
	if err := a.payOut(ctx, poolPayouts); err != nil {
		return err
	}
	if err := a.payOut(ctx, votedPayouts); err != nil {
		return err
	}
	observability.Chain().RecordAwardPayout("platform_voted")
	return nil
}

// Step 14: witness schedule rebuild.
func (a *Adapter) IsScheduleRebuildBlock() bool {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return false
	}
	if mp.ScheduleRebuildIntervalBlocks == 0 {
		return false
	}
	return a.HeadBlockNum()%mp.ScheduleRebuildIntervalBlocks == 0
}

func (a *Adapter) RebuildSchedule() error {
	wp, err := a.Params.WitnessParams()
	if err != nil {
		return err
	}
	var candidates []schedule.Candidate
	err = a.Tables.Witness.All(func(_ types.InstanceID, w types.Witness) error {
		candidates = append(candidates, schedule.Candidate{
			UID: w.Account, TotalVotes: w.TotalVotes, AveragePledge: w.AveragePledge, IsValid: w.IsValid,
		})
		return nil
	})
	if err != nil {
		return err
	}

	cur, err := a.Tables.Schedule()
	if err != nil {
		return err
	}
	selected, next := schedule.SelectPools(candidates, schedule.Params{
		ByVoteTopCount: wp.ByVoteTopCount, ByVoteRestCount: wp.ByVoteRestCount, ByPledgeCount: wp.ByPledgeCount,
	}, schedule.Cursor{ByVoteTime: cur.ByVoteTime, ByPledgeTime: cur.ByPledgeTime})

	dgp := a.DGP()
	shuffled := schedule.Shuffle(selected, dgp.HeadBlockID[:])
	uids := make([]types.AccountUID, len(shuffled))
	for i, c := range shuffled {
		uids[i] = c.UID
	}

	if err := a.Tables.SetSchedule(types.ScheduleState{
		Shuffled:     uids,
		CurrentASlot: cur.CurrentASlot,
		ByVoteTime:   next.ByVoteTime,
		ByPledgeTime: next.ByPledgeTime,
	}); err != nil {
		return err
	}
	observability.Chain().RecordScheduleRebuild()
	return nil
}

// Step 15: accounting-identity invariant.
func (a *Adapter) InvariantCheckDue(headBlock uint32) bool {
	mp, err := a.Params.MaintenanceParams()
	if err != nil {
		a.recordErr(err)
		return false
	}
	if mp.InvariantCheckIntervalBlocks == 0 {
		return false
	}
	return headBlock%mp.InvariantCheckIntervalBlocks == 0
}

// CheckAccountingIdentity confirms every core-asset holding (spendable
// balance, prepaid, and the three pledge totals) plus fees not yet
// collected sums to CurrentSupply. CSAF/LeasedIn/LeasedOut are excluded: a
// CSAF lease moves accrual rights, not core-asset custody, so it never
// appears on either side of this identity (documented in DESIGN.md).
func (a *Adapter) CheckAccountingIdentity() error {
	var total types.Share
	err := a.Tables.AccountStatistics.All(func(_ types.InstanceID, st types.AccountStatistics) error {
		var sum types.Share
		var addErr error
		for _, v := range []types.Share{st.CoreBalance, st.Prepaid, st.WitnessPledge.Total, st.CommitteePledge.Total, st.PlatformPledge.Total} {
			sum, addErr = sharemath.Add(sum, v)
			if addErr != nil {
				return addErr
			}
		}
		total, addErr = sharemath.Add(total, sum)
		return addErr
	})
	if err != nil {
		return err
	}

	dd, ok, err := a.Tables.AssetDynamicDataByAID(evaluator.CoreAsset)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("maintenance: core asset has no dynamic-data row: %w", chainerr.ErrApply)
	}
	total, err = sharemath.Add(total, dd.AccumulatedFees)
	if err != nil {
		return err
	}
	if total != dd.CurrentSupply {
		return fmt.Errorf("maintenance: accounting identity: holdings %d != supply %d: %w", total, dd.CurrentSupply, chainerr.ErrApply)
	}
	return nil
}
