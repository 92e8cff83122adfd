package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/pledge"
)

func init() {
	register(types.OpWitnessCreate, evalWitnessCreate)
	register(types.OpWitnessUpdate, evalWitnessUpdate)
	register(types.OpWitnessVoteUpdate, evalWitnessVoteUpdate)
	register(types.OpWitnessCollectPay, evalWitnessCollectPay)
	register(types.OpWitnessReport, evalWitnessReport)

	register(types.OpCommitteeMemberCreate, evalCommitteeMemberCreate)
	register(types.OpCommitteeMemberUpdate, evalCommitteeMemberUpdate)
	register(types.OpCommitteeMemberVoteUpdate, evalCommitteeMemberVoteUpdate)

	register(types.OpPlatformCreate, evalPlatformCreate)
	register(types.OpPlatformUpdate, evalPlatformUpdate)
	register(types.OpPlatformVoteUpdate, evalPlatformVoteUpdate)
}

// raisePledge moves a positive delta from the account's core balance into
// the pledge-role bucket get/set select; a negative delta lowers the pledge
// through pledge.Lower, which schedules a release instead of crediting the
// core balance now (maintenance step 4 pays it out once matured). The
// fee-payer's own account statistics is the pledge source of truth (spec
// §4.4 "pledge is escrowed from the account's core balance").
func raisePledge(ctx *Context, account types.AccountUID, delta types.Share, get func(types.AccountStatistics) types.PledgeState, set func(*types.AccountStatistics, types.PledgeState)) error {
	stats, ok, err := ctx.Tables.AccountStatisticsByUID(account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %d has no statistics row: %w", account, chainerr.ErrEvaluation)
	}
	if delta > 0 && stats.CoreBalance < delta {
		return fmt.Errorf("account %d: insufficient core balance to raise pledge: %w", account, chainerr.ErrEvaluation)
	}
	cur := get(stats)
	var next types.PledgeState
	if delta >= 0 {
		next, err = pledge.Raise(cur, delta)
	} else {
		next, err = pledge.Lower(cur, -delta, uint64(ctx.HeadBlock), ctx.PledgeReleaseDelayBlocks)
	}
	if err != nil {
		return err
	}
	_, err = ctx.Tables.AccountStatistics.Modify(types.InstanceID(account), func(s *types.AccountStatistics) {
		if delta > 0 {
			s.CoreBalance -= delta
		}
		set(s, next)
	})
	return err
}

func evalWitnessCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessCreateOp)
	if op.Pledge < 0 {
		return fmt.Errorf("witness_create: negative pledge: %w", chainerr.ErrEvaluation)
	}
	if _, ok, err := ctx.Tables.WitnessByAccount(op.Account); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("witness_create: account %d is already a witness: %w", op.Account, chainerr.ErrEvaluation)
	}
	if err := raisePledge(ctx, op.Account, op.Pledge, func(s types.AccountStatistics) types.PledgeState { return s.WitnessPledge }, func(s *types.AccountStatistics, p types.PledgeState) { s.WitnessPledge = p }); err != nil {
		return err
	}
	_, err := ctx.Tables.Witness.Create(types.Witness{
		Account:    op.Account,
		Pledge:     op.Pledge,
		SigningKey: op.SigningKey,
		URL:        op.URL,
		IsValid:    true,
		Sequence:   1,
	})
	return err
}

func evalWitnessUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessUpdateOp)
	id, ok, err := ctx.Tables.Witness.FindIDBy(ctx.Tables.WitnessOwnerIndex, accountUIDBytes(op.Account))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("witness_update: account %d is not a witness: %w", op.Account, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Witness.Modify(id, func(w *types.Witness) {
		if op.SigningKey != nil {
			w.SigningKey = *op.SigningKey
		}
		if op.URL != nil {
			w.URL = *op.URL
		}
	})
	return err
}

func evalWitnessVoteUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessVoteUpdateOp)
	return applyVoteDeltas(ctx, types.VoteTargetWitness, op.Voter, op.ToAdd, op.ToRemove, func(target types.AccountUID) (bool, uint64, error) {
		w, ok, err := ctx.Tables.WitnessByAccount(target)
		return ok, w.Sequence, err
	})
}

func evalWitnessCollectPay(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessCollectPayOp)
	w, ok, err := ctx.Tables.WitnessByAccount(op.Witness)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("witness_collect_pay: account %d is not a witness: %w", op.Witness, chainerr.ErrEvaluation)
	}
	if !w.IsValid {
		return fmt.Errorf("witness_collect_pay: witness %d is not active: %w", op.Witness, chainerr.ErrEvaluation)
	}
	// No block-production pay is accrued or credited anywhere in this
	// module, and maintenance has no pay step; this evaluator only validates
	// that the claim names a live witness and moves no funds.
	return nil
}

func evalWitnessReport(ctx *Context, operation types.Operation) error {
	op := operation.(types.WitnessReportOp)
	if op.FirstHeader.Witness != op.SecondHeader.Witness || op.FirstHeader.Witness != op.Offender {
		return fmt.Errorf("witness_report: headers do not both cite the offending witness: %w", chainerr.ErrEvaluation)
	}
	firstID, err := types.DeriveBlockID(op.FirstHeader)
	if err != nil {
		return err
	}
	secondID, err := types.DeriveBlockID(op.SecondHeader)
	if err != nil {
		return err
	}
	if firstID == secondID {
		return fmt.Errorf("witness_report: headers are identical, not a fork proof: %w", chainerr.ErrEvaluation)
	}
	if firstID.BlockNum() != secondID.BlockNum() {
		return fmt.Errorf("witness_report: headers are not for the same block height: %w", chainerr.ErrEvaluation)
	}
	id, ok, err := ctx.Tables.Witness.FindIDBy(ctx.Tables.WitnessOwnerIndex, accountUIDBytes(op.Offender))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("witness_report: offender %d is not a witness: %w", op.Offender, chainerr.ErrEvaluation)
	}
	if _, err := ctx.Tables.Witness.Modify(id, func(w *types.Witness) {
		w.IsValid = false
		w.Sequence++
	}); err != nil {
		return err
	}
	ctx.emit(types.Event{
		Type: types.EventWitnessReported,
		Attributes: map[string]string{
			"offender": fmt.Sprintf("%d", op.Offender),
			"height":   fmt.Sprintf("%d", firstID.BlockNum()),
		},
	})
	return nil
}

func evalCommitteeMemberCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommitteeMemberCreateOp)
	if op.Pledge < 0 {
		return fmt.Errorf("committee_member_create: negative pledge: %w", chainerr.ErrEvaluation)
	}
	if _, ok, err := ctx.Tables.CommitteeMemberByAccount(op.Account); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("committee_member_create: account %d already a committee member: %w", op.Account, chainerr.ErrEvaluation)
	}
	if err := raisePledge(ctx, op.Account, op.Pledge, func(s types.AccountStatistics) types.PledgeState { return s.CommitteePledge }, func(s *types.AccountStatistics, p types.PledgeState) { s.CommitteePledge = p }); err != nil {
		return err
	}
	_, err := ctx.Tables.CommitteeMember.Create(types.CommitteeMember{Account: op.Account, Pledge: op.Pledge, URL: op.URL, IsValid: true, Sequence: 1})
	return err
}

func evalCommitteeMemberUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommitteeMemberUpdateOp)
	id, ok, err := ctx.Tables.CommitteeMember.FindIDBy(ctx.Tables.CommitteeOwnerIndex, accountUIDBytes(op.Account))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("committee_member_update: account %d is not a committee member: %w", op.Account, chainerr.ErrEvaluation)
	}
	if op.URL == nil {
		return nil
	}
	_, err = ctx.Tables.CommitteeMember.Modify(id, func(m *types.CommitteeMember) { m.URL = *op.URL })
	return err
}

func evalCommitteeMemberVoteUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommitteeMemberVoteUpdateOp)
	return applyVoteDeltas(ctx, types.VoteTargetCommittee, op.Voter, op.ToAdd, op.ToRemove, func(target types.AccountUID) (bool, uint64, error) {
		m, ok, err := ctx.Tables.CommitteeMemberByAccount(target)
		return ok, m.Sequence, err
	})
}

func evalPlatformCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.PlatformCreateOp)
	if op.Pledge < 0 {
		return fmt.Errorf("platform_create: negative pledge: %w", chainerr.ErrEvaluation)
	}
	if _, ok, err := ctx.Tables.PlatformByAccount(op.Account); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("platform_create: account %d is already a platform: %w", op.Account, chainerr.ErrEvaluation)
	}
	if err := raisePledge(ctx, op.Account, op.Pledge, func(s types.AccountStatistics) types.PledgeState { return s.PlatformPledge }, func(s *types.AccountStatistics, p types.PledgeState) { s.PlatformPledge = p }); err != nil {
		return err
	}
	_, err := ctx.Tables.Platform.Create(types.Platform{
		Owner:    op.Account,
		Name:     op.Name,
		Pledge:   op.Pledge,
		URL:      op.URL,
		IsValid:  true,
		Sequence: 1,
	})
	if err != nil {
		return err
	}
	_, err = ctx.Tables.Account.Modify(types.InstanceID(op.Account), func(a *types.Account) {
		a.Permissions |= types.PermissionIsPlatform
	})
	return err
}

func evalPlatformUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.PlatformUpdateOp)
	id, ok, err := ctx.Tables.Platform.FindIDBy(ctx.Tables.PlatformOwnerIndex, accountUIDBytes(op.Account))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("platform_update: account %d is not a platform: %w", op.Account, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Platform.Modify(id, func(p *types.Platform) {
		if op.URL != nil {
			p.URL = *op.URL
		}
		if op.Name != nil {
			p.Name = *op.Name
		}
	})
	return err
}

func evalPlatformVoteUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.PlatformVoteUpdateOp)
	return applyVoteDeltas(ctx, types.VoteTargetPlatform, op.Voter, op.ToAdd, op.ToRemove, func(target types.AccountUID) (bool, uint64, error) {
		p, ok, err := ctx.Tables.PlatformByAccount(target)
		return ok, p.Sequence, err
	})
}

// applyVoteDeltas creates/removes Vote edges for a governance-role vote
// update, stamping each new edge with the target's current sequence so a
// later resign (which bumps Sequence) orphans it for maintenance's vote
// cleanup step to find (spec §4.7 step 9).
func applyVoteDeltas(ctx *Context, kind types.VoteTargetKind, voter types.AccountUID, toAdd, toRemove []types.AccountUID, targetSeq func(types.AccountUID) (bool, uint64, error)) error {
	for _, target := range toRemove {
		id, ok, err := ctx.Tables.Vote.FindIDBy(ctx.Tables.VoteEdgeIndex, voteEdgeBytes(kind, voter, target))
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := ctx.Tables.Vote.Remove(id); err != nil {
			return err
		}
	}
	for _, target := range toAdd {
		exists, seq, err := targetSeq(target)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("vote_update: target %d does not hold the role being voted for: %w", target, chainerr.ErrEvaluation)
		}
		if _, ok, err := ctx.Tables.Vote.FindIDBy(ctx.Tables.VoteEdgeIndex, voteEdgeBytes(kind, voter, target)); err != nil {
			return err
		} else if ok {
			continue
		}
		if _, err := ctx.Tables.Vote.Create(types.Vote{Kind: kind, VoterUID: voter, VoterSequence: 0, TargetUID: target, TargetSequence: seq}); err != nil {
			return err
		}
	}
	return nil
}
