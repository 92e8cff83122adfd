package evaluator

import (
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/gov"
)

func init() {
	register(types.OpProposalCreate, evalProposalCreate)
	register(types.OpProposalUpdate, evalProposalUpdate)
	register(types.OpProposalDelete, evalProposalDelete)

	register(types.OpCommitteeProposalCreate, evalCommitteeProposalCreate)
	register(types.OpCommitteeProposalUpdate, evalCommitteeProposalUpdate)
}

func evalProposalCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.ProposalCreateOp)
	if len(op.ProposedOps) == 0 {
		return fmt.Errorf("proposal_create: no proposed operations: %w", chainerr.ErrEvaluation)
	}
	required := make(map[types.AccountUID]struct{})
	for _, nested := range op.ProposedOps {
		required[nested.Payload.FeePayer()] = struct{}{}
	}
	var reviewPeriod *uint32
	if op.ReviewPeriod > 0 {
		rp := op.ReviewPeriod
		reviewPeriod = &rp
	}
	_, err := ctx.Tables.Proposal.Create(types.Proposal{
		Proposer:            op.Proposer,
		RequiredApprovals:   required,
		AvailableApprovals:  map[types.AccountUID]struct{}{},
		Operations:          op.ProposedOps,
		ExpirationTime:      op.ExpirationTime,
		ReviewPeriodTime:    reviewPeriod,
	})
	return err
}

func evalProposalUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.ProposalUpdateOp)
	prop, ok, err := ctx.Tables.Proposal.Find(op.Proposal)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("proposal_update: proposal %d not found: %w", op.Proposal, chainerr.ErrEvaluation)
	}
	_, err = ctx.Tables.Proposal.Modify(op.Proposal, func(p *types.Proposal) {
		if p.AvailableApprovals == nil {
			p.AvailableApprovals = map[types.AccountUID]struct{}{}
		}
		for _, uid := range op.ActiveApprovalsToAdd {
			p.AvailableApprovals[uid] = struct{}{}
		}
		for _, uid := range op.ActiveApprovalsToRemove {
			delete(p.AvailableApprovals, uid)
		}
	})
	if err != nil {
		return err
	}
	prop, _, err = ctx.Tables.Proposal.Find(op.Proposal)
	if err != nil {
		return err
	}
	if !prop.IsAuthorized() {
		return nil
	}
	for _, nested := range prop.Operations {
		if err := Apply(ctx, nested.Payload); err != nil {
			return fmt.Errorf("proposal_update: executing proposal %d: %w", op.Proposal, err)
		}
	}
	return ctx.Tables.Proposal.Remove(op.Proposal)
}

func evalProposalDelete(ctx *Context, operation types.Operation) error {
	op := operation.(types.ProposalDeleteOp)
	prop, ok, err := ctx.Tables.Proposal.Find(op.Proposal)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("proposal_delete: proposal %d not found: %w", op.Proposal, chainerr.ErrEvaluation)
	}
	if prop.Proposer != op.FeePayingAccount {
		if _, isRequired := prop.RequiredApprovals[op.FeePayingAccount]; !isRequired {
			return fmt.Errorf("proposal_delete: %d may not delete proposal %d: %w", op.FeePayingAccount, op.Proposal, chainerr.ErrEvaluation)
		}
	}
	return ctx.Tables.Proposal.Remove(op.Proposal)
}

func evalCommitteeProposalCreate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommitteeProposalCreateOp)
	if len(op.Items) == 0 {
		return fmt.Errorf("committee_proposal_create: no items: %w", chainerr.ErrEvaluation)
	}
	baseline, err := ctx.loadGovBaseline()
	if err != nil {
		return err
	}
	if _, err := gov.PreflightCommitteeProposal(baseline, op.Items); err != nil {
		return fmt.Errorf("committee_proposal_create: %w: %v", chainerr.ErrEvaluation, err)
	}
	id, err := ctx.Tables.CommitteeProposal.Create(types.CommitteeProposal{
		Proposer:           op.Proposer,
		Items:              op.Items,
		VotingClosingBlock: op.VotingClosingBlock,
		ExpirationBlock:    op.ExpirationBlock,
		Opinions:           map[types.AccountUID]int8{},
		ApproveThreshold:   5000,
	})
	if err != nil {
		return err
	}
	_, err = ctx.Tables.CommitteeProposal.Modify(id, func(p *types.CommitteeProposal) { p.Number = uint64(id) })
	return err
}

func evalCommitteeProposalUpdate(ctx *Context, operation types.Operation) error {
	op := operation.(types.CommitteeProposalUpdateOp)
	if _, ok, err := ctx.Tables.CommitteeMemberByAccount(op.Voter); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("committee_proposal_update: %d is not a committee member: %w", op.Voter, chainerr.ErrEvaluation)
	}
	if op.Opinion < -1 || op.Opinion > 1 {
		return fmt.Errorf("committee_proposal_update: opinion %d out of range: %w", op.Opinion, chainerr.ErrEvaluation)
	}
	_, err := ctx.Tables.CommitteeProposal.Modify(op.ProposalID, func(p *types.CommitteeProposal) {
		if p.Opinions == nil {
			p.Opinions = map[types.AccountUID]int8{}
		}
		p.Opinions[op.Voter] = int8(op.Opinion)
	})
	if err != nil {
		return err
	}
	return tallyCommitteeProposalApproval(ctx, op.ProposalID)
}

// tallyCommitteeProposalApproval recomputes a committee proposal's approval
// status: the bps share of active committee members who voted "for" (+1)
// against ApproveThreshold. Approval is sticky -- once a majority forms the
// proposal is slated for maintenance's step 12 execution, so a later vote
// withdrawal does not revoke it.
func tallyCommitteeProposalApproval(ctx *Context, id types.InstanceID) error {
	prop, ok, err := ctx.Tables.CommitteeProposal.Find(id)
	if err != nil {
		return err
	}
	if !ok || prop.IsApproved {
		return nil
	}
	var total, forVotes uint32
	if err := ctx.Tables.CommitteeMember.All(func(_ types.InstanceID, m types.CommitteeMember) error {
		if m.IsValid {
			total++
		}
		return nil
	}); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	for _, opinion := range prop.Opinions {
		if opinion > 0 {
			forVotes++
		}
	}
	bps := uint32((uint64(forVotes) * 10000) / uint64(total))
	if bps < prop.ApproveThreshold {
		return nil
	}
	_, err = ctx.Tables.CommitteeProposal.Modify(id, func(p *types.CommitteeProposal) {
		p.IsApproved = true
	})
	return err
}
