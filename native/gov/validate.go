// Package gov validates committee-proposal global-parameter changes before
// they are accepted into a CommitteeProposal (spec §4.4 committee_proposal_*
// operations) or executed at their execution_block (spec §4.7 step 12).
// Grounded on the teacher's deleted native/gov/validate.go PolicyDelta/
// applyDelta/PreflightPolicyApply shape: decode-validate-merge against a
// baseline snapshot, rather than mutating live state directly.
package gov

import (
	"encoding/json"
	"fmt"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
)

// Baseline is the current value of every committee-votable parameter family,
// the starting point a proposal's items are validated and merged against.
type Baseline struct {
	FeeSchedule  params.FeeScheduleParams
	Witness      params.WitnessParams
	ContentAward params.ContentAwardParams
	Maintenance  params.MaintenanceParams
}

// PolicyDelta is one decoded, not-yet-applied change: the baseline family it
// targets and the already-unmarshalled replacement value.
type PolicyDelta struct {
	Kind  types.CommitteeProposalItemKind
	Value any
}

// DecodeItem unmarshals a CommitteeProposalItem's opaque payload into its
// concrete parameter type according to Kind.
func DecodeItem(item types.CommitteeProposalItem) (PolicyDelta, error) {
	switch item.Kind {
	case types.CommitteeItemFeeSchedule:
		var v params.FeeScheduleParams
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return PolicyDelta{}, fmt.Errorf("gov: decode fee schedule: %w", err)
		}
		return PolicyDelta{Kind: item.Kind, Value: v}, nil
	case types.CommitteeItemWitnessParams:
		var v params.WitnessParams
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return PolicyDelta{}, fmt.Errorf("gov: decode witness params: %w", err)
		}
		return PolicyDelta{Kind: item.Kind, Value: v}, nil
	case types.CommitteeItemContentAwardParams:
		var v params.ContentAwardParams
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return PolicyDelta{}, fmt.Errorf("gov: decode content award params: %w", err)
		}
		return PolicyDelta{Kind: item.Kind, Value: v}, nil
	case types.CommitteeItemMaintenanceParams:
		var v params.MaintenanceParams
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return PolicyDelta{}, fmt.Errorf("gov: decode maintenance params: %w", err)
		}
		return PolicyDelta{Kind: item.Kind, Value: v}, nil
	case types.CommitteeItemRegistrarTakeover:
		var v params.RegistrarTakeoverParams
		if err := json.Unmarshal(item.Value, &v); err != nil {
			return PolicyDelta{}, fmt.Errorf("gov: decode registrar takeover: %w", err)
		}
		return PolicyDelta{Kind: item.Kind, Value: v}, nil
	default:
		return PolicyDelta{}, fmt.Errorf("gov: unknown committee proposal item kind %d", item.Kind)
	}
}

// validate rejects a decoded delta whose values would leave the chain in an
// unschedulable or arithmetically unsafe state; it never touches Baseline.
func validate(d PolicyDelta) error {
	switch v := d.Value.(type) {
	case params.FeeScheduleParams:
		if v.DefaultBase < 0 || v.DefaultPerKB < 0 {
			return fmt.Errorf("gov: fee schedule: negative default fee")
		}
		for tag, fee := range v.Fees {
			if fee.Base < 0 || fee.PerKB < 0 {
				return fmt.Errorf("gov: fee schedule: negative fee for op %d", tag)
			}
		}
	case params.WitnessParams:
		if v.ByVoteTopCount <= 0 && v.ByVoteRestCount <= 0 && v.ByPledgeCount <= 0 {
			return fmt.Errorf("gov: witness params: at least one pool must be non-empty")
		}
		if v.SlotIntervalSeconds == 0 {
			return fmt.Errorf("gov: witness params: slot_interval_seconds must be positive")
		}
		if v.MaxMissedSlots == 0 {
			return fmt.Errorf("gov: witness params: max_missed_slots must be positive")
		}
	case params.ContentAwardParams:
		if v.CSAFModulusBps > 10000 || v.ReceiptorAwardModulusBps > 10000 ||
			v.DisapproveAwardModulusBps > 10000 || v.ApprovalCSAFFirstRateBps > 10000 ||
			v.ApprovalCSAFSecondRateBps > 10000 || v.ApprovalCSAFMinWeightBps > 10000 {
			return fmt.Errorf("gov: content award params: bps field exceeds 10000")
		}
		if v.ApprovalCSAFFirstRateBps > v.ApprovalCSAFSecondRateBps {
			return fmt.Errorf("gov: content award params: first_rate_bps must be <= second_rate_bps")
		}
		if v.TotalContentAwardAmount < 0 || v.PlatformAwardTotal < 0 {
			return fmt.Errorf("gov: content award params: negative award amount")
		}
	case params.MaintenanceParams:
		if v.BudgetAdjustIntervalBlocks == 0 || v.CommitteeUpdateIntervalBlocks == 0 ||
			v.ScheduleRebuildIntervalBlocks == 0 {
			return fmt.Errorf("gov: maintenance params: interval fields must be positive")
		}
		if v.BudgetAdjustTargetBps > 10000 {
			return fmt.Errorf("gov: maintenance params: budget_adjust_target_bps exceeds 10000")
		}
		if v.BlocksPerYear == 0 {
			return fmt.Errorf("gov: maintenance params: blocks_per_year must be positive")
		}
	case params.RegistrarTakeoverParams:
		if v.OldRegistrar == v.NewRegistrar {
			return fmt.Errorf("gov: registrar takeover: old and new registrar must differ")
		}
	default:
		return fmt.Errorf("gov: unrecognized delta value type %T", d.Value)
	}
	return nil
}

// applyDelta merges one validated delta into a copy of baseline, leaving the
// input untouched.
func applyDelta(baseline Baseline, d PolicyDelta) (Baseline, error) {
	if err := validate(d); err != nil {
		return baseline, err
	}
	switch v := d.Value.(type) {
	case params.FeeScheduleParams:
		baseline.FeeSchedule = v
	case params.WitnessParams:
		baseline.Witness = v
	case params.ContentAwardParams:
		baseline.ContentAward = v
	case params.MaintenanceParams:
		baseline.Maintenance = v
	case params.RegistrarTakeoverParams:
		// Registrar takeover carries no baseline field of its own; it is
		// applied directly to the affected accounts by the evaluator once
		// the proposal executes, not folded into Baseline.
	}
	return baseline, nil
}

// PreflightCommitteeProposal decodes and validates every item of a proposed
// CommitteeProposal against baseline in order, returning the resulting
// baseline if every item is individually well-formed, or the first error
// (spec §4.4: "committee_proposal_create validates each item before
// admission"). It never mutates the caller's Baseline.
func PreflightCommitteeProposal(baseline Baseline, items []types.CommitteeProposalItem) (Baseline, error) {
	for i, item := range items {
		delta, err := DecodeItem(item)
		if err != nil {
			return baseline, fmt.Errorf("gov: item %d: %w", i, err)
		}
		baseline, err = applyDelta(baseline, delta)
		if err != nil {
			return baseline, fmt.Errorf("gov: item %d: %w", i, err)
		}
	}
	return baseline, nil
}
