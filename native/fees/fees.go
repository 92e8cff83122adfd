// Package fees implements spec §4.2: calculate_fee/set_fee over a
// committee-settable per-operation-kind schedule, with core-exchange-rate
// conversion for fees paid in a non-core asset.
//
// This replaces the teacher's native/fees, whose DomainPolicy/AssetPolicy
// merchant-discount-rate model (see DESIGN.md) has no analogue in this
// domain; the package path and the "schedule + calculate + set" shape are
// kept, the concrete policy is rewritten.
package fees

import (
	"github.com/holiman/uint256"

	"github.com/yoyow-org/yoyow-core-sub001/core/chainerr"
	"github.com/yoyow-org/yoyow-core-sub001/core/sharemath"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

// OpFee is the base/size fee pair a single operation kind is billed.
type OpFee struct {
	Base   types.Share
	PerKB  types.Share
}

// Schedule is the committee-voted fee table, one entry per operation tag.
// Unlisted tags fall back to DefaultFee.
type Schedule struct {
	Fees       map[types.OpTag]OpFee
	DefaultFee OpFee
}

// NewSchedule returns an empty schedule backed by defaultFee.
func NewSchedule(defaultFee OpFee) *Schedule {
	return &Schedule{Fees: make(map[types.OpTag]OpFee), DefaultFee: defaultFee}
}

// Set installs the fee for a given operation tag (committee fee-schedule
// proposal item application, spec §4.4 "fee schedule").
func (s *Schedule) Set(tag types.OpTag, fee OpFee) {
	s.Fees[tag] = fee
}

// CalculateFee returns (base, size_fee) for an operation of the given tag
// and serialized size in bytes.
func (s *Schedule) CalculateFee(tag types.OpTag, sizeBytes int) (base, sizeFee types.Share, err error) {
	f, ok := s.Fees[tag]
	if !ok {
		f = s.DefaultFee
	}
	kb := types.Share((sizeBytes + 1023) / 1024)
	sizeFee, err = sharemath.Add(0, f.PerKB*kb)
	if err != nil {
		return 0, 0, err
	}
	return f.Base, sizeFee, nil
}

// CoreExchangeRate is a base/quote pair: amount-of-core per
// amount-of-non-core-asset, exactly as carried on AssetOptions.
type CoreExchangeRate struct {
	Base  types.Share // core-asset units
	Quote types.Share // non-core-asset units
}

// ConvertFromCore converts a core-denominated fee into the equivalent
// amount of a non-core fee-paying asset via rate, using a uint256
// intermediate for the multiply (spec §4.2 "uint256 for the intermediate
// multiply") so a large fee times a large quote never wraps before the
// divide narrows it back to a Share.
func ConvertFromCore(coreFee types.Share, rate CoreExchangeRate) (types.Share, error) {
	if rate.Base == 0 {
		return 0, chainerr.ErrEvaluation
	}
	if coreFee < 0 || rate.Quote < 0 || rate.Base < 0 {
		return 0, chainerr.ErrEvaluation
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(uint64(coreFee)), uint256.NewInt(uint64(rate.Quote)))
	quot := new(uint256.Int).Div(prod, uint256.NewInt(uint64(rate.Base)))
	if !quot.IsUint64() || quot.Uint64() > uint64(1<<63-1) {
		return 0, sharemath.ErrOverflow
	}
	return types.Share(quot.Uint64()), nil
}

// MaxProposalDepth bounds set_fee's recursion for nested proposal_create
// operations (spec §4.2: "bounded recursion depth = 4").
const MaxProposalDepth = 4

// SetFee computes the total fee for op, recursing into nested proposed
// operations if op is a proposal_create and summing their fees into the
// outer total (spec §4.2: "the outer fee is computed once each nested op
// has its fee field filled in"). Writing the computed amount back onto each
// operation's Fee field is the evaluator's job at apply time, since
// Operation values are concrete structs behind an interface here.
// depth starts at 0 for a top-level operation.
func SetFee(s *Schedule, op types.Operation, rate CoreExchangeRate, sizeBytes int, depth int) (types.Share, error) {
	if depth > MaxProposalDepth {
		return 0, chainerr.ErrResourceExceeded
	}
	base, sizeFee, err := s.CalculateFee(op.OpTag(), sizeBytes)
	if err != nil {
		return 0, err
	}
	total, err := sharemath.Add(base, sizeFee)
	if err != nil {
		return 0, err
	}

	if prop, ok := op.(types.ProposalCreateOp); ok {
		for _, nested := range prop.ProposedOps {
			nestedFee, err := SetFee(s, nested.Payload, rate, sizeBytes, depth+1)
			if err != nil {
				return 0, err
			}
			total, err = sharemath.Add(total, nestedFee)
			if err != nil {
				return 0, err
			}
		}
	}

	if rate.Base != 0 && rate.Quote != 0 {
		return ConvertFromCore(total, rate)
	}
	return total, nil
}
