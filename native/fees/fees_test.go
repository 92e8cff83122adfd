package fees

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yoyow-org/yoyow-core-sub001/core/types"
)

func TestCalculateFeeFallsBackToDefault(t *testing.T) {
	s := NewSchedule(OpFee{Base: 10, PerKB: 1})
	base, sizeFee, err := s.CalculateFee(types.OpTransfer, 2048)
	require.NoError(t, err)
	require.Equal(t, types.Share(10), base)
	require.Equal(t, types.Share(2), sizeFee)
}

func TestCalculateFeeUsesSetSchedule(t *testing.T) {
	s := NewSchedule(OpFee{Base: 10, PerKB: 1})
	s.Set(types.OpAccountCreate, OpFee{Base: 500, PerKB: 5})
	base, sizeFee, err := s.CalculateFee(types.OpAccountCreate, 100)
	require.NoError(t, err)
	require.Equal(t, types.Share(500), base)
	require.Equal(t, types.Share(5), sizeFee)
}

func TestConvertFromCore(t *testing.T) {
	rate := CoreExchangeRate{Base: 1, Quote: 2} // 1 core == 2 quote
	amount, err := ConvertFromCore(100, rate)
	require.NoError(t, err)
	require.Equal(t, types.Share(200), amount)
}

func TestConvertFromCoreRejectsZeroBase(t *testing.T) {
	_, err := ConvertFromCore(100, CoreExchangeRate{Base: 0, Quote: 2})
	require.Error(t, err)
}

func TestSetFeeRecursesIntoProposal(t *testing.T) {
	s := NewSchedule(OpFee{Base: 10})
	s.Set(types.OpTransfer, OpFee{Base: 20})

	nested := types.TaggedOperation{Tag: types.OpTransfer, Payload: types.TransferOp{From: 1, To: 2, Amount: 5}}
	prop := types.ProposalCreateOp{Proposer: 1, ProposedOps: []types.TaggedOperation{nested}}

	total, err := SetFee(s, prop, CoreExchangeRate{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, types.Share(30), total) // 10 (proposal_create default) + 20 (nested transfer)
}

func TestSetFeeRejectsExcessiveDepth(t *testing.T) {
	s := NewSchedule(OpFee{Base: 10})
	var op types.Operation = types.TransferOp{From: 1, To: 2, Amount: 1}
	_, err := SetFee(s, op, CoreExchangeRate{}, 0, MaxProposalDepth+1)
	require.Error(t, err)
}
