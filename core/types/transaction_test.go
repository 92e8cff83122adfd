package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionSigningBytesRoundTripsThroughDecode(t *testing.T) {
	tx := Transaction{
		RefBlockNum:    42,
		RefBlockPrefix: 0xdeadbeef,
		Expiration:     1_700_000_000,
		Operations: []TaggedOperation{
			{Tag: OpTransfer, Payload: TransferOp{From: 1, To: 2, Asset: 0, Amount: 500, Fee: 10}},
			{Tag: OpScoreCreate, Payload: ScoreCreateOp{Platform: 3, Poster: 4, Scorer: 5, Score: -5, CSAF: 200}},
		},
	}

	raw, err := tx.SigningBytes()
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, rlpDecode(raw, &decoded))

	require.Equal(t, tx.RefBlockNum, decoded.RefBlockNum)
	require.Equal(t, tx.RefBlockPrefix, decoded.RefBlockPrefix)
	require.Equal(t, tx.Expiration, decoded.Expiration)
	require.Len(t, decoded.Operations, 2)

	xfer, ok := decoded.Operations[0].Payload.(TransferOp)
	require.True(t, ok)
	require.Equal(t, Share(500), xfer.Amount)

	score, ok := decoded.Operations[1].Payload.(ScoreCreateOp)
	require.True(t, ok)
	require.Equal(t, Opinion(-5), score.Score)
}

func TestSignedTransactionEncodeDecodeRoundTrips(t *testing.T) {
	stx := SignedTransaction{
		Transaction: Transaction{
			RefBlockNum:    1,
			RefBlockPrefix: 2,
			Operations: []TaggedOperation{
				{Tag: OpTransfer, Payload: TransferOp{From: 1, To: 2, Amount: 100}},
			},
		},
		Signatures: []Signature65{{1, 2, 3}},
	}

	raw, err := rlpEncode(&stx)
	require.NoError(t, err)

	var decoded SignedTransaction
	require.NoError(t, rlpDecode(raw, &decoded))

	require.Len(t, decoded.Signatures, 1)
	require.Equal(t, stx.Signatures[0], decoded.Signatures[0])
	require.Len(t, decoded.Operations, 1)
}

func TestProposalCreateOpNestedOperationsRoundTrip(t *testing.T) {
	nested := TaggedOperation{Tag: OpTransfer, Payload: TransferOp{From: 1, To: 2, Amount: 7}}
	prop := ProposalCreateOp{Proposer: 9, ProposedOps: []TaggedOperation{nested}}

	raw, err := rlpEncode(prop)
	require.NoError(t, err)

	var decoded ProposalCreateOp
	require.NoError(t, rlpDecode(raw, &decoded))
	require.Len(t, decoded.ProposedOps, 1)

	xfer, ok := decoded.ProposedOps[0].Payload.(TransferOp)
	require.True(t, ok)
	require.Equal(t, Share(7), xfer.Amount)
}

func TestBlockHeaderSigningBytesDeriveBlockID(t *testing.T) {
	h := BlockHeader{
		Previous:  BlockID{1, 2, 3},
		Timestamp: 123,
		Witness:   7,
	}
	id, err := DeriveBlockID(h)
	require.NoError(t, err)
	require.NotEqual(t, BlockID{}, id)
}

func TestShareRejectsNegativeOnEncode(t *testing.T) {
	_, err := rlpEncode(Share(-1))
	require.Error(t, err)
}
