package types

import (
	"crypto/sha256"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// OpTag identifies the concrete operation a tagged-union slot holds. Values
// are assigned consecutively in declaration order, with no gaps; the two
// contract-originated operations (inter_contract_call, inline_transfer)
// come last.
type OpTag uint32

const (
	OpAccountCreate OpTag = iota
	OpAccountManage
	OpAccountUpdateKey
	OpAccountUpdateAuth
	OpAccountUpdateProxy
	OpAccountAuthPlatform
	OpAccountCancelAuthPlatform
	OpAccountEnableAllowedAssets
	OpAccountUpdateAllowedAssets
	OpAccountWhitelist

	OpCommitteeMemberCreate
	OpCommitteeMemberUpdate
	OpCommitteeMemberVoteUpdate
	OpCommitteeProposalCreate
	OpCommitteeProposalUpdate

	OpWitnessCreate
	OpWitnessUpdate
	OpWitnessVoteUpdate
	OpWitnessCollectPay
	OpWitnessReport

	OpPlatformCreate
	OpPlatformUpdate
	OpPlatformVoteUpdate

	OpPost
	OpPostUpdate
	OpScoreCreate
	OpReward
	OpRewardProxy
	OpBuyout
	OpLicenseCreate

	OpCSAFCollect
	OpCSAFLease

	OpAssetCreate
	OpAssetIssue
	OpAssetReserve
	OpAssetUpdate
	OpAssetClaimFees
	OpTransfer
	OpOverrideTransfer

	OpProposalCreate
	OpProposalUpdate
	OpProposalDelete

	OpInterContractCall
	OpInlineTransfer
)

// Operation is any tagged-union payload a transaction may carry. FeePayer
// identifies the account whose balance the fee schedule debits.
type Operation interface {
	OpTag() OpTag
	FeePayer() AccountUID
}

// TaggedOperation pairs a decoded operation with the tag it arrived under.
// Operation is an interface, which go-ethereum's reflection-based rlp
// encoder cannot walk into directly, so TaggedOperation implements
// rlp.Encoder/Decoder itself: on the wire it is (tag, raw-encoded-payload),
// re-hydrated through decodeOperationPayload's tag registry on decode. This
// also makes nested operation lists (ProposalCreateOp.ProposedOps) wire-safe
// for free, since they carry the same interface field.
type TaggedOperation struct {
	Tag     OpTag
	Payload Operation
}

type rlpTaggedOperation struct {
	Tag     uint32
	Payload []byte
}

// EncodeRLP implements rlp.Encoder for TaggedOperation.
func (t TaggedOperation) EncodeRLP(w io.Writer) error {
	raw, err := rlpEncode(t.Payload)
	if err != nil {
		return err
	}
	return rlp.Encode(w, &rlpTaggedOperation{Tag: uint32(t.Tag), Payload: raw})
}

// DecodeRLP implements rlp.Decoder for TaggedOperation.
func (t *TaggedOperation) DecodeRLP(stream *rlp.Stream) error {
	var wire rlpTaggedOperation
	if err := stream.Decode(&wire); err != nil {
		return err
	}
	tag := OpTag(wire.Tag)
	payload, err := decodeOperationPayload(tag, wire.Payload)
	if err != nil {
		return err
	}
	t.Tag = tag
	t.Payload = payload
	return nil
}

// Transaction is the unsigned, TaPoS-anchored envelope every operation
// travels inside.
type Transaction struct {
	RefBlockNum    uint16
	RefBlockPrefix uint32
	Expiration     uint32 // seconds since epoch
	Operations     []TaggedOperation
	Extensions     []byte
}

// SignedTransaction adds the detached signature set to a Transaction.
type SignedTransaction struct {
	Transaction
	Signatures []Signature65
}

// SigningBytes returns the RLP encoding of the transaction without
// signatures, the preimage used to compute SigDigest.
func (tx Transaction) SigningBytes() ([]byte, error) {
	return rlpEncode(&tx)
}

// SigDigest computes sha256(chain_id || serialized_tx_without_signatures),
// the value every signature in Signatures must recover to the transaction's
// authorities against.
func (tx Transaction) SigDigest(chainID []byte) ([]byte, error) {
	body, err := tx.SigningBytes()
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(chainID)
	h.Write(body)
	return h.Sum(nil), nil
}

// ID identifies a signed transaction for the dedup window: sha256 of its
// full wire encoding, signatures included, so two transactions carrying the
// same operations but different signers are distinct entries.
func (tx SignedTransaction) ID() ([32]byte, error) {
	raw, err := rlpEncode(&tx)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(raw), nil
}
