package types

import "crypto/sha256"

// BlockID is the truncated header hash that identifies a block. The low 32
// bits double as the block number (enforced by production, see
// consensus/witness).
type BlockID [20]byte

// BlockNum extracts the block number encoded in the low 32 bits of id.
func (id BlockID) BlockNum() uint32 {
	return uint32(id[16])<<24 | uint32(id[17])<<16 | uint32(id[18])<<8 | uint32(id[19])
}

// Signature65 is a compact secp256k1 signature: 64 bytes of (r, s) plus a
// one-byte recovery id.
type Signature65 [65]byte

// BlockHeader is everything signed by the scheduled witness. Fields are RLP
// encoded in declaration order for both the signing digest and wire form.
type BlockHeader struct {
	Previous               BlockID
	Timestamp              uint32 // seconds since epoch
	Witness                AccountUID
	TransactionMerkleRoot  [20]byte
	Extensions             []byte
}

// Block is a header plus its witness signature and transaction list.
type Block struct {
	BlockHeader
	WitnessSignature Signature65
	Transactions     []SignedTransaction
}

// SigningBytes returns the RLP encoding of the header with the witness
// signature omitted, i.e. exactly what the witness signs and what
// block_id is derived from.
func (h BlockHeader) SigningBytes() ([]byte, error) {
	return rlpEncode(&h)
}

// SigningDigest computes sha256(chain_id || signing bytes), the preimage the
// scheduled witness signs, mirroring Transaction.SigDigest's chain-id mixing
// (distinct from DeriveBlockID, which hashes the signing bytes alone).
func (h BlockHeader) SigningDigest(chainID []byte) ([]byte, error) {
	raw, err := h.SigningBytes()
	if err != nil {
		return nil, err
	}
	sum := sha256.New()
	sum.Write(chainID)
	sum.Write(raw)
	return sum.Sum(nil), nil
}

// BlockSummary is the lightweight per-block record the TaPoS check and undo
// stack reference: enough to validate ref_block_num/ref_block_prefix without
// keeping full blocks around.
type BlockSummary struct {
	BlockNum  uint32
	BlockID   BlockID
	Timestamp uint32
}

// RefBlockPrefix returns the low 32 bits of the block id, the value a
// transaction's ref_block_prefix must match for TaPoS to accept it.
func (s BlockSummary) RefBlockPrefix() uint32 {
	return uint32(s.BlockID[16])<<24 | uint32(s.BlockID[17])<<16 | uint32(s.BlockID[18])<<8 | uint32(s.BlockID[19])
}

// DynamicGlobalProperties is the per-block rolling header the rest of the
// chain reads for "what block/time is it" and "who is scheduled next"
// without re-deriving it from the object store every time.
type DynamicGlobalProperties struct {
	HeadBlockNum    uint32
	HeadBlockID     BlockID
	Time            uint32
	CurrentWitness  AccountUID
	NextMaintenance uint32
	RecentSlotsFilled uint64 // bitset of the last 64 scheduled slots, missed = 0
	LastIrreversibleBlockNum uint32
	CurrentSupply   Share

	// BudgetPerBlock is the per-block core-asset issuance rate, recomputed
	// by core/maintenance's budget-adjust step (spec §4.7 step 10).
	BudgetPerBlock Share
	// CurrentAwardPeriod is the content/platform award period sequence
	// currently accruing ActivePost rows; bumped each time the award
	// engine settles a period (spec §4.6, §4.7 step 13).
	CurrentAwardPeriod uint32
}
