package types

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/rlp"
)

// rlpEncode is the single wire-codec entry point for header and transaction
// signing bytes, matching the teacher's choice of
// github.com/ethereum/go-ethereum/rlp as the tagged-union wire codec.
func rlpEncode(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// rlpDecode mirrors rlpEncode for reconstructing wire objects.
func rlpDecode(data []byte, v interface{}) error {
	return rlp.DecodeBytes(data, v)
}

// DeriveBlockID computes block_id = sha256(signing bytes of header)[:20].
func DeriveBlockID(h BlockHeader) (BlockID, error) {
	raw, err := h.SigningBytes()
	if err != nil {
		return BlockID{}, err
	}
	sum := sha256.Sum256(raw)
	var id BlockID
	copy(id[:], sum[:20])
	return id, nil
}
