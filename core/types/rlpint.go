package types

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// EncodeRLP lets Share satisfy rlp.Encoder directly: go-ethereum's rlp only
// has native support for unsigned integer kinds, and Share is a signed
// int64 (needed for internal accounting, e.g. native/award's negative
// approval sums). Every wire-visible Share (fees, amounts, pledges) is a
// non-negative quantity by construction, so the wire encoding is a plain
// uint64 and a negative value here means an invariant was already violated
// upstream.
func (s Share) EncodeRLP(w io.Writer) error {
	if s < 0 {
		return fmt.Errorf("types: cannot RLP-encode negative Share %d", s)
	}
	return rlp.Encode(w, uint64(s))
}

// DecodeRLP implements rlp.Decoder for Share.
func (s *Share) DecodeRLP(stream *rlp.Stream) error {
	var v uint64
	if err := stream.Decode(&v); err != nil {
		return err
	}
	*s = Share(v)
	return nil
}

// Opinion is a small signed integer used for score/vote-opinion fields that
// must be RLP-serializable (spec §6 score_create's -5..5 range, committee
// proposal opinions' -1/0/+1). Zigzag-mapped to an unsigned wire value since
// go-ethereum's rlp encoder rejects signed integer kinds outright.
type Opinion int8

func zigzagEncode(v int8) uint8 {
	return uint8((int32(v) << 1) ^ (int32(v) >> 7))
}

func zigzagDecode(v uint8) int8 {
	return int8((v >> 1) ^ -(v & 1))
}

// EncodeRLP implements rlp.Encoder for Opinion.
func (o Opinion) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, uint64(zigzagEncode(int8(o))))
}

// DecodeRLP implements rlp.Decoder for Opinion.
func (o *Opinion) DecodeRLP(stream *rlp.Stream) error {
	var v uint64
	if err := stream.Decode(&v); err != nil {
		return err
	}
	*o = Opinion(zigzagDecode(uint8(v)))
	return nil
}
