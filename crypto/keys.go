package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/base58"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressVersion is the single leading version byte distinguishing address
// kinds encoded with this scheme (spec §6: "addresses are base58check over a
// version byte and the 20-byte account hash").
type AddressVersion byte

const (
	AccountAddressVersion AddressVersion = 0x1b
)

// Address represents a 20-byte account address tagged with a version byte.
type Address struct {
	version AddressVersion
	bytes   []byte
}

func NewAddress(version AddressVersion, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("address must be 20 bytes long, got %d", len(b))
	}
	cloned := append([]byte(nil), b...)
	return Address{version: version, bytes: cloned}, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
func MustNewAddress(version AddressVersion, b []byte) Address {
	addr, err := NewAddress(version, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// checksum is the leading 4 bytes of the double-sha256 of version||payload,
// the base58check convention this scheme borrows without a third-party
// base58check wrapper (the pack's base58 dependency is a raw alphabet codec
// only, so the checksum framing is hand-rolled here).
func checksum(version AddressVersion, payload []byte) [4]byte {
	first := sha256.Sum256(append([]byte{byte(version)}, payload...))
	second := sha256.Sum256(first[:])
	var out [4]byte
	copy(out[:], second[:4])
	return out
}

func (a Address) String() string {
	sum := checksum(a.version, a.bytes)
	buf := make([]byte, 0, 1+len(a.bytes)+4)
	buf = append(buf, byte(a.version))
	buf = append(buf, a.bytes...)
	buf = append(buf, sum[:]...)
	return base58.Encode(buf)
}

func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes...)
}

// Version returns the address's version byte.
func (a Address) Version() AddressVersion {
	return a.version
}

func DecodeAddress(addrStr string) (Address, error) {
	decoded := base58.Decode(addrStr)
	if len(decoded) != 1+20+4 {
		return Address{}, fmt.Errorf("invalid base58check address length %d", len(decoded))
	}
	version := AddressVersion(decoded[0])
	payload := decoded[1:21]
	wantSum := decoded[21:]
	gotSum := checksum(version, payload)
	if string(gotSum[:]) != string(wantSum) {
		return Address{}, fmt.Errorf("invalid address checksum")
	}
	return NewAddress(version, payload)
}

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

func (k *PublicKey) Address() Address {
	addrBytes := crypto.PubkeyToAddress(*k.PublicKey).Bytes()
	return MustNewAddress(AccountAddressVersion, addrBytes)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// CompressedPubkeyHex returns the hex-encoded compressed secp256k1 public
// key, the form core/authority.KeySet indexes a transaction's signers by
// (spec §4.3: "public keys (hex compressed secp256k1)").
func (k *PublicKey) CompressedPubkeyHex() string {
	return hex.EncodeToString(crypto.CompressPubkey(k.PublicKey))
}

// Sign produces a 65-byte recoverable secp256k1 signature (r||s||v, the
// go-ethereum convention) over digest. digest must be the 32-byte output of
// Transaction.SigDigest; a SignedTransaction carries one of these per
// required signing key.
func (k *PrivateKey) Sign(digest []byte) ([65]byte, error) {
	var out [65]byte
	sig, err := crypto.Sign(digest, k.PrivateKey)
	if err != nil {
		return out, err
	}
	copy(out[:], sig)
	return out, nil
}

// RecoverCompressedPubkeyHex recovers the compressed secp256k1 public key
// (hex-encoded) that produced sig over digest. core/tx calls this once per
// signature to build the authority.KeySet a transaction's signatures
// satisfy.
func RecoverCompressedPubkeyHex(digest []byte, sig [65]byte) (string, error) {
	pub, err := crypto.SigToPub(digest, sig[:])
	if err != nil {
		return "", fmt.Errorf("crypto: recover pubkey: %w", err)
	}
	return hex.EncodeToString(crypto.CompressPubkey(pub)), nil
}
