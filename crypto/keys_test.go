package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTripsThroughBase58Check(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.PubKey().Address()

	decoded, err := DecodeAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr.Bytes(), decoded.Bytes())
	require.Equal(t, addr.Version(), decoded.Version())
}

func TestDecodeAddressRejectsCorruptedChecksum(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	encoded := key.PubKey().Address().String()

	corrupted := []byte(encoded)
	last := corrupted[len(corrupted)-1]
	if last == 'a' {
		corrupted[len(corrupted)-1] = 'b'
	} else {
		corrupted[len(corrupted)-1] = 'a'
	}

	_, err = DecodeAddress(string(corrupted))
	require.Error(t, err)
}

func TestDecodeAddressRejectsWrongLength(t *testing.T) {
	_, err := DecodeAddress("1")
	require.Error(t, err)
}

func TestPrivateKeyBytesRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), restored.PubKey().Address().String())
}
