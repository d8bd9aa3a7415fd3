package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256KnownVectors(t *testing.T) {
	// Keccak-256 of the empty input, the constant Ethereum uses everywhere.
	assert.Equal(t,
		"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256()))

	abc := Keccak256([]byte("abc"))
	assert.Equal(t,
		"4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
		hex.EncodeToString(abc))

	// Chunked input hashes the concatenation.
	assert.Equal(t, abc, Keccak256([]byte("a"), []byte("bc")))
}

func TestKeccak256HashMatchesKeccak256(t *testing.T) {
	h := Keccak256Hash([]byte("payload"))
	assert.Equal(t, Keccak256([]byte("payload")), h[:])
}

func TestSignRecoverRoundtrip(t *testing.T) {
	priv, addr, err := GenerateEthKeyPair()
	require.NoError(t, err)

	digest := Keccak256([]byte("hello world"))
	sig, err := Sign(digest, FromECDSA(priv))
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, recovered)
}

func TestSignIsDeterministic(t *testing.T) {
	key := Keccak256([]byte("fixed test key"))
	digest := Keccak256([]byte("fixed digest"))

	sigA, err := Sign(digest, key)
	require.NoError(t, err)
	sigB, err := Sign(digest, key)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
}

func TestRecoverAddressRejectsBadSignatures(t *testing.T) {
	digest := Keccak256([]byte("digest"))

	_, err := RecoverAddress(digest, make([]byte, 64)) // wrong length
	assert.Error(t, err)

	_, err = RecoverAddress(digest, make([]byte, 65)) // all-zero components
	assert.Error(t, err)
}

func TestPubKeyToAddressDerivation(t *testing.T) {
	priv, addr, err := GenerateEthKeyPair()
	require.NoError(t, err)
	assert.Equal(t, addr, PubKeyToAddress(&priv.PublicKey))

	// The address is the last 20 bytes of keccak(X || Y).
	pub := FromECDSAPub(&priv.PublicKey)
	require.Len(t, pub, 65)
	digest := Keccak256(pub[1:])
	assert.Equal(t, digest[12:], addr[:])
}

func TestECDSAKeyRoundtrip(t *testing.T) {
	priv, _, err := GenerateEthKeyPair()
	require.NoError(t, err)

	raw := FromECDSA(priv)
	require.Len(t, raw, 32)
	restored, err := ToECDSA(raw)
	require.NoError(t, err)
	assert.Equal(t, priv.D, restored.D)

	_, err = ToECDSA([]byte{0x01, 0x02})
	assert.Error(t, err)
}
