package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Keccak256 menghitung hash Keccak-256 (legacy, bukan SHA3-256 standar) dari input.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Keccak256Hash sama seperti Keccak256 tetapi mengembalikan hasilnya sebagai [32]byte.
func Keccak256Hash(data ...[]byte) [32]byte {
	var hash [32]byte
	copy(hash[:], Keccak256(data...))
	return hash
}

// Sign signs the given 32-byte digest with the raw private key bytes.
// The returned signature is 65 bytes in [R || S || V] form with V in {0, 1}.
// Signing is deterministic (RFC 6979 nonces), so repeated runs over the same
// input produce identical signatures.
func Sign(digest []byte, privateKeyBytes []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	key, err := ethcrypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return ethcrypto.Sign(digest, key)
}

// RecoverAddress recovers the signer address from a digest and a 65-byte
// [R || S || V] signature.
func RecoverAddress(digest []byte, sig []byte) ([20]byte, error) {
	var addr [20]byte
	if len(sig) != 65 {
		return addr, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	pubBytes, err := ethcrypto.Ecrecover(digest, sig)
	if err != nil {
		return addr, fmt.Errorf("ecrecover failed: %v", err)
	}
	// pubBytes dalam format uncompressed (0x04 + X + Y); alamat = keccak(X||Y)[12:]
	copy(addr[:], Keccak256(pubBytes[1:])[12:])
	return addr, nil
}

// ToECDSA creates a private key from raw bytes.
func ToECDSA(d []byte) (*ecdsa.PrivateKey, error) {
	return ethcrypto.ToECDSA(d)
}

// FromECDSA exports a private key to its raw 32-byte form.
func FromECDSA(priv *ecdsa.PrivateKey) []byte {
	return ethcrypto.FromECDSA(priv)
}

// FromECDSAPub mengembalikan public key dalam format uncompressed (0x04 + X + Y).
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	return ethcrypto.FromECDSAPub(pub)
}

// PubKeyToAddress derives the 20-byte address for a public key.
func PubKeyToAddress(pub *ecdsa.PublicKey) [20]byte {
	var addr [20]byte
	b := FromECDSAPub(pub)
	copy(addr[:], Keccak256(b[1:])[12:])
	return addr
}

// GenerateEthKeyPair generates a fresh secp256k1 key pair and its address.
func GenerateEthKeyPair() (*ecdsa.PrivateKey, [20]byte, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, [20]byte{}, fmt.Errorf("key generation failed: %v", err)
	}
	return key, PubKeyToAddress(&key.PublicKey), nil
}
