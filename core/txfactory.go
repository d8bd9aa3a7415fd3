package core

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sync"

	"chaingen/crypto"
)

const (
	// Gas limit transfer standar, dipakai untuk semua transaksi fixture.
	defaultTxGasLimit = 21000
	// Gas price minimum, mengikuti ambang mempool node.
	defaultTxGasPrice = 1000
	// Nilai transfer tetap untuk transaksi fixture.
	defaultTxValue = 1000
)

// TxFactory menghasilkan transaksi transfer bertanda tangan secara
// deterministik untuk dilampirkan ke blok sintetis. Private key diturunkan
// dari string seed, jadi seed yang sama selalu menghasilkan pengirim, nonce,
// dan signature yang sama.
type TxFactory struct {
	mu     sync.Mutex
	keys   [][]byte // private key mentah per akun
	addrs  [][20]byte
	nonces map[[20]byte]uint64
	next   int // indeks pengirim round-robin
}

// NewTxFactory membuat factory dengan sejumlah akun yang diturunkan dari seed.
func NewTxFactory(seed string, accounts int) (*TxFactory, error) {
	if accounts <= 0 {
		accounts = 1
	}
	f := &TxFactory{
		keys:   make([][]byte, 0, accounts),
		addrs:  make([][20]byte, 0, accounts),
		nonces: make(map[[20]byte]uint64),
	}
	for i := 0; i < accounts; i++ {
		key, err := deriveKey(seed, uint64(i))
		if err != nil {
			return nil, fmt.Errorf("failed to derive key %d: %v", i, err)
		}
		f.keys = append(f.keys, key)
		priv, err := crypto.ToECDSA(key)
		if err != nil {
			return nil, fmt.Errorf("derived key %d is invalid: %v", i, err)
		}
		f.addrs = append(f.addrs, crypto.PubKeyToAddress(&priv.PublicKey))
	}
	return f, nil
}

// deriveKey menurunkan private key ke-index dari seed: keccak(seed || index).
// Kalau hasilnya bukan skalar secp256k1 yang valid (praktis tidak pernah),
// hash diulang sampai valid.
func deriveKey(seed string, index uint64) ([]byte, error) {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	raw := crypto.Keccak256([]byte(seed), idx[:])
	for attempt := 0; attempt < 8; attempt++ {
		if _, err := crypto.ToECDSA(raw); err == nil {
			return raw, nil
		}
		raw = crypto.Keccak256(raw)
	}
	return nil, fmt.Errorf("no valid key after 8 attempts for index %d", index)
}

// NextTransaction menghasilkan transfer bertanda tangan berikutnya: pengirim
// dipilih round-robin, penerima adalah akun setelahnya, nonce naik per
// pengirim.
func (f *TxFactory) NextTransaction() (*Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sender := f.next % len(f.keys)
	recipient := (sender + 1) % len(f.addrs)
	f.next++

	from := f.addrs[sender]
	nonce := f.nonces[from]
	f.nonces[from] = nonce + 1

	to := f.addrs[recipient]
	tx := NewTransaction(nonce, &to, big.NewInt(defaultTxValue), defaultTxGasLimit, big.NewInt(defaultTxGasPrice), nil)
	if err := tx.Sign(f.keys[sender]); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %v", err)
	}
	return tx, nil
}

// Accounts mengembalikan salinan daftar alamat akun factory.
func (f *TxFactory) Accounts() [][20]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][20]byte, len(f.addrs))
	copy(out, f.addrs)
	return out
}

// Nonce mengembalikan nonce berikutnya untuk sebuah alamat.
func (f *TxFactory) Nonce(addr [20]byte) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[addr]
}
