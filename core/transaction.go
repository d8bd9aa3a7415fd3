package core

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"chaingen/crypto"
)

// Transaction adalah transaksi bertanda tangan yang dilampirkan ke blok
// sintetis. Generator tidak pernah mengeksekusinya; transaksi hanya payload.
type Transaction struct {
	Nonce    uint64    `json:"nonce"`
	GasPrice *big.Int  `json:"gasPrice"`
	GasLimit uint64    `json:"gasLimit"`
	To       *[20]byte `json:"to" rlp:"nil"` // Pointer karena bisa nil (contract creation)
	Value    *big.Int  `json:"value"`
	Data     []byte    `json:"data"`
	V        *big.Int  `json:"v"`
	R        *big.Int  `json:"r"`
	S        *big.Int  `json:"s"`
	Hash     [32]byte  `json:"hash" rlp:"-"` // Cache hash transaksi
	From     [20]byte  `json:"from" rlp:"-"` // Alamat pengirim, diisi setelah penandatanganan
}

func (tx *Transaction) GetHash() [32]byte        { return tx.Hash }
func (tx *Transaction) GetFrom() [20]byte        { return tx.From }
func (tx *Transaction) GetTo() *[20]byte         { return tx.To }
func (tx *Transaction) GetValue() *big.Int       { return new(big.Int).Set(tx.Value) } // Kembalikan salinan
func (tx *Transaction) GetData() []byte          { return tx.Data }
func (tx *Transaction) GetNonce() uint64         { return tx.Nonce }
func (tx *Transaction) GetGasPrice() *big.Int    { return new(big.Int).Set(tx.GasPrice) } // Kembalikan salinan
func (tx *Transaction) GetGasLimit() uint64      { return tx.GasLimit }
func (tx *Transaction) IsContractCreation() bool { return tx.To == nil }

// NewTransaction membuat instance transaksi baru. Hash dihitung saat pembuatan.
func NewTransaction(nonce uint64, to *[20]byte, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	if value == nil {
		value = big.NewInt(0)
	}
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	tx := &Transaction{
		Nonce:    nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		To:       to,
		Value:    value,
		Data:     data,
		// V, R, S, From diisi oleh Sign
	}
	tx.Hash = tx.signingHash()
	return tx
}

// signingHash menghitung hash yang ditandatangani: keccak256 dari RLP encoding
// (Nonce, GasPrice, GasLimit, To, Value, Data), tanpa signature dan tanpa
// chain ID. Hash ini juga dipakai sebagai identifier transaksi.
func (tx *Transaction) signingHash() [32]byte {
	image := struct {
		Nonce    uint64
		GasPrice *big.Int
		GasLimit uint64
		To       *[20]byte `rlp:"nil"`
		Value    *big.Int
		Data     []byte
	}{tx.Nonce, tx.GasPrice, tx.GasLimit, tx.To, tx.Value, tx.Data}

	encoded, err := rlp.EncodeToBytes(&image)
	if err != nil {
		return [32]byte{}
	}
	return crypto.Keccak256Hash(encoded)
}

// Sign menandatangani transaksi dengan private key mentah (32 byte) dan
// memulihkan alamat pengirim ke field From. Signature deterministik, jadi
// rantai hasil generate bisa direproduksi byte demi byte.
func (tx *Transaction) Sign(privateKeyBytes []byte) error {
	signingHash := tx.signingHash()

	sig, err := crypto.Sign(signingHash[:], privateKeyBytes)
	if err != nil {
		return err
	}

	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetInt64(int64(sig[64]) + 27)

	fromAddr, err := crypto.RecoverAddress(signingHash[:], sig)
	if err != nil {
		return fmt.Errorf("failed to recover address from signature: %v", err)
	}
	tx.From = fromAddr
	return nil
}

// SenderAddress memulihkan alamat pengirim dari V, R, S.
func (tx *Transaction) SenderAddress() ([20]byte, error) {
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return [20]byte{}, fmt.Errorf("transaction is not signed")
	}

	signingHash := tx.signingHash()

	// R dan S harus rata kanan dalam slot 32 byte masing-masing
	sig := make([]byte, 65)
	rb := tx.R.Bytes()
	sb := tx.S.Bytes()
	if len(rb) > 32 || len(sb) > 32 {
		return [20]byte{}, fmt.Errorf("invalid signature component length")
	}
	copy(sig[32-len(rb):32], rb)
	copy(sig[64-len(sb):64], sb)
	v := tx.V.Int64() - 27
	if v != 0 && v != 1 {
		return [20]byte{}, fmt.Errorf("invalid recovery id %d", tx.V.Int64())
	}
	sig[64] = byte(v)

	return crypto.RecoverAddress(signingHash[:], sig)
}

// VerifySignature memeriksa bahwa signature valid dan cocok dengan From.
func (tx *Transaction) VerifySignature() bool {
	if tx.From == ([20]byte{}) {
		return false
	}
	recovered, err := tx.SenderAddress()
	if err != nil {
		return false
	}
	return recovered == tx.From
}
