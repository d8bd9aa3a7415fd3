package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"chaingen/crypto"
	"chaingen/logger"
)

// BlockHeader mendefinisikan struktur header sebuah blok sintetis.
// Producer hanya mengisi Number dan Difficulty; ParentHash, TxHash dan Hash
// diisi oleh tahap completion. Field lain tetap zero value supaya output
// deterministik.
type BlockHeader struct {
	Number      uint64      `json:"number"`
	ParentHash  [32]byte    `json:"parentHash"`
	Timestamp   uint64      `json:"timestamp"`
	StateRoot   [32]byte    `json:"stateRoot"`
	TxHash      [32]byte    `json:"transactionsRoot"`
	ReceiptHash [32]byte    `json:"receiptsRoot"`
	LogsBloom   types.Bloom `json:"logsBloom"`
	GasLimit    uint64      `json:"gasLimit"`
	GasUsed     uint64      `json:"gasUsed"`
	Difficulty  *big.Int    `json:"difficulty"`
	Nonce       uint64      `json:"nonce"`
	Miner       [20]byte    `json:"miner"`
	MixHash     [32]byte    `json:"mixHash"`
	ExtraData   []byte      `json:"extraData,omitempty"`
	Hash        [32]byte    `json:"hash" rlp:"-"` // Cache hash konten, tidak ikut encoding
}

func (bh *BlockHeader) GetNumber() uint64       { return bh.Number }
func (bh *BlockHeader) GetParentHash() [32]byte { return bh.ParentHash }
func (bh *BlockHeader) GetDifficulty() *big.Int { return new(big.Int).Set(bh.Difficulty) } // Kembalikan salinan
func (bh *BlockHeader) GetHash() [32]byte       { return bh.Hash }

// Block adalah satu blok sintetis: header, daftar transaksi, dan uncle list
// (selalu kosong pada rantai hasil generator, dipertahankan demi bentuk
// kanonis payload).
type Block struct {
	Header       *BlockHeader   `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Uncles       []*BlockHeader `json:"uncles"`
}

// NewBlock membuat blok mentah baru. Hanya number dan difficulty yang diisi;
// field lain menunggu decorator dan tahap completion.
func NewBlock(number uint64, difficulty *big.Int) *Block {
	if difficulty == nil {
		difficulty = new(big.Int)
	}
	header := &BlockHeader{
		Number:     number,
		Difficulty: new(big.Int).Set(difficulty), // Pastikan difficulty disalin
	}
	return &Block{
		Header:       header,
		Transactions: []*Transaction{},
		Uncles:       []*BlockHeader{},
	}
}

// CalculateHash menghitung hash konten blok: keccak256 dari RLP encoding
// header. Header berkomitmen ke body lewat TxHash, jadi hash ini mencakup
// header sekaligus transaksi di dalamnya.
func (b *Block) CalculateHash() [32]byte {
	encoded, err := rlp.EncodeToBytes(b.Header)
	if err != nil {
		// Hanya bisa terjadi kalau difficulty negatif; generator menjaga >= 0.
		logger.Errorf("Failed to encode header for hashing: %v", err)
		return [32]byte{}
	}
	return crypto.Keccak256Hash(encoded)
}

// EncodeBlock menserialisasi blok final ke bentuk byte kanonisnya (RLP).
func EncodeBlock(block *Block) ([]byte, error) {
	if block == nil || block.Header == nil {
		return nil, errors.New("cannot encode nil block")
	}
	encoded, err := rlp.EncodeToBytes(block)
	if err != nil {
		return nil, fmt.Errorf("failed to encode block %d: %v", block.Header.Number, err)
	}
	return encoded, nil
}

// DecodeBlock membaca kembali payload kanonis menjadi blok. Hash header dan
// hash transaksi dihitung ulang; alamat pengirim dipulihkan dari signature
// bila ada.
func DecodeBlock(raw []byte) (*Block, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty block payload")
	}
	var block Block
	if err := rlp.DecodeBytes(raw, &block); err != nil {
		return nil, fmt.Errorf("failed to decode block payload: %v", err)
	}
	if block.Header == nil {
		return nil, errors.New("decoded block has no header")
	}
	block.Header.Hash = block.CalculateHash()
	for _, tx := range block.Transactions {
		tx.Hash = tx.signingHash()
		if tx.V != nil && tx.V.Sign() != 0 {
			if from, err := tx.SenderAddress(); err == nil {
				tx.From = from
			}
		}
	}
	return &block, nil
}

// CalculateTransactionsRoot menghitung akar hash daftar transaksi: keccak
// dari gabungan hash tiap transaksi. Daftar kosong menghasilkan keccak(nil).
func CalculateTransactionsRoot(transactions []*Transaction) [32]byte {
	if len(transactions) == 0 {
		return crypto.Keccak256Hash(nil)
	}
	var combined []byte
	for _, tx := range transactions {
		h := tx.GetHash()
		combined = append(combined, h[:]...)
	}
	return crypto.Keccak256Hash(combined)
}
