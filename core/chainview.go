package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"chaingen/logger"
	"chaingen/metrics"
)

var (
	ErrNilBlock      = errors.New("nil block")
	ErrKnownBlock    = errors.New("block already known")
	ErrUnknownParent = errors.New("parent block not known")
)

// ChainView adalah indeks in-memory atas blok hasil decode, untuk membandingkan
// cabang kanonis dan cabang fork yang dihasilkan generator. View hanya
// scaffolding konsumen: pipeline generator tidak pernah membacanya, dan tidak
// ada persistensi.
//
// Head adalah ujung cabang dengan difficulty kumulatif terbesar. Difficulty
// kumulatif dihitung penuh 256-bit.
type ChainView struct {
	mu         sync.RWMutex
	blocks     map[[32]byte]*Block
	difficulty map[[32]byte]*uint256.Int // TD kumulatif per blok
	tips       map[[32]byte]struct{}
	head       [32]byte
}

func NewChainView() *ChainView {
	return &ChainView{
		blocks:     make(map[[32]byte]*Block),
		difficulty: make(map[[32]byte]*uint256.Int),
		tips:       make(map[[32]byte]struct{}),
	}
}

// Add memasukkan satu blok ke view. Parent-nya harus sudah dikenal, kecuali
// blok akar (parent hash nol). Nomor blok harus tepat satu di atas parent.
func (cv *ChainView) Add(block *Block) error {
	if block == nil || block.Header == nil {
		return ErrNilBlock
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()

	hash := block.Header.Hash
	if hash == ([32]byte{}) {
		hash = block.CalculateHash()
		block.Header.Hash = hash
	}
	if _, exists := cv.blocks[hash]; exists {
		return ErrKnownBlock
	}

	parentTD := new(uint256.Int)
	if block.Header.ParentHash != ([32]byte{}) {
		parent, ok := cv.blocks[block.Header.ParentHash]
		if !ok {
			return ErrUnknownParent
		}
		if block.Header.Number != parent.Header.Number+1 {
			return fmt.Errorf("block number %d does not follow parent number %d",
				block.Header.Number, parent.Header.Number)
		}
		parentTD = cv.difficulty[block.Header.ParentHash]
	}

	diff, overflow := uint256.FromBig(block.Header.GetDifficulty())
	if overflow {
		return fmt.Errorf("block %d difficulty overflows 256 bits", block.Header.Number)
	}
	td := new(uint256.Int).Add(parentTD, diff)

	cv.blocks[hash] = block
	cv.difficulty[hash] = td
	delete(cv.tips, block.Header.ParentHash)
	cv.tips[hash] = struct{}{}

	// Cabang terberat menjadi head; seri mempertahankan head lama.
	if cv.head == ([32]byte{}) || td.Gt(cv.difficulty[cv.head]) {
		cv.head = hash
		metrics.GetMetrics().SetChainHeight(block.Header.Number)
		logger.Debugf("Chain view head is now block %d (td=%s)", block.Header.Number, td.Dec())
	}
	return nil
}

// Head mengembalikan blok ujung cabang terberat, atau nil kalau view kosong.
func (cv *ChainView) Head() *Block {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.blocks[cv.head]
}

// TotalDifficulty mengembalikan salinan TD kumulatif sebuah blok, atau nil
// kalau blok tidak dikenal.
func (cv *ChainView) TotalDifficulty(hash [32]byte) *uint256.Int {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	td, ok := cv.difficulty[hash]
	if !ok {
		return nil
	}
	return new(uint256.Int).Set(td)
}

// BlockByHash mengembalikan blok berdasarkan hash, atau nil.
func (cv *ChainView) BlockByHash(hash [32]byte) *Block {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.blocks[hash]
}

// BlockByNumber menelusuri cabang terberat dari head ke akar dan mengembalikan
// blok dengan nomor tersebut, atau nil kalau di luar cabang.
func (cv *ChainView) BlockByNumber(number uint64) *Block {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	current := cv.blocks[cv.head]
	for current != nil && current.Header.Number > number {
		current = cv.blocks[current.Header.ParentHash]
	}
	if current != nil && current.Header.Number == number {
		return current
	}
	return nil
}

// Tips mengembalikan hash semua ujung cabang yang dikenal view.
func (cv *ChainView) Tips() [][32]byte {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	out := make([][32]byte, 0, len(cv.tips))
	for tip := range cv.tips {
		out = append(out, tip)
	}
	return out
}

// Count mengembalikan jumlah blok dalam view.
func (cv *ChainView) Count() int {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return len(cv.blocks)
}
