package core

import (
	"math/big"
)

// DefaultDifficulty adalah difficulty tetap untuk producer default.
const DefaultDifficulty = 1000

// BlockProducer adalah protokol pull untuk pipeline generator: setiap panggilan
// menghasilkan satu blok mentah berikutnya. Producer dasar tidak pernah habis;
// wrapper pembatas mengembalikan nil saat habis. Nil berarti "tidak ada nilai
// lagi", bukan error.
//
// Seluruh pipeline sengaja single-threaded: satu rantai producer hanya boleh
// dimajukan oleh satu goroutine, jadi tidak ada locking di jalur panas.
type BlockProducer interface {
	NextBlock() *Block
}

// CloneableProducer adalah producer yang bisa menduplikasi state posisinya.
// Clone tidak berbagi state dengan aslinya: memajukan salah satu tidak
// mempengaruhi yang lain.
type CloneableProducer interface {
	BlockProducer
	Clone() CloneableProducer
}

// ChainGenerator adalah producer dasar: deret blok tak berhingga dengan nomor
// berurutan dan difficulty tetap. Blok yang dihasilkan masih mentah; parent
// hash dan hash konten diisi oleh tahap completion.
type ChainGenerator struct {
	number     uint64
	difficulty *big.Int
}

// NewChainGenerator membuat producer default: mulai dari nomor 0 dengan
// difficulty 1000.
func NewChainGenerator() *ChainGenerator {
	return NewChainGeneratorAt(0, big.NewInt(DefaultDifficulty))
}

// NewChainGeneratorAt membuat producer yang mulai dari nomor dan difficulty
// tertentu. Difficulty nil atau tidak positif diganti dengan default.
func NewChainGeneratorAt(number uint64, difficulty *big.Int) *ChainGenerator {
	if difficulty == nil || difficulty.Sign() <= 0 {
		difficulty = big.NewInt(DefaultDifficulty)
	}
	return &ChainGenerator{
		number:     number,
		difficulty: new(big.Int).Set(difficulty),
	}
}

// NextBlock menghasilkan blok mentah berikutnya dan memajukan counter nomor.
func (g *ChainGenerator) NextBlock() *Block {
	block := NewBlock(g.number, g.difficulty)
	g.number++
	return block
}

// Clone menduplikasi posisi producer saat ini.
func (g *ChainGenerator) Clone() CloneableProducer {
	return &ChainGenerator{
		number:     g.number,
		difficulty: new(big.Int).Set(g.difficulty),
	}
}

// Number mengembalikan nomor blok berikutnya yang akan dihasilkan.
func (g *ChainGenerator) Number() uint64 {
	return g.number
}

type takeProducer struct {
	parent    BlockProducer
	remaining uint64
}

// Take membatasi producer ke paling banyak n blok; setelah itu NextBlock
// selalu mengembalikan nil. Pembatasan terjadi di sisi konsumsi, producer
// di bawahnya tetap tak berhingga.
func Take(parent BlockProducer, n uint64) BlockProducer {
	return &takeProducer{parent: parent, remaining: n}
}

func (t *takeProducer) NextBlock() *Block {
	if t.remaining == 0 {
		return nil
	}
	t.remaining--
	return t.parent.NextBlock()
}

// Blocks menguras sampai n blok mentah dari producer. Berhenti lebih awal
// kalau producer habis.
func Blocks(parent BlockProducer, n int) []*Block {
	out := make([]*Block, 0, n)
	for i := 0; i < n; i++ {
		block := parent.NextBlock()
		if block == nil {
			break
		}
		out = append(out, block)
	}
	return out
}
