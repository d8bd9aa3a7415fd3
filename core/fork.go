package core

import (
	"math/big"

	"chaingen/logger"
	"chaingen/metrics"
)

// Fork adalah cabang divergen dari sebuah producer. Saat dibuat, state posisi
// parent di-clone, jadi parent terus berjalan tanpa terpengaruh. Setiap blok
// yang keluar dari fork mendapat difficulty lebih rendah daripada blok kanonis
// bernomor sama, sehingga pembandingan berat cabang selalu deterministik.
type Fork struct {
	inner CloneableProducer
	delta *big.Int
}

// NewFork membuat cabang fork dari posisi producer saat ini. forkNumber adalah
// jarak fork dalam blok dan sekaligus besar pengurangan difficulty per blok;
// nilai 0 dinaikkan menjadi 1 supaya difficulty tetap turun ketat.
func NewFork(parent CloneableProducer, forkNumber uint64) *Fork {
	delta := forkNumber
	if delta == 0 {
		delta = 1
	}
	metrics.GetMetrics().IncrementForkCount()
	logger.LogForkEvent(forkNumber)
	return &Fork{
		inner: parent.Clone(),
		delta: new(big.Int).SetUint64(delta),
	}
}

// NextBlock mengambil blok berikutnya dari producer hasil clone dan menurunkan
// difficulty-nya. Difficulty tidak pernah turun di bawah 1; konfigurasikan
// difficulty dasar lebih besar dari delta fork agar urutan ketat terjaga.
func (f *Fork) NextBlock() *Block {
	block := f.inner.NextBlock()
	if block == nil {
		return nil
	}
	reduced := new(big.Int).Sub(block.Header.Difficulty, f.delta)
	if reduced.Sign() <= 0 {
		reduced = big.NewInt(1)
	}
	block.Header.Difficulty = reduced
	return block
}

// Clone menduplikasi fork beserta posisi producer di dalamnya, jadi fork dari
// fork tetap komposabel.
func (f *Fork) Clone() CloneableProducer {
	return &Fork{
		inner: f.inner.Clone(),
		delta: new(big.Int).Set(f.delta),
	}
}
