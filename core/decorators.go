package core

import (
	"github.com/ethereum/go-ethereum/core/types"

	"chaingen/metrics"
)

// bloomDecorator menimpa logs bloom setiap blok dengan nilai yang
// dikonfigurasi.
type bloomDecorator struct {
	parent BlockProducer
	bloom  types.Bloom
}

// WithBloom membungkus producer sehingga setiap blok yang keluar membawa logs
// bloom 2048-bit yang diberikan. Blok tanpa decorator mempertahankan bloom
// kosong (zero value).
func WithBloom(parent BlockProducer, bloom types.Bloom) BlockProducer {
	return &bloomDecorator{parent: parent, bloom: bloom}
}

func (d *bloomDecorator) NextBlock() *Block {
	block := d.parent.NextBlock()
	if block == nil {
		return nil
	}
	block.Header.LogsBloom = d.bloom
	return block
}

// txDecorator melampirkan satu transaksi tetap ke setiap blok.
type txDecorator struct {
	parent BlockProducer
	tx     *Transaction
}

// WithTransaction membungkus producer sehingga setiap blok yang keluar membawa
// transaksi tersebut di akhir daftar transaksinya. Decorator yang ditumpuk
// menambahkan dari yang paling dalam ke yang paling luar. Urutan komposisi
// dengan WithBloom tidak mempengaruhi hasil: bloom selalu menimpa, transaksi
// selalu menambah.
func WithTransaction(parent BlockProducer, tx *Transaction) BlockProducer {
	return &txDecorator{parent: parent, tx: tx}
}

func (d *txDecorator) NextBlock() *Block {
	block := d.parent.NextBlock()
	if block == nil {
		return nil
	}
	block.Transactions = append(block.Transactions, d.tx)
	metrics.GetMetrics().AddTransactionsAttached(1)
	return block
}
