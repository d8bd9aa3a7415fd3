package core

import (
	"chaingen/metrics"
)

// BlockFinalizer menyimpan parent hash berjalan untuk satu cabang rantai.
// Finalizer baru memegang hash nol, jadi blok pertama yang difinalisasi
// terbaca sebagai genesis. Satu finalizer melayani tepat satu cabang; untuk
// cabang divergen gunakan Fork.
type BlockFinalizer struct {
	parentHash [32]byte
	completed  uint64
}

// NewBlockFinalizer membuat finalizer segar dengan parent hash nol.
func NewBlockFinalizer() *BlockFinalizer {
	return &BlockFinalizer{}
}

// Fork menduplikasi state finalizer sehingga cabang lain bisa dilanjutkan dari
// titik yang sama tanpa mengganggu cabang asli.
func (f *BlockFinalizer) Fork() *BlockFinalizer {
	clone := *f
	return &clone
}

// ParentHash mengembalikan hash blok terakhir yang difinalisasi (nol kalau
// belum ada).
func (f *BlockFinalizer) ParentHash() [32]byte {
	return f.parentHash
}

// Completed mengembalikan jumlah blok yang sudah difinalisasi lewat finalizer
// ini.
func (f *BlockFinalizer) Completed() uint64 {
	return f.completed
}

// seal menautkan, menyegel, dan meng-encode satu blok mentah, lalu memajukan
// state finalizer. Hanya tahap completion yang memanggil ini; komponen lain
// tidak menulis ke finalizer.
func (f *BlockFinalizer) seal(block *Block) []byte {
	block.Header.ParentHash = f.parentHash
	block.Header.TxHash = CalculateTransactionsRoot(block.Transactions)

	hash := block.CalculateHash()
	block.Header.Hash = hash
	f.parentHash = hash
	f.completed++

	encoded, err := EncodeBlock(block)
	if err != nil {
		// Blok hasil pipeline selalu well-formed; encode tidak gagal dalam
		// praktik. Nil di sini hanya muncul kalau ada bug di producer.
		return nil
	}
	metrics.GetMetrics().IncrementBlockCount()
	return encoded
}

// Completer adalah tahap akhir pipeline: menarik blok mentah dari producer,
// memfinalisasinya terhadap satu finalizer, dan menghasilkan payload byte
// kanonis.
type Completer struct {
	parent     BlockProducer
	finalizer  *BlockFinalizer
	lastNumber uint64
	lastHash   [32]byte
}

// NewCompleter membungkus producer dengan tahap completion.
func NewCompleter(parent BlockProducer, finalizer *BlockFinalizer) *Completer {
	return &Completer{parent: parent, finalizer: finalizer}
}

// Next memfinalisasi blok berikutnya dan mengembalikan encoding kanonisnya.
// Nil berarti producer yang dibungkus sudah habis.
func (c *Completer) Next() []byte {
	block := c.parent.NextBlock()
	if block == nil {
		return nil
	}
	encoded := c.finalizer.seal(block)
	if encoded == nil {
		return nil
	}
	c.lastNumber = block.Header.Number
	c.lastHash = block.Header.Hash
	return encoded
}

// Last mengembalikan nomor dan hash blok terakhir yang keluar dari Next.
func (c *Completer) Last() (uint64, [32]byte) {
	return c.lastNumber, c.lastHash
}

// Generate adalah jalan pintas: completion lalu ambil tepat satu blok dari
// producer. Nil kalau producer habis.
func Generate(parent BlockProducer, finalizer *BlockFinalizer) []byte {
	return NewCompleter(parent, finalizer).Next()
}
