package interfaces

// BlockSinkItf menerima payload blok yang sudah difinalisasi dari pipeline.
// Implementasi: database.ChainStore, file sink di package cmd, dan sink
// in-memory pada test.
type BlockSinkItf interface {
	// WriteBlock receives one finalized block: its header number, its content
	// hash, and the canonical encoded payload. Implementations must not
	// retain the encoded slice.
	WriteBlock(number uint64, hash [32]byte, encoded []byte) error
	Close() error
}
