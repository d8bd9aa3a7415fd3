package database

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"chaingen/cache"
	"chaingen/core"
)

const (
	headKey      = "head"
	numKeyPrefix = "num_"
)

// encodeBlockNumber mengubah nomor blok menjadi 8 byte big-endian supaya
// urutan leksikal key sama dengan urutan numeriknya.
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func numberKey(number uint64) []byte {
	return append([]byte(numKeyPrefix), encodeBlockNumber(number)...)
}

// ChainStore menyimpan payload blok yang dihasilkan pipeline ke LevelDB,
// sehingga fixture bisa dipakai ulang lintas proses. Store adalah konsumen
// output generator; pipeline sendiri tidak pernah menyentuh storage.
//
// Layout key: hash mentah (32 byte) → payload RLP, "num_"+nomor big-endian →
// hash, dan "head" → hash blok terakhir yang ditulis. Blok fork menimpa index
// nomor blok kanonis senomor; gunakan ForEachBlock untuk membaca semua cabang.
type ChainStore struct {
	db    Database
	cache *cache.Cache
	mu    sync.RWMutex
}

func NewChainStore(path string) (*ChainStore, error) {
	db, err := NewLevelDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain store at %s: %v", path, err)
	}
	return &ChainStore{db: db, cache: cache.NewCache()}, nil
}

// WriteBlock mengimplementasikan interfaces.BlockSinkItf: satu payload final
// per panggilan, dalam urutan pemompaan pipeline.
func (s *ChainStore) WriteBlock(number uint64, hash [32]byte, encoded []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Salin payload; kontrak sink melarang menahan slice milik pemanggil.
	payload := make([]byte, len(encoded))
	copy(payload, encoded)

	if err := s.db.Put(hash[:], payload); err != nil {
		return fmt.Errorf("failed to store block %d: %v", number, err)
	}
	if err := s.db.Put(numberKey(number), hash[:]); err != nil {
		return fmt.Errorf("failed to index block %d: %v", number, err)
	}
	if err := s.db.Put([]byte(headKey), hash[:]); err != nil {
		return fmt.Errorf("failed to update head pointer: %v", err)
	}
	s.cache.Set(hex.EncodeToString(hash[:]), payload, cache.DefaultTTL)
	return nil
}

// BlockByHash mengembalikan blok berdasarkan hash, atau (nil, nil) kalau
// tidak ada.
func (s *ChainStore) BlockByHash(hash [32]byte) (*core.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blockByHash(hash)
}

func (s *ChainStore) blockByHash(hash [32]byte) (*core.Block, error) {
	cacheKey := hex.EncodeToString(hash[:])
	if cached, found := s.cache.Get(cacheKey); found {
		if payload, ok := cached.([]byte); ok {
			return core.DecodeBlock(payload)
		}
	}
	payload, err := s.db.Get(hash[:])
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	s.cache.Set(cacheKey, payload, cache.DefaultTTL)
	return core.DecodeBlock(payload)
}

// BlockByNumber mengembalikan blok lewat index nomor, atau (nil, nil). Untuk
// nomor yang ditulis dua cabang, yang terakhir ditulis yang menang.
func (s *ChainStore) BlockByNumber(number uint64) (*core.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashBytes, err := s.db.Get(numberKey(number))
	if err != nil {
		return nil, err
	}
	if hashBytes == nil {
		return nil, nil
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	return s.blockByHash(hash)
}

// Head mengembalikan blok terakhir yang ditulis, atau (nil, nil) untuk store
// kosong.
func (s *ChainStore) Head() (*core.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashBytes, err := s.db.Get([]byte(headKey))
	if err != nil {
		return nil, err
	}
	if hashBytes == nil {
		return nil, nil
	}
	var hash [32]byte
	copy(hash[:], hashBytes)
	return s.blockByHash(hash)
}

// ForEachBlock memanggil fn untuk setiap blok tersimpan, tanpa urutan
// tertentu. Key non-blok (index nomor, head pointer) dilewati berdasarkan
// panjang key.
func (s *ChainStore) ForEachBlock(fn func(*core.Block) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.ForEach(func(key, value []byte) error {
		if len(key) != 32 {
			return nil
		}
		block, err := core.DecodeBlock(value)
		if err != nil {
			return fmt.Errorf("corrupt block payload at key %x: %v", key, err)
		}
		return fn(block)
	})
}

func (s *ChainStore) Close() error {
	s.cache.Stop()
	return s.db.Close()
}
