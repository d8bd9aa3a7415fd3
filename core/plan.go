package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"chaingen/interfaces"
	"chaingen/logger"
	"chaingen/metrics"
)

// Plan mendeskripsikan satu run pembangkitan secara deklaratif: panjang rantai
// kanonis, cabang fork opsional, dan dekorasi yang diterapkan ke kedua cabang.
// Run merakit pipeline (producer dasar, decorator, completion) lalu memompa
// hasilnya ke sink.
type Plan struct {
	StartNumber uint64
	Count       uint64
	Difficulty  *big.Int

	// Konfigurasi fork. ForkBlocks == 0 berarti tanpa cabang fork.
	ForkAt     uint64 // posisi kanonis tempat cabang berpisah
	ForkBlocks uint64 // jumlah blok pada cabang fork
	ForkNumber uint64 // pengurangan difficulty per blok fork

	// Dekorasi opsional, berlaku untuk kedua cabang.
	Bloom        *types.Bloom
	Transactions []*Transaction
}

// RunStats merangkum hasil satu run.
type RunStats struct {
	CanonicalBlocks uint64
	ForkBlocks      uint64
	HeadHash        [32]byte
	ForkHeadHash    [32]byte
	Elapsed         time.Duration
}

func (p *Plan) decorate(producer BlockProducer) BlockProducer {
	if p.Bloom != nil {
		producer = WithBloom(producer, *p.Bloom)
	}
	for _, tx := range p.Transactions {
		producer = WithTransaction(producer, tx)
	}
	return producer
}

// Run menjalankan plan dan menulis setiap payload ke sink. Sink boleh nil
// untuk membuang output (misalnya benchmark). Cabang kanonis dipompa lebih
// dulu sampai titik fork, lalu state producer dan finalizer diduplikasi untuk
// cabang fork, lalu kedua cabang diselesaikan.
func (p *Plan) Run(sink interfaces.BlockSinkItf) (*RunStats, error) {
	if p.Count == 0 {
		return nil, errors.New("plan: count must be greater than zero")
	}
	forked := p.ForkBlocks > 0
	if forked && p.ForkAt > p.Count {
		return nil, fmt.Errorf("plan: fork position %d beyond chain length %d", p.ForkAt, p.Count)
	}

	start := time.Now()
	stats := &RunStats{}
	base := NewChainGeneratorAt(p.StartNumber, p.Difficulty)
	finalizer := NewBlockFinalizer()
	canonical := NewCompleter(p.decorate(base), finalizer)
	txCount := len(p.Transactions)

	var forkCompleter *Completer
	if forked {
		n, last, err := pump(canonical, p.ForkAt, "canonical", txCount, sink)
		if err != nil {
			return nil, err
		}
		stats.CanonicalBlocks += n
		if n > 0 {
			stats.HeadHash = last
		}
		// Snapshot di titik fork: producer di-clone, finalizer diduplikasi.
		forkCompleter = NewCompleter(p.decorate(NewFork(base, p.ForkNumber)), finalizer.Fork())
		logger.Infof("Forking chain at block %d (fork number %d)", p.StartNumber+p.ForkAt, p.ForkNumber)
	}

	if rest := p.Count - stats.CanonicalBlocks; rest > 0 {
		n, last, err := pump(canonical, rest, "canonical", txCount, sink)
		if err != nil {
			return nil, err
		}
		stats.CanonicalBlocks += n
		if n > 0 {
			stats.HeadHash = last
		}
	}

	if forked {
		n, last, err := pump(forkCompleter, p.ForkBlocks, "fork", txCount, sink)
		if err != nil {
			return nil, err
		}
		stats.ForkBlocks = n
		if n > 0 {
			stats.ForkHeadHash = last
		}
	}

	if stats.CanonicalBlocks > 0 {
		metrics.GetMetrics().SetChainHeight(p.StartNumber + stats.CanonicalBlocks - 1)
	}
	stats.Elapsed = time.Since(start)
	logger.Infof("Generated %d canonical and %d fork blocks in %v",
		stats.CanonicalBlocks, stats.ForkBlocks, stats.Elapsed)
	return stats, nil
}

// pump menarik sampai n payload dari completer dan menulisnya ke sink.
// Berhenti lebih awal kalau producer habis.
func pump(completer *Completer, n uint64, branch string, txCount int, sink interfaces.BlockSinkItf) (uint64, [32]byte, error) {
	var last [32]byte
	for i := uint64(0); i < n; i++ {
		payload := completer.Next()
		if payload == nil {
			return i, last, nil
		}
		number, hash := completer.Last()
		if sink != nil {
			if err := sink.WriteBlock(number, hash, payload); err != nil {
				return i, last, fmt.Errorf("sink write failed at block %d: %v", number, err)
			}
		}
		logger.LogBlockEvent(number, hex.EncodeToString(hash[:]), txCount, branch)
		last = hash
	}
	return n, last, nil
}
