package core

import (
	"errors"
	"math/big"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink collects everything the plan writes, copying payloads per the
// sink contract.
type captureSink struct {
	numbers  []uint64
	hashes   [][32]byte
	payloads [][]byte
	closed   bool
}

func (s *captureSink) WriteBlock(number uint64, hash [32]byte, encoded []byte) error {
	payload := make([]byte, len(encoded))
	copy(payload, encoded)
	s.numbers = append(s.numbers, number)
	s.hashes = append(s.hashes, hash)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *captureSink) Close() error {
	s.closed = true
	return nil
}

type failingSink struct {
	failAfter int
	writes    int
}

func (s *failingSink) WriteBlock(number uint64, hash [32]byte, encoded []byte) error {
	s.writes++
	if s.writes > s.failAfter {
		return errors.New("disk full")
	}
	return nil
}

func (s *failingSink) Close() error { return nil }

func (s *captureSink) decodeAll(t *testing.T) []*Block {
	t.Helper()
	blocks := make([]*Block, 0, len(s.payloads))
	for _, payload := range s.payloads {
		block, err := DecodeBlock(payload)
		require.NoError(t, err)
		blocks = append(blocks, block)
	}
	return blocks
}

func TestPlanRunLinear(t *testing.T) {
	sink := &captureSink{}
	stats, err := (&Plan{Count: 5}).Run(sink)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), stats.CanonicalBlocks)
	assert.Equal(t, uint64(0), stats.ForkBlocks)
	require.Len(t, sink.payloads, 5)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, sink.numbers)
	assert.Equal(t, sink.hashes[4], stats.HeadHash)
	// Run never closes the sink, that is the caller's job.
	assert.False(t, sink.closed)

	// The payload stream replays into a single linked branch.
	view := NewChainView()
	for _, block := range sink.decodeAll(t) {
		require.NoError(t, view.Add(block))
	}
	assert.Len(t, view.Tips(), 1)
	assert.Equal(t, stats.HeadHash, view.Head().Header.Hash)
}

func TestPlanRunStartNumber(t *testing.T) {
	sink := &captureSink{}
	stats, err := (&Plan{Count: 3, StartNumber: 40}).Run(sink)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), stats.CanonicalBlocks)
	assert.Equal(t, []uint64{40, 41, 42}, sink.numbers)
}

func TestPlanRunWithFork(t *testing.T) {
	sink := &captureSink{}
	plan := &Plan{
		Count:      6,
		Difficulty: big.NewInt(1000),
		ForkAt:     3,
		ForkBlocks: 2,
		ForkNumber: 4,
	}

	stats, err := plan.Run(sink)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), stats.CanonicalBlocks)
	assert.Equal(t, uint64(2), stats.ForkBlocks)
	require.Len(t, sink.payloads, 8)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 3, 4}, sink.numbers)

	blocks := sink.decodeAll(t)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Header.Number < blocks[j].Header.Number
	})

	view := NewChainView()
	for _, block := range blocks {
		require.NoError(t, view.Add(block))
	}

	assert.Len(t, view.Tips(), 2)
	assert.Equal(t, stats.HeadHash, view.Head().Header.Hash)

	canonTD := view.TotalDifficulty(stats.HeadHash)
	forkTD := view.TotalDifficulty(stats.ForkHeadHash)
	require.NotNil(t, canonTD)
	require.NotNil(t, forkTD)
	assert.True(t, forkTD.Lt(canonTD))
}

func TestPlanRunForkFromGenesis(t *testing.T) {
	sink := &captureSink{}
	plan := &Plan{Count: 2, ForkAt: 0, ForkBlocks: 2, ForkNumber: 1}

	stats, err := plan.Run(sink)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.CanonicalBlocks)
	assert.Equal(t, uint64(2), stats.ForkBlocks)

	// Both branches start at block 0 with a zero parent hash, so the view
	// ends up with two roots.
	blocks := sink.decodeAll(t)
	view := NewChainView()
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Header.Number < blocks[j].Header.Number
	})
	for _, block := range blocks {
		require.NoError(t, view.Add(block))
	}
	assert.Len(t, view.Tips(), 2)
}

func TestPlanRunCountRequired(t *testing.T) {
	_, err := (&Plan{}).Run(nil)
	assert.Error(t, err)
}

func TestPlanRunForkBeyondLength(t *testing.T) {
	_, err := (&Plan{Count: 3, ForkAt: 5, ForkBlocks: 1}).Run(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beyond chain length")
}

func TestPlanRunNilSink(t *testing.T) {
	stats, err := (&Plan{Count: 4}).Run(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), stats.CanonicalBlocks)
	assert.NotEqual(t, [32]byte{}, stats.HeadHash)
}

func TestPlanRunSinkErrorStops(t *testing.T) {
	sink := &failingSink{failAfter: 2}
	_, err := (&Plan{Count: 5}).Run(sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink write failed")
	assert.Equal(t, 3, sink.writes)
}

func TestPlanRunDeterministic(t *testing.T) {
	run := func() *captureSink {
		sink := &captureSink{}
		plan := &Plan{
			Count:       5,
			StartNumber: 10,
			Difficulty:  big.NewInt(2000),
			ForkAt:      2,
			ForkBlocks:  3,
			ForkNumber:  7,
		}
		_, err := plan.Run(sink)
		require.NoError(t, err)
		return sink
	}

	first := run()
	second := run()
	require.Len(t, second.payloads, len(first.payloads))
	for i := range first.payloads {
		assert.Equal(t, first.payloads[i], second.payloads[i])
	}
}

func TestPlanRunDecorated(t *testing.T) {
	bloom := types.BytesToBloom([]byte{0xca, 0xfe})
	factory, err := NewTxFactory("plan-test", 2)
	require.NoError(t, err)
	tx, err := factory.NextTransaction()
	require.NoError(t, err)

	sink := &captureSink{}
	plan := &Plan{
		Count:        3,
		Bloom:        &bloom,
		Transactions: []*Transaction{tx},
	}
	_, err = plan.Run(sink)
	require.NoError(t, err)

	for _, block := range sink.decodeAll(t) {
		assert.Equal(t, bloom, block.Header.LogsBloom)
		require.Len(t, block.Transactions, 1)
		assert.Equal(t, tx.Hash, block.Transactions[0].Hash)
		assert.Equal(t, tx.From, block.Transactions[0].From)
	}
}
