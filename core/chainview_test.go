package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sealedChain builds count completed blocks starting at number 0 and decodes
// them back, ready to feed into a view.
func sealedChain(t *testing.T, count int, difficulty *big.Int) []*Block {
	t.Helper()
	completer := NewCompleter(NewChainGeneratorAt(0, difficulty), NewBlockFinalizer())
	blocks := make([]*Block, 0, count)
	for i := 0; i < count; i++ {
		payload := completer.Next()
		require.NotNil(t, payload)
		block, err := DecodeBlock(payload)
		require.NoError(t, err)
		blocks = append(blocks, block)
	}
	return blocks
}

func TestChainViewLinkage(t *testing.T) {
	view := NewChainView()
	for _, block := range sealedChain(t, 3, nil) {
		require.NoError(t, view.Add(block))
	}

	assert.Equal(t, 3, view.Count())
	head := view.Head()
	require.NotNil(t, head)
	assert.Equal(t, uint64(2), head.Header.Number)
	assert.Len(t, view.Tips(), 1)

	td := view.TotalDifficulty(head.Header.Hash)
	require.NotNil(t, td)
	assert.Equal(t, uint64(3*DefaultDifficulty), td.Uint64())
}

func TestChainViewRejectsBadBlocks(t *testing.T) {
	view := NewChainView()
	blocks := sealedChain(t, 3, nil)

	assert.ErrorIs(t, view.Add(nil), ErrNilBlock)
	assert.ErrorIs(t, view.Add(blocks[1]), ErrUnknownParent)

	require.NoError(t, view.Add(blocks[0]))
	require.NoError(t, view.Add(blocks[1]))
	assert.ErrorIs(t, view.Add(blocks[1]), ErrKnownBlock)

	// A block whose number does not follow its parent is rejected.
	bad := NewBlock(7, big.NewInt(1000))
	bad.Header.ParentHash = blocks[1].Header.Hash
	err := view.Add(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not follow")
}

func TestChainViewTracksBothBranches(t *testing.T) {
	base := NewChainGenerator()
	finalizer := NewBlockFinalizer()
	canonical := NewCompleter(base, finalizer)

	view := NewChainView()
	add := func(completer *Completer) *Block {
		t.Helper()
		payload := completer.Next()
		require.NotNil(t, payload)
		block, err := DecodeBlock(payload)
		require.NoError(t, err)
		require.NoError(t, view.Add(block))
		return block
	}

	add(canonical) // 0
	add(canonical) // 1

	forked := NewCompleter(NewFork(base, 10), finalizer.Fork())

	add(canonical)             // 2
	canonTip := add(canonical) // 3
	add(forked)                // 2'
	forkTip := add(forked)     // 3'

	assert.Equal(t, 6, view.Count())
	assert.Len(t, view.Tips(), 2)

	// At equal length the canonical branch is heavier, so it keeps the head.
	head := view.Head()
	require.NotNil(t, head)
	assert.Equal(t, canonTip.Header.Hash, head.Header.Hash)

	canonTD := view.TotalDifficulty(canonTip.Header.Hash)
	forkTD := view.TotalDifficulty(forkTip.Header.Hash)
	require.NotNil(t, canonTD)
	require.NotNil(t, forkTD)
	assert.True(t, forkTD.Lt(canonTD))

	// Two shared blocks at 1000 plus two per branch: 1000 vs 990.
	assert.Equal(t, uint64(4000), canonTD.Uint64())
	assert.Equal(t, uint64(3980), forkTD.Uint64())
}

func TestChainViewBlockLookups(t *testing.T) {
	view := NewChainView()
	for _, block := range sealedChain(t, 5, big.NewInt(100)) {
		require.NoError(t, view.Add(block))
	}

	block := view.BlockByNumber(3)
	require.NotNil(t, block)
	assert.Equal(t, uint64(3), block.Header.Number)
	assert.Nil(t, view.BlockByNumber(9))

	byHash := view.BlockByHash(block.Header.Hash)
	require.NotNil(t, byHash)
	assert.Equal(t, block.Header.Hash, byHash.Header.Hash)

	assert.Nil(t, view.BlockByHash([32]byte{0xff}))
	assert.Nil(t, view.TotalDifficulty([32]byte{0xff}))
}

func TestChainViewEmpty(t *testing.T) {
	view := NewChainView()
	assert.Nil(t, view.Head())
	assert.Equal(t, 0, view.Count())
	assert.Empty(t, view.Tips())
}

func TestChainViewAcceptsNonZeroRoot(t *testing.T) {
	completer := NewCompleter(NewChainGeneratorAt(100, nil), NewBlockFinalizer())
	payload := completer.Next()
	require.NotNil(t, payload)
	block, err := DecodeBlock(payload)
	require.NoError(t, err)

	// The first block of any branch has a zero parent hash, whatever its
	// number, and the view treats it as a root.
	view := NewChainView()
	require.NoError(t, view.Add(block))
	require.NotNil(t, view.Head())
	assert.Equal(t, uint64(100), view.Head().Header.Number)
}
