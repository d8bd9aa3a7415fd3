package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkProducesLighterBlocks(t *testing.T) {
	base := NewChainGeneratorAt(0, big.NewInt(1000))
	base.NextBlock()

	fork := NewFork(base, 1)

	canonical := base.NextBlock()
	forked := fork.NextBlock()
	require.NotNil(t, canonical)
	require.NotNil(t, forked)

	assert.Equal(t, canonical.Header.Number, forked.Header.Number)
	assert.Equal(t, int64(1000), canonical.Header.Difficulty.Int64())
	assert.Equal(t, int64(999), forked.Header.Difficulty.Int64())
	assert.Equal(t, -1, forked.Header.Difficulty.Cmp(canonical.Header.Difficulty))
}

func TestForkZeroNumberStillDiverges(t *testing.T) {
	fork := NewFork(NewChainGenerator(), 0)
	block := fork.NextBlock()
	require.NotNil(t, block)
	assert.Equal(t, int64(DefaultDifficulty-1), block.Header.Difficulty.Int64())
}

func TestForkDifficultyClampedToOne(t *testing.T) {
	base := NewChainGeneratorAt(0, big.NewInt(3))
	fork := NewFork(base, 10)
	block := fork.NextBlock()
	require.NotNil(t, block)
	assert.Equal(t, int64(1), block.Header.Difficulty.Int64())
}

func TestForkDoesNotDisturbParent(t *testing.T) {
	base := NewChainGenerator()
	base.NextBlock()
	fork := NewFork(base, 2)

	// Parent keeps counting from where it was, the fork advances on its own.
	assert.Equal(t, uint64(1), base.NextBlock().Header.Number)
	assert.Equal(t, uint64(1), fork.NextBlock().Header.Number)
	assert.Equal(t, uint64(2), base.NextBlock().Header.Number)
}

func TestForkOfForkComposes(t *testing.T) {
	base := NewChainGeneratorAt(0, big.NewInt(1000))
	fork := NewFork(base, 5)
	nested := NewFork(fork, 3)

	block := nested.NextBlock()
	require.NotNil(t, block)
	assert.Equal(t, int64(1000-5-3), block.Header.Difficulty.Int64())
}

func TestForkExhaustsWithLimitedParent(t *testing.T) {
	fork := NewFork(NewChainGenerator(), 1)
	limited := Take(fork, 1)
	require.NotNil(t, limited.NextBlock())
	assert.Nil(t, limited.NextBlock())
}

func TestForkedChainsDivergeAfterSealing(t *testing.T) {
	base := NewChainGenerator()
	finalizer := NewBlockFinalizer()
	canonical := NewCompleter(base, finalizer)

	// Shared prefix.
	require.NotNil(t, canonical.Next())

	forked := NewCompleter(NewFork(base, 1), finalizer.Fork())

	canonPayload := canonical.Next()
	forkPayload := forked.Next()
	require.NotNil(t, canonPayload)
	require.NotNil(t, forkPayload)
	assert.NotEqual(t, canonPayload, forkPayload)

	canonBlock, err := DecodeBlock(canonPayload)
	require.NoError(t, err)
	forkBlock, err := DecodeBlock(forkPayload)
	require.NoError(t, err)

	// Same height, same parent, lower difficulty and a different hash on the
	// fork branch.
	assert.Equal(t, canonBlock.Header.Number, forkBlock.Header.Number)
	assert.Equal(t, canonBlock.Header.ParentHash, forkBlock.Header.ParentHash)
	assert.Equal(t, -1, forkBlock.Header.Difficulty.Cmp(canonBlock.Header.Difficulty))
	assert.NotEqual(t, canonBlock.Header.Hash, forkBlock.Header.Hash)
}
