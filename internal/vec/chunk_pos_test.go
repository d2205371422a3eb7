package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkFromWorld(t *testing.T) {
	assert.Equal(t, ChunkPos{0, 0}, ChunkFromWorld(0, 0, 16))
	assert.Equal(t, ChunkPos{0, 0}, ChunkFromWorld(15.9, 15.9, 16))
	assert.Equal(t, ChunkPos{1, 2}, ChunkFromWorld(16, 32, 16))
	assert.Equal(t, ChunkPos{-1, -1}, ChunkFromWorld(-0.5, -16, 16), "floor-деление для отрицательных координат")
	assert.Equal(t, ChunkPos{-2, 0}, ChunkFromWorld(-16.01, 3, 16))
}

func TestChebyshevDistance(t *testing.T) {
	origin := NewChunkPos(0, 0)
	assert.Equal(t, int64(3), origin.ChebyshevDistance(ChunkPos{3, 0}))
	assert.Equal(t, int64(2), origin.ChebyshevDistance(ChunkPos{2, 2}))
	assert.Equal(t, int64(5), ChunkPos{-2, 1}.ChebyshevDistance(ChunkPos{3, -1}))
}

func TestChunkPosAsMapKey(t *testing.T) {
	m := map[ChunkPos]int{}
	m[NewChunkPos(4, 5)] = 1
	m[ChunkPos{X: 4, Y: 5}] = 2

	assert.Len(t, m, 1, "равные позиции должны давать один ключ")
	assert.Equal(t, 2, m[NewChunkPos(4, 5)])
	assert.Equal(t, ChunkPos{5, 4}, NewChunkPos(4, 5).Add(1, -1))
	assert.Equal(t, "(4,5)", NewChunkPos(4, 5).String())
}
