package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkData_SetGet(t *testing.T) {
	dims := Dimensions{Size: 4, Height: 8}
	c := NewChunkData(dims)

	assert.Equal(t, dims.Volume(), len(c.Blocks()))
	assert.Equal(t, Block{}, c.Get(3, 7, 3), "новая сетка заполнена блоком 0")

	c.Set(1, 2, 3, Block{Type: 5})
	assert.Equal(t, Block{Type: 5}, c.Get(1, 2, 3))
	assert.Equal(t, Block{}, c.Get(3, 2, 1), "x и z не должны путаться")

	b, ok := c.Lookup(1, 2, 3)
	assert.True(t, ok)
	assert.Equal(t, Block{Type: 5}, b)

	for _, p := range [][3]int{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}, {4, 0, 0}, {0, 8, 0}, {0, 0, 4}} {
		_, ok := c.Lookup(p[0], p[1], p[2])
		assert.False(t, ok, "координаты %v вне чанка", p)
	}
}

func TestChunkData_StorageOrder(t *testing.T) {
	dims := Dimensions{Size: 2, Height: 3}
	c := NewChunkData(dims)
	c.Set(0, 0, 1, Block{Type: 1})
	c.Set(0, 1, 0, Block{Type: 2})
	c.Set(1, 0, 0, Block{Type: 3})

	blocks := c.Blocks()
	assert.Equal(t, Block{Type: 1}, blocks[1], "z меняется быстрее всего")
	assert.Equal(t, Block{Type: 2}, blocks[2])
	assert.Equal(t, Block{Type: 3}, blocks[6], "x меняется медленнее всего")
}

func TestChunkData_CloneIsIndependent(t *testing.T) {
	c := NewChunkData(Dimensions{Size: 2, Height: 2})
	c.Fill(Block{Type: 1})

	clone := c.Clone()
	require.True(t, c.Equal(clone))

	clone.Set(0, 0, 0, Block{Type: 9})
	assert.Equal(t, Block{Type: 1}, c.Get(0, 0, 0), "клон не должен разделять память с оригиналом")
	assert.False(t, c.Equal(clone))
}

func TestChunkData_Equal(t *testing.T) {
	a := NewChunkData(Dimensions{Size: 2, Height: 2})
	b := NewChunkData(Dimensions{Size: 2, Height: 4})
	assert.False(t, a.Equal(b), "разные размеры")
	assert.True(t, (*ChunkData)(nil).Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestFromBlocks(t *testing.T) {
	dims := Dimensions{Size: 2, Height: 2}
	_, err := FromBlocks(dims, make([]Block, 7))
	assert.Error(t, err)

	c, err := FromBlocks(dims, make([]Block, 8))
	require.NoError(t, err)
	assert.Equal(t, dims, c.Dims())
}

func TestDimensions_Validate(t *testing.T) {
	assert.NoError(t, DefaultDimensions.Validate())
	assert.Equal(t, 16*256*16, DefaultDimensions.Volume())
	assert.Error(t, Dimensions{Size: 0, Height: 10}.Validate())
	assert.Error(t, Dimensions{Size: 16, Height: -1}.Validate())
}
