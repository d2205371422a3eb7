package world

import (
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRegistry(t *testing.T) *block.Registry {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, block.RegisterDefaults(reg))
	return reg
}

func TestTerrainGenerator_Deterministic(t *testing.T) {
	reg := defaultRegistry(t)
	gen := NewTerrainGenerator(42, DefaultDimensions)

	a, err := gen.Generate(vec.NewChunkPos(3, -7), reg)
	require.NoError(t, err)
	b, err := NewTerrainGenerator(42, DefaultDimensions).Generate(vec.NewChunkPos(3, -7), reg)
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "одинаковые сид и позиция дают одинаковый чанк")
	assert.Equal(t, DefaultDimensions, a.Dims())
}

func TestTerrainGenerator_Layers(t *testing.T) {
	reg := defaultRegistry(t)
	air, _ := reg.ByKey(block.AirKey)
	bedrock, _ := reg.ByKey(block.BedrockKey)
	stone, _ := reg.ByKey(block.StoneKey)

	gen := NewTerrainGenerator(1, DefaultDimensions)
	gen.GenerateCave = false

	c, err := gen.Generate(vec.NewChunkPos(0, 0), reg)
	require.NoError(t, err)

	for x := 0; x < DefaultDimensions.Size; x++ {
		for z := 0; z < DefaultDimensions.Size; z++ {
			assert.Equal(t, bedrock, c.Get(x, 0, z).Type, "нижний слой всегда бедрок")
			assert.Equal(t, stone, c.Get(x, 50, z).Type, "ниже минимальной высоты только камень")
			assert.Equal(t, air, c.Get(x, DefaultDimensions.Height-1, z).Type, "верх чанка - воздух")
		}
	}
}

func TestTerrainGenerator_ClampsToHeight(t *testing.T) {
	reg := defaultRegistry(t)
	dims := Dimensions{Size: 4, Height: 32}
	gen := NewTerrainGenerator(7, dims)

	c, err := gen.Generate(vec.NewChunkPos(-1, 1), reg)
	require.NoError(t, err)
	assert.Equal(t, dims.Volume(), len(c.Blocks()))
}

func TestTerrainGenerator_MissingBlocks(t *testing.T) {
	reg := block.NewRegistry()
	reg.MustRegister(block.Metadata{Key: block.AirKey, Flags: block.FlagAir, FaceTextures: block.NoFaces()})

	_, err := NewTerrainGenerator(1, DefaultDimensions).Generate(vec.NewChunkPos(0, 0), reg)
	assert.ErrorIs(t, err, ErrUnknownBlockKey)
	assert.ErrorIs(t, err, block.ErrUnknownKey)
}

func TestStoneProbability(t *testing.T) {
	assert.Equal(t, 1.0, stoneProbability(0))
	assert.Equal(t, 1.0, stoneProbability(MinTerrainHeight))
	assert.InDelta(t, 1-1/3.5, stoneProbability(MinTerrainHeight+1), 1e-9)
	assert.Equal(t, 0.0, stoneProbability(MinTerrainHeight+10))
}

func TestChunkSeed(t *testing.T) {
	assert.Equal(t, int64(0x0DDB1A5E5BAD5EED), ChunkSeed(vec.NewChunkPos(0, 0)))
	assert.Equal(t, ChunkSeed(vec.NewChunkPos(1, 2)), ChunkSeed(vec.NewChunkPos(2, 1)), "XOR коммутативен, коллизии возможны")
}
