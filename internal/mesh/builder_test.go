package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

const flowerKey = "flower"

type fixture struct {
	registry *block.Registry
	atlas    *Atlas
	stone    world.Block
	grass    world.Block
	flower   world.Block
	air      world.Block
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := block.NewRegistry()
	require.NoError(t, block.RegisterDefaults(reg))
	flower := reg.MustRegister(block.Metadata{Key: flowerKey, Shape: block.ShapeCross, Textures: []string{"blocks/flower.png"}})

	atlas, err := GridAtlas(reg.Textures(), 16, 0)
	require.NoError(t, err)

	air, _ := reg.ByKey(block.AirKey)
	stone, _ := reg.ByKey(block.StoneKey)
	grass, _ := reg.ByKey(block.GrassKey)
	return &fixture{
		registry: reg,
		atlas:    atlas,
		air:      world.Block{Type: air},
		stone:    world.Block{Type: stone},
		grass:    world.Block{Type: grass},
		flower:   world.Block{Type: flower},
	}
}

func (f *fixture) grid(dims world.Dimensions) *world.ChunkData {
	c := world.NewChunkData(dims)
	c.Fill(f.air)
	return c
}

func TestBuild_IsolatedCube(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 3, Height: 3})
	c.Set(1, 1, 1, f.stone)

	res, err := NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(c)
	require.NoError(t, err)

	m := res.Mesh
	assert.Equal(t, 24, m.VertexCount())
	assert.Len(t, m.Normals, 24)
	assert.Len(t, m.UVs, 24)
	assert.Len(t, m.Indices, 36)
	assert.Equal(t, 12, m.TriangleCount())

	// Индексы каждой грани смещены на 4 вершины
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7}, m.Indices[:12])

	// Первая грань - верхняя
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, m.Normals[0])
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, m.Positions[0])
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, m.Positions[3])

	for _, p := range m.Positions {
		for i := 0; i < 3; i++ {
			assert.True(t, p[i] >= 1 && p[i] <= 2, "вершина %v вне куба блока", p)
		}
	}
}

func TestBuild_EnclosedCube(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 5, Height: 5})
	for x := 1; x <= 3; x++ {
		for y := 1; y <= 3; y++ {
			for z := 1; z <= 3; z++ {
				c.Set(x, y, z, f.stone)
			}
		}
	}

	b := NewBuilder(f.registry, f.atlas.UVs, Options{})
	res, err := b.Build(c)
	require.NoError(t, err)
	// Куб 3x3x3: только внешние грани, 6 сторон по 9 квадратов
	assert.Equal(t, 6*9*4, res.Mesh.VertexCount())

	// Центральный блок полностью окружён и не даёт граней
	center := f.grid(world.Dimensions{Size: 5, Height: 5})
	for x := 1; x <= 3; x++ {
		for y := 1; y <= 3; y++ {
			for z := 1; z <= 3; z++ {
				if x == 2 && y == 2 && z == 2 {
					continue
				}
				center.Set(x, y, z, f.stone)
			}
		}
	}
	hollow, err := b.Build(center)
	require.NoError(t, err)
	// Полость внутри добавляет 6 внутренних граней
	assert.Equal(t, res.Mesh.VertexCount()+6*4, hollow.Mesh.VertexCount())
}

func TestBuild_ChunkBoundaryAlwaysEmits(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 1, Height: 1})
	c.Set(0, 0, 0, f.stone)

	res, err := NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(c)
	require.NoError(t, err)
	assert.Equal(t, 24, res.Mesh.VertexCount(), "соседи за границей чанка не закрывают грани")

	full := f.grid(world.Dimensions{Size: 2, Height: 2})
	full.Fill(f.stone)
	res, err = NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(full)
	require.NoError(t, err)
	assert.Equal(t, 6*4*4, res.Mesh.VertexCount(), "заполненный чанк 2x2x2 рисует только внешние грани")
}

func TestBuild_FaceTexturesAndUVs(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 1, Height: 1})
	c.Set(0, 0, 0, f.grass)

	res, err := NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(c)
	require.NoError(t, err)

	top, _ := f.atlas.UVs.Lookup("blocks/grass_top.png")
	side, _ := f.atlas.UVs.Lookup("blocks/grass_side.png")
	bottom, _ := f.atlas.UVs.Lookup("blocks/dirt.png")

	faceUVs := func(face int) []mgl32.Vec2 { return res.Mesh.UVs[face*4 : face*4+4] }
	assert.Equal(t, []mgl32.Vec2{
		{top.Max.X(), top.Max.Y()},
		{top.Max.X(), top.Min.Y()},
		{top.Min.X(), top.Max.Y()},
		{top.Min.X(), top.Min.Y()},
	}, faceUVs(int(block.FaceTop)))
	assert.Equal(t, side.Max, faceUVs(int(block.FaceLeft))[0])
	assert.Equal(t, bottom.Min, faceUVs(int(block.FaceBottom))[3])
}

func TestBuild_UnsupportedShape(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 3, Height: 1})
	c.Set(0, 0, 0, f.stone)
	c.Set(1, 0, 0, f.flower)

	_, err := NewBuilder(f.registry, f.atlas.UVs, Options{Strict: true}).Build(c)
	assert.ErrorIs(t, err, ErrUnsupportedShape)

	res, err := NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(c)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 24, res.Mesh.VertexCount(), "цветок не закрывает грань камня")
}

func TestBuild_Errors(t *testing.T) {
	f := newFixture(t)
	c := f.grid(world.Dimensions{Size: 1, Height: 1})
	c.Set(0, 0, 0, world.Block{Type: block.BlockID(f.registry.Len() + 5)})

	_, err := NewBuilder(f.registry, f.atlas.UVs, Options{}).Build(c)
	assert.ErrorIs(t, err, ErrUnknownBlock)

	c.Set(0, 0, 0, f.stone)
	_, err = NewBuilder(f.registry, NewUVMap(), Options{}).Build(c)
	assert.ErrorIs(t, err, ErrMissingTexture)
}

func TestBuild_AirOnly(t *testing.T) {
	f := newFixture(t)
	res, err := NewBuilder(f.registry, NewUVMap(), Options{}).Build(f.grid(world.Dimensions{Size: 2, Height: 2}))
	require.NoError(t, err)
	assert.True(t, res.Mesh.Empty(), "воздуху текстуры не нужны")
}

func TestTranslation(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{-32, 0, 48}, Translation(vec.NewChunkPos(-2, 3), world.DefaultDimensions))
}

func TestGridAtlas(t *testing.T) {
	atlas, err := GridAtlas([]string{"a", "b", "c", "a", "d", "e"}, 16, 0)
	require.NoError(t, err)

	assert.Equal(t, 5, atlas.UVs.Len(), "повторы размещаются один раз")
	assert.Equal(t, 48, atlas.Width)
	assert.Equal(t, 32, atlas.Height)

	r, ok := atlas.UVs.Lookup("e")
	require.True(t, ok)
	assert.InDelta(t, 16.0/48, r.Min.X(), 1e-6)
	assert.InDelta(t, 0.5, r.Min.Y(), 1e-6)
	assert.InDelta(t, 32.0/48, r.Max.X(), 1e-6)
	assert.InDelta(t, 1.0, r.Max.Y(), 1e-6)

	_, err = GridAtlas(nil, 0, 0)
	assert.Error(t, err)
}
