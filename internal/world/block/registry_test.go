package block

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	assert.Equal(t, len(DefaultBlocks()), r.Len())

	air, err := r.Air()
	require.NoError(t, err)
	assert.Equal(t, BlockID(0), air, "воздух регистрируется первым")

	stone, ok := r.ByKey(StoneKey)
	require.True(t, ok)
	meta, ok := r.ByID(stone)
	require.True(t, ok)
	assert.Equal(t, StoneKey, meta.Key)
	assert.True(t, meta.IsOpaqueCube())
	assert.Equal(t, "blocks/stone.png", meta.FaceTexture(FaceTop))

	grass, _ := r.ByKey(GrassKey)
	grassMeta, _ := r.ByID(grass)
	assert.Equal(t, "blocks/grass_top.png", grassMeta.FaceTexture(FaceTop))
	assert.Equal(t, "blocks/grass_side.png", grassMeta.FaceTexture(FaceLeft))
	assert.Equal(t, "blocks/dirt.png", grassMeta.FaceTexture(FaceBottom))

	_, ok = r.ByKey("unknown")
	assert.False(t, ok)
	_, ok = r.ByID(BlockID(r.Len()))
	assert.False(t, ok, "индекс за пределами реестра")

	_, err = r.MustByKey("unknown")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestRegistry_RejectsInvalidMetadata(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register(Metadata{Key: "", Shape: ShapeCube, Textures: []string{"a"}})
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = r.Register(Metadata{
		Key:          "broken",
		Shape:        ShapeCube,
		Textures:     []string{"a", "b"},
		FaceTextures: [FaceCount]int{0, 1, 2, 0, 0, 0},
	})
	assert.ErrorIs(t, err, ErrTextureIndex, "индекс 2 при двух текстурах")

	_, err = r.Register(Metadata{Key: "negative", Shape: ShapeCube, Textures: []string{"a"}, FaceTextures: UniformFaces(-1)})
	assert.ErrorIs(t, err, ErrTextureIndex)

	_, err = r.Register(Metadata{Key: "solid-no-textures", Flags: FlagSolid, Shape: ShapeCube})
	assert.ErrorIs(t, err, ErrTextureIndex, "видимый блок без текстур")

	assert.Equal(t, 0, r.Len(), "неудачная регистрация не должна менять реестр")

	_, err = r.Register(Metadata{Key: "ok", Shape: ShapeCube, Textures: []string{"a"}})
	require.NoError(t, err)
	_, err = r.Register(Metadata{Key: "ok", Shape: ShapeCube, Textures: []string{"a"}})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_FaceTexturesOfInvisibleBlocks(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register(Metadata{Key: "ghost", Flags: FlagSolid, Shape: ShapeNone, FaceTextures: UniformFaces(5)})
	assert.ErrorIs(t, err, ErrTextureIndex, "невидимый блок не освобождает от проверки индексов")

	_, err = r.Register(Metadata{Key: "air2", Flags: FlagAir, Shape: ShapeCube, FaceTextures: UniformFaces(3)})
	assert.ErrorIs(t, err, ErrTextureIndex)

	_, err = r.Register(Metadata{Key: "void", Flags: FlagAir, Shape: ShapeCube})
	assert.ErrorIs(t, err, ErrTextureIndex, "нулевой индекс при пустом списке текстур")

	_, err = r.Register(Metadata{Key: "hidden-cube", Flags: FlagSolid, Shape: ShapeCube, Textures: []string{"a"}, FaceTextures: NoFaces()})
	assert.ErrorIs(t, err, ErrTextureIndex, "видимому блоку NoFaces запрещён")
	assert.Equal(t, 0, r.Len())

	airID, err := r.Register(Metadata{Key: AirKey, Flags: FlagAir, Shape: ShapeNone, FaceTextures: NoFaces()})
	require.NoError(t, err)
	barrierID, err := r.Register(Metadata{Key: "barrier", Flags: FlagSolid, Shape: ShapeNone, FaceTextures: NoFaces()})
	require.NoError(t, err)

	barrier, _ := r.ByID(barrierID)
	assert.True(t, barrier.IsInvisible())
	assert.False(t, barrier.IsOpaqueCube())
	assert.Equal(t, "", barrier.FaceTexture(FaceTop))

	air, _ := r.ByID(airID)
	assert.True(t, air.IsInvisible())
}

func TestRegistry_MissingAir(t *testing.T) {
	r := NewRegistry()
	_, err := r.Air()
	assert.ErrorIs(t, err, ErrMissingAirKey)
}

func TestRegistry_Textures(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	textures := r.Textures()
	assert.Equal(t, []string{
		"blocks/dirt.png",
		"blocks/grass_top.png",
		"blocks/grass_side.png",
		"blocks/stone.png",
		"blocks/bedrock.png",
	}, textures)
}

func TestRegistry_CopiesTextures(t *testing.T) {
	r := NewRegistry()
	textures := []string{"a"}
	id, err := r.Register(Metadata{Key: "x", Shape: ShapeCube, Textures: textures})
	require.NoError(t, err)

	textures[0] = "changed"
	meta, _ := r.ByID(id)
	assert.Equal(t, "a", meta.Textures[0])
}

func TestLoadDefinitions(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
blocks:
  - key: sand
    name: Sand
    flags: [solid]
    shape: cube
    textures: [blocks/sand.png]
  - key: log
    name: Oak Log
    flags: [solid]
    shape: cube
    textures: [blocks/log_top.png, blocks/log_side.png]
    face_textures: [0, 1, 1, 1, 1, 0]
  - key: flower
    flags: []
    shape: cross
    textures: [blocks/flower.png]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-nature.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))

	n, err := LoadDefinitions(r, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	logID, ok := r.ByKey("log")
	require.True(t, ok)
	logMeta, _ := r.ByID(logID)
	assert.Equal(t, "blocks/log_side.png", logMeta.FaceTexture(FaceFront))
	assert.Equal(t, "blocks/log_top.png", logMeta.FaceTexture(FaceBottom))

	flowerID, _ := r.ByKey("flower")
	flowerMeta, _ := r.ByID(flowerID)
	assert.Equal(t, ShapeCross, flowerMeta.Shape)

	metas, err := ParseDefinitions([]byte("blocks:\n  - key: mist\n    flags: [air]\n    shape: none\n"))
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, NoFaces(), metas[0].FaceTextures, "блок без текстур получает NoFaces")
}

func TestLoadDefinitions_Errors(t *testing.T) {
	r := NewRegistry()

	n, err := LoadDefinitions(r, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err, "отсутствующий каталог не ошибка")
	assert.Zero(t, n)

	_, err = ParseDefinitions([]byte("blocks:\n  - key: x\n    shape: sphere\n"))
	assert.Error(t, err)

	_, err = ParseDefinitions([]byte("blocks:\n  - key: x\n    flags: [sticky]\n"))
	assert.Error(t, err)

	_, err = ParseDefinitions([]byte("blocks:\n  - key: x\n    textures: [a]\n    face_textures: [0, 0]\n"))
	assert.Error(t, err)

	dir := t.TempDir()
	bad := []byte("blocks:\n  - key: bad\n    shape: cube\n    textures: [a]\n    face_textures: [0, 0, 0, 0, 0, 3]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), bad, 0o644))
	_, err = LoadDefinitions(r, dir)
	assert.ErrorIs(t, err, ErrTextureIndex)
}

func TestLoadRegistry(t *testing.T) {
	r, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultBlocks()), r.Len())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sand.yaml"),
		[]byte("blocks:\n  - key: sand\n    flags: [solid]\n    shape: cube\n    textures: [blocks/sand.png]\n"), 0o644))
	r, err = LoadRegistry(dir)
	require.NoError(t, err)
	id, ok := r.ByKey("sand")
	require.True(t, ok)
	assert.Equal(t, BlockID(len(DefaultBlocks())), id, "блоки из каталога идут после стандартных")
}
