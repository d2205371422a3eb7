// Package mesh строит геометрию чанка: отсечение невидимых граней и UV из атласа.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

var (
	// ErrUnsupportedShape - в строгом режиме встретился блок, форма которого не строится
	ErrUnsupportedShape = errors.New("форма блока не поддерживается")
	// ErrUnknownBlock - индекс блока отсутствует в реестре
	ErrUnknownBlock = errors.New("неизвестный тип блока")
	// ErrMissingTexture - текстуры грани нет в атласе
	ErrMissingTexture = errors.New("текстура отсутствует в атласе")
)

// Mesh - вершинный и индексный буферы чанка в локальных координатах.
// Блок (x, y, z) занимает куб от (x, y, z) до (x+1, y+1, z+1).
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// VertexCount возвращает число вершин
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount возвращает число треугольников
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Empty сообщает, что в меше нет ни одной грани
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// Translation возвращает смещение меша чанка в мировых координатах
func Translation(pos vec.ChunkPos, dims world.Dimensions) mgl32.Vec3 {
	x, z := pos.Origin(dims.Size)
	return mgl32.Vec3{float32(x), 0, float32(z)}
}

// Options - настройки построения
type Options struct {
	// Strict - блок не-куб (кроме воздуха и ShapeNone) прерывает построение с ErrUnsupportedShape.
	// Иначе такой блок пропускается и учитывается в Result.Skipped.
	Strict bool
}

// Result - результат построения
type Result struct {
	Mesh    *Mesh
	Skipped int // блоков пропущено из-за неподдерживаемой формы
}

// Builder строит меши. Реестр и карта UV только читаются,
// поэтому один Builder можно использовать из нескольких задач.
type Builder struct {
	registry *block.Registry
	uvs      *UVMap
	opts     Options
}

// NewBuilder создаёт построитель мешей
func NewBuilder(registry *block.Registry, uvs *UVMap, opts Options) *Builder {
	return &Builder{registry: registry, uvs: uvs, opts: opts}
}

// blockKind - то, как блок участвует в построении
type blockKind uint8

const (
	kindUnknown blockKind = iota
	kindEmpty             // воздух и ShapeNone: не рисуется, соседние грани видны
	kindCube
	kindUnsupported
)

type typeInfo struct {
	kind  blockKind
	rects [block.FaceCount]Rect
	meta  *block.Metadata
}

// typeCache разрешает метаданные и UV каждого типа блока один раз за построение
type typeCache struct {
	b     *Builder
	types []*typeInfo
}

func (c *typeCache) get(id block.BlockID) (*typeInfo, error) {
	if int(id) < len(c.types) && c.types[id] != nil {
		return c.types[id], nil
	}

	meta, ok := c.b.registry.ByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}

	info := &typeInfo{meta: meta}
	switch {
	case meta.IsInvisible():
		info.kind = kindEmpty
	case meta.IsOpaqueCube():
		info.kind = kindCube
		for _, face := range block.Faces {
			texture := meta.FaceTexture(face)
			rect, ok := c.b.uvs.Lookup(texture)
			if !ok {
				return nil, fmt.Errorf("%w: блок %q, грань %s, текстура %q",
					ErrMissingTexture, meta.Key, face, texture)
			}
			info.rects[face] = rect
		}
	default:
		info.kind = kindUnsupported
	}

	if int(id) >= len(c.types) {
		grown := make([]*typeInfo, int(id)+1)
		copy(grown, c.types)
		c.types = grown
	}
	c.types[id] = info
	return info, nil
}

// occludes сообщает, закрывает ли соседний блок грань. Вне чанка грань всегда видна.
func (c *typeCache) occludes(data *world.ChunkData, x, y, z int) bool {
	neighbour, ok := data.Lookup(x, y, z)
	if !ok {
		return false
	}
	info, err := c.get(neighbour.Type)
	if err != nil {
		return false
	}
	return info.kind == kindCube
}

// Build строит меш сетки блоков
func (b *Builder) Build(data *world.ChunkData) (Result, error) {
	cache := &typeCache{b: b, types: make([]*typeInfo, b.registry.Len())}
	m := &Mesh{}
	skipped := 0

	dims := data.Dims()
	for x := 0; x < dims.Size; x++ {
		for y := 0; y < dims.Height; y++ {
			for z := 0; z < dims.Size; z++ {
				info, err := cache.get(data.Get(x, y, z).Type)
				if err != nil {
					return Result{}, fmt.Errorf("блок (%d,%d,%d): %w", x, y, z, err)
				}

				switch info.kind {
				case kindEmpty:
					continue
				case kindUnsupported:
					if b.opts.Strict {
						return Result{}, fmt.Errorf("%w: блок %q формы %s в (%d,%d,%d)",
							ErrUnsupportedShape, info.meta.Key, info.meta.Shape, x, y, z)
					}
					skipped++
					continue
				}

				origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
				for _, face := range block.Faces {
					off := faceOffsets[face]
					if cache.occludes(data, x+off[0], y+off[1], z+off[2]) {
						continue
					}
					m.appendFace(origin, face, info.rects[face])
				}
			}
		}
	}

	return Result{Mesh: m, Skipped: skipped}, nil
}

func (m *Mesh) appendFace(origin mgl32.Vec3, face block.Face, uv Rect) {
	base := uint32(len(m.Positions))

	for _, v := range faceVertices[face] {
		m.Positions = append(m.Positions, origin.Add(v))
		m.Normals = append(m.Normals, faceNormals[face])
	}
	m.UVs = append(m.UVs,
		mgl32.Vec2{uv.Max.X(), uv.Max.Y()},
		mgl32.Vec2{uv.Max.X(), uv.Min.Y()},
		mgl32.Vec2{uv.Min.X(), uv.Max.Y()},
		mgl32.Vec2{uv.Min.X(), uv.Min.Y()},
	)
	for _, i := range faceIndices {
		m.Indices = append(m.Indices, base+i)
	}
}
