package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Rect - прямоугольник текстуры в атласе, координаты нормализованы к [0, 1]
type Rect struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// UVMap сопоставляет путь текстуры с её прямоугольником в атласе.
// После построения только читается, поэтому может разделяться задачами.
type UVMap struct {
	rects map[string]Rect
}

// NewUVMap создаёт пустую карту
func NewUVMap() *UVMap {
	return &UVMap{rects: make(map[string]Rect)}
}

// Set задаёт нормализованный прямоугольник текстуры
func (m *UVMap) Set(texture string, r Rect) {
	m.rects[texture] = r
}

// SetPixels задаёт прямоугольник в пикселях атласа размером atlasW x atlasH
func (m *UVMap) SetPixels(texture string, x0, y0, x1, y1, atlasW, atlasH int) {
	w, h := float32(atlasW), float32(atlasH)
	m.rects[texture] = Rect{
		Min: mgl32.Vec2{float32(x0) / w, float32(y0) / h},
		Max: mgl32.Vec2{float32(x1) / w, float32(y1) / h},
	}
}

// Lookup возвращает прямоугольник текстуры
func (m *UVMap) Lookup(texture string) (Rect, bool) {
	r, ok := m.rects[texture]
	return r, ok
}

// Len возвращает число текстур в карте
func (m *UVMap) Len() int {
	return len(m.rects)
}

// AtlasLayout - размещение текстуры в атласе в пикселях
type AtlasLayout struct {
	Texture string
	X, Y    int
}

// Atlas - результат раскладки текстур по сетке
type Atlas struct {
	Width, Height int
	TileSize      int
	Tiles         []AtlasLayout
	UVs           *UVMap
}

// GridAtlas раскладывает квадратные текстуры размером tileSize по сетке.
// columns <= 0 выбирает почти квадратный атлас. Повторяющиеся пути размещаются один раз.
func GridAtlas(textures []string, tileSize, columns int) (*Atlas, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("некорректный размер тайла: %d", tileSize)
	}

	unique := make([]string, 0, len(textures))
	seen := make(map[string]struct{}, len(textures))
	for _, t := range textures {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}

	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(len(unique)))))
	}
	if columns == 0 {
		columns = 1
	}
	rows := (len(unique) + columns - 1) / columns
	if rows == 0 {
		rows = 1
	}

	atlas := &Atlas{
		Width:    columns * tileSize,
		Height:   rows * tileSize,
		TileSize: tileSize,
		Tiles:    make([]AtlasLayout, 0, len(unique)),
		UVs:      NewUVMap(),
	}
	for i, t := range unique {
		x := (i % columns) * tileSize
		y := (i / columns) * tileSize
		atlas.Tiles = append(atlas.Tiles, AtlasLayout{Texture: t, X: x, Y: y})
		atlas.UVs.SetPixels(t, x, y, x+tileSize, y+tileSize, atlas.Width, atlas.Height)
	}
	return atlas, nil
}
