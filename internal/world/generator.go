package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// ErrUnknownBlockKey - в реестре нет блока, нужного генератору
var ErrUnknownBlockKey = errors.New("генератору нужен незарегистрированный блок")

// Generator - оракул генерации ландшафта.
// Чистая функция: для одинаковых позиции и реестра возвращает одинаковую сетку.
type Generator interface {
	Generate(pos vec.ChunkPos, reg *block.Registry) (*ChunkData, error)
}

// GeneratorFunc позволяет использовать функцию как Generator
type GeneratorFunc func(pos vec.ChunkPos, reg *block.Registry) (*ChunkData, error)

// Generate вызывает f(pos, reg)
func (f GeneratorFunc) Generate(pos vec.ChunkPos, reg *block.Registry) (*ChunkData, error) {
	return f(pos, reg)
}

// Константы генерации ландшафта
const (
	MinTerrainHeight  = 100
	TerrainAmplitude  = 35.0
	TerrainNoiseScale = 0.04
	TerrainOctaves    = 6
	TerrainStoneStart = 0.10 // Доля амплитуды, выше которой камень перестаёт преобладать

	CaveThreshold  = 0.15 // Больше - меньше пещер
	CaveNoiseScale = 0.04
	CaveOctaves    = 2

	MaxBedrockHeight = 3

	// chunkSeedBase смешивается с координатами чанка через XOR.
	// Схема слабая: подобранные координаты могут дать одинаковый сид.
	chunkSeedBase uint64 = 0x0DDB1A5E5BAD5EED
)

// TerrainGenerator генерирует холмистый ландшафт с пещерами и слоем бедрока
type TerrainGenerator struct {
	Seed         int64
	Dims         Dimensions
	GenerateCave bool

	terrain *util.Noise
	caves   *util.Noise
}

// NewTerrainGenerator создаёт генератор ландшафта
func NewTerrainGenerator(seed int64, dims Dimensions) *TerrainGenerator {
	return &TerrainGenerator{
		Seed:         seed,
		Dims:         dims,
		GenerateCave: true,
		terrain:      util.NewNoise(seed, TerrainOctaves),
		caves:        util.NewNoise(seed+1, CaveOctaves),
	}
}

type terrainPalette struct {
	air, dirt, grass, stone, bedrock Block
}

func resolvePalette(reg *block.Registry) (terrainPalette, error) {
	var p terrainPalette
	keys := []struct {
		key string
		dst *Block
	}{
		{block.AirKey, &p.air},
		{block.DirtKey, &p.dirt},
		{block.GrassKey, &p.grass},
		{block.StoneKey, &p.stone},
		{block.BedrockKey, &p.bedrock},
	}
	for _, k := range keys {
		id, err := reg.MustByKey(k.key)
		if err != nil {
			return p, fmt.Errorf("%w: %w", ErrUnknownBlockKey, err)
		}
		*k.dst = Block{Type: id}
	}
	return p, nil
}

// ChunkSeed возвращает сид PRNG для чанка
func ChunkSeed(pos vec.ChunkPos) int64 {
	return int64(chunkSeedBase ^ uint64(pos.X) ^ uint64(pos.Y))
}

// Generate генерирует чанк по его координатам
func (g *TerrainGenerator) Generate(pos vec.ChunkPos, reg *block.Registry) (*ChunkData, error) {
	palette, err := resolvePalette(reg)
	if err != nil {
		return nil, err
	}

	dims := g.Dims
	data := NewChunkData(dims)
	data.Fill(palette.air)

	rng := rand.New(rand.NewSource(ChunkSeed(pos)))

	offsetX, offsetZ := pos.Origin(dims.Size)
	half := TerrainAmplitude / 2

	for x := 0; x < dims.Size; x++ {
		for z := 0; z < dims.Size; z++ {
			wx := float64(offsetX + int64(x))
			wz := float64(offsetZ + int64(z))

			// Высота колонны
			n := g.terrain.Noise2D(wx*TerrainNoiseScale, wz*TerrainNoiseScale)
			h := MinTerrainHeight + int(half+math.Round(n*half))
			if h > dims.Height {
				h = dims.Height
			}
			if h < 1 {
				h = 1
			}

			for y := 0; y < h; y++ {
				switch {
				case rng.Float64() < stoneProbability(y):
					data.Set(x, y, z, palette.stone)
				case y == h-1:
					data.Set(x, y, z, palette.grass)
				default:
					data.Set(x, y, z, palette.dirt)
				}
			}

			if g.GenerateCave {
				for y := 0; y < h; y++ {
					if g.isCave(wx, float64(y), wz, y) {
						data.Set(x, y, z, palette.air)
					}
				}
			}

			// Бедрок: каждый следующий слой с вдвое меньшей вероятностью
			probability := 1.0
			for y := 0; y < MaxBedrockHeight && y < dims.Height; y++ {
				if rng.Float64() < probability {
					data.Set(x, y, z, palette.bedrock)
				}
				probability /= 2
			}
		}
	}

	return data, nil
}

// stoneProbability возвращает шанс камня на высоте y: 1 до MinTerrainHeight,
// затем линейно падает до 0 на высоте TerrainAmplitude*TerrainStoneStart.
func stoneProbability(y int) float64 {
	if y <= MinTerrainHeight {
		return 1
	}
	p := 1 - float64(y-MinTerrainHeight)/(TerrainAmplitude*TerrainStoneStart)
	return math.Max(0, math.Min(1, p))
}

func (g *TerrainGenerator) isCave(wx, wy, wz float64, y int) bool {
	threshold := CaveThreshold
	if y > MinTerrainHeight {
		threshold = CaveThreshold + (1-CaveThreshold)*(float64(y-MinTerrainHeight)/TerrainAmplitude)
	}
	a := g.caves.Noise3D(wx*CaveNoiseScale, wy*CaveNoiseScale, wz*CaveNoiseScale)
	b := g.caves.Noise3D(wx*CaveNoiseScale, (wy+10000)*CaveNoiseScale, wz*CaveNoiseScale)
	return math.Abs(a) > threshold && math.Abs(b) > threshold
}
