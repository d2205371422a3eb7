package world

import (
	"fmt"

	"github.com/annel0/voxel-stream/internal/world/block"
)

// Block - один блок чанка: индекс типа в block.Registry
type Block struct {
	Type block.BlockID
}

// Dimensions задаёт размеры чанка: Size по X и Z, Height по Y
type Dimensions struct {
	Size   int
	Height int
}

// DefaultDimensions - 16x256x16
var DefaultDimensions = Dimensions{Size: 16, Height: 256}

// Volume возвращает количество блоков в чанке
func (d Dimensions) Volume() int {
	return d.Size * d.Height * d.Size
}

// Validate проверяет, что размеры положительные
func (d Dimensions) Validate() error {
	if d.Size <= 0 || d.Height <= 0 {
		return fmt.Errorf("некорректные размеры чанка: %dx%dx%d", d.Size, d.Height, d.Size)
	}
	return nil
}

// ChunkData - трёхмерная сетка блоков [Size][Height][Size].
// Хранится плоским срезом: индекс = (x*Height + y)*Size + z.
// Владелец сетки один (запись кеша сервера или чанк клиента);
// между владельцами сетка передаётся только через Clone.
type ChunkData struct {
	dims   Dimensions
	blocks []Block
}

// NewChunkData создаёт сетку, заполненную блоком с индексом 0
func NewChunkData(dims Dimensions) *ChunkData {
	return &ChunkData{
		dims:   dims,
		blocks: make([]Block, dims.Volume()),
	}
}

// Dims возвращает размеры сетки
func (c *ChunkData) Dims() Dimensions {
	return c.dims
}

// InBounds проверяет, что координаты лежат внутри чанка
func (c *ChunkData) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < c.dims.Size && y < c.dims.Height && z < c.dims.Size
}

func (c *ChunkData) index(x, y, z int) int {
	return (x*c.dims.Height+y)*c.dims.Size + z
}

// Get возвращает блок по локальным координатам. Координаты должны быть внутри чанка.
func (c *ChunkData) Get(x, y, z int) Block {
	return c.blocks[c.index(x, y, z)]
}

// Set устанавливает блок по локальным координатам
func (c *ChunkData) Set(x, y, z int, b Block) {
	c.blocks[c.index(x, y, z)] = b
}

// Lookup возвращает блок и false, если координаты вне чанка
func (c *ChunkData) Lookup(x, y, z int) (Block, bool) {
	if !c.InBounds(x, y, z) {
		return Block{}, false
	}
	return c.blocks[c.index(x, y, z)], true
}

// Fill заполняет весь чанк одним блоком
func (c *ChunkData) Fill(b Block) {
	for i := range c.blocks {
		c.blocks[i] = b
	}
}

// Blocks возвращает блоки в порядке хранения (x, затем y, затем z).
// Срез принадлежит сетке, изменять его нельзя.
func (c *ChunkData) Blocks() []Block {
	return c.blocks
}

// Clone возвращает независимую копию сетки
func (c *ChunkData) Clone() *ChunkData {
	blocks := make([]Block, len(c.blocks))
	copy(blocks, c.blocks)
	return &ChunkData{dims: c.dims, blocks: blocks}
}

// Equal сравнивает две сетки поблочно
func (c *ChunkData) Equal(other *ChunkData) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.dims != other.dims || len(c.blocks) != len(other.blocks) {
		return false
	}
	for i := range c.blocks {
		if c.blocks[i] != other.blocks[i] {
			return false
		}
	}
	return true
}

// FromBlocks собирает сетку из готового среза блоков (используется декодером)
func FromBlocks(dims Dimensions, blocks []Block) (*ChunkData, error) {
	if len(blocks) != dims.Volume() {
		return nil, fmt.Errorf("ожидалось %d блоков, получено %d", dims.Volume(), len(blocks))
	}
	return &ChunkData{dims: dims, blocks: blocks}, nil
}
