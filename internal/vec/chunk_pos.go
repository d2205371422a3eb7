package vec

import (
	"fmt"
	"math"
)

// ChunkPos идентифицирует колонну блоков (чанк) на 2D сетке.
// Y сетки соответствует мировой оси Z. Сравнение и хеширование структурные,
// поэтому ChunkPos используется как ключ map напрямую.
type ChunkPos struct {
	X, Y int64
}

// NewChunkPos создаёт позицию чанка
func NewChunkPos(x, y int64) ChunkPos {
	return ChunkPos{X: x, Y: y}
}

// String возвращает строковое представление позиции
func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add возвращает позицию, смещённую на (dx, dy)
func (p ChunkPos) Add(dx, dy int64) ChunkPos {
	return ChunkPos{X: p.X + dx, Y: p.Y + dy}
}

// ChebyshevDistance возвращает max(|dx|, |dy|) между позициями
func (p ChunkPos) ChebyshevDistance(other ChunkPos) int64 {
	dx := abs64(p.X - other.X)
	dy := abs64(p.Y - other.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// ChunkFromWorld переводит мировые координаты (x, z) в позицию чанка.
// Используется floor-деление, поэтому отрицательные координаты попадают
// в чанк слева/сзади от нуля.
func ChunkFromWorld(x, z float64, chunkSize int) ChunkPos {
	size := float64(chunkSize)
	return ChunkPos{
		X: int64(math.Floor(x / size)),
		Y: int64(math.Floor(z / size)),
	}
}

// Origin возвращает мировые координаты угла чанка (x, z)
func (p ChunkPos) Origin(chunkSize int) (x, z int64) {
	return p.X * int64(chunkSize), p.Y * int64(chunkSize)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
