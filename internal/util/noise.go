package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise - генератор шума Перлина с фиксированным сидом.
// После создания только читает свои таблицы, поэтому один экземпляр
// можно использовать из нескольких задач генерации одновременно.
type Noise struct {
	p *perlin.Perlin
}

// NewNoise создаёт генератор шума с указанным количеством октав
func NewNoise(seed int64, octaves int32) *Noise {
	alpha := 2.0 // Сглаживание шума
	beta := 2.0  // Частота шума
	return &Noise{p: perlin.NewPerlin(alpha, beta, octaves, seed)}
}

// Noise2D возвращает значение шума в диапазоне [-1, 1]
func (n *Noise) Noise2D(x, y float64) float64 {
	return clampUnit(n.p.Noise2D(x, y))
}

// Noise3D возвращает значение шума в диапазоне [-1, 1]
func (n *Noise) Noise3D(x, y, z float64) float64 {
	return clampUnit(n.p.Noise3D(x, y, z))
}

// Normalized2D возвращает значение шума в диапазоне [0, 1]
func (n *Noise) Normalized2D(x, y float64) float64 {
	return (n.Noise2D(x, y) + 1.0) / 2.0
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
