package client

import (
	"slices"

	"github.com/annel0/voxel-stream/internal/vec"
)

// Plan - изменения набора загруженных чанков после смены чанка игрока
type Plan struct {
	Evict   []vec.ChunkPos
	Request []vec.ChunkPos
}

// PlanView вычисляет, какие чанки выгрузить и какие запросить.
// Выгружаются чанки с расстоянием Чебышёва больше distance. Запрашиваются
// все незагруженные позиции квадрата (2*distance+1)^2 построчно: по Y, затем по X.
func PlanView(player vec.ChunkPos, distance int, loaded []vec.ChunkPos) Plan {
	var plan Plan
	v := int64(distance)

	kept := make(map[vec.ChunkPos]struct{}, len(loaded))
	for _, pos := range loaded {
		if pos.ChebyshevDistance(player) > v {
			plan.Evict = append(plan.Evict, pos)
			continue
		}
		kept[pos] = struct{}{}
	}
	slices.SortFunc(plan.Evict, compareRowMajor)

	for dy := -v; dy <= v; dy++ {
		for dx := -v; dx <= v; dx++ {
			pos := player.Add(dx, dy)
			if _, ok := kept[pos]; !ok {
				plan.Request = append(plan.Request, pos)
			}
		}
	}
	return plan
}

func compareRowMajor(a, b vec.ChunkPos) int {
	if a.Y != b.Y {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	switch {
	case a.X < b.X:
		return -1
	case a.X > b.X:
		return 1
	}
	return 0
}

// ViewController пересчитывает план только при смене чанка игрока
type ViewController struct {
	distance int
	current  vec.ChunkPos
	planned  bool
}

// NewViewController создаёт контроллер с дальностью прорисовки distance чанков
func NewViewController(distance int) *ViewController {
	if distance < 0 {
		distance = 0
	}
	return &ViewController{distance: distance}
}

// Distance возвращает дальность прорисовки
func (v *ViewController) Distance() int {
	return v.distance
}

// Current возвращает чанк игрока, для которого строился последний план
func (v *ViewController) Current() (vec.ChunkPos, bool) {
	return v.current, v.planned
}

// SetDistance меняет дальность; следующий Update построит план заново
func (v *ViewController) SetDistance(distance int) {
	if distance < 0 {
		distance = 0
	}
	if distance != v.distance {
		v.distance = distance
		v.planned = false
	}
}

// Update возвращает план и true, если чанк игрока изменился (первый вызов планирует всегда)
func (v *ViewController) Update(player vec.ChunkPos, loaded []vec.ChunkPos) (Plan, bool) {
	if v.planned && player == v.current {
		return Plan{}, false
	}
	v.current = player
	v.planned = true
	return PlanView(player, v.distance, loaded), true
}
