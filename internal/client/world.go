// Package client - клиентская часть конвейера чанков: контроллер дальности
// прорисовки, фоновая распаковка и построение мешей.
package client

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/mesh"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// Renderer - внешний движок, отображающий меши чанков
type Renderer interface {
	UploadMesh(pos vec.ChunkPos, m *mesh.Mesh, translation mgl32.Vec3)
	RemoveMesh(pos vec.ChunkPos)
}

// RequestSender отправляет запрос чанка на сервер
type RequestSender interface {
	RequestChunk(pos vec.ChunkPos) error
}

// ChunkState - стадия жизненного цикла чанка на клиенте
type ChunkState int

const (
	StateRequested ChunkState = iota
	StateDecompressing
	StateHasData
	StateMeshQueued
	StateMeshReady
)

func (s ChunkState) String() string {
	switch s {
	case StateRequested:
		return "Requested"
	case StateDecompressing:
		return "Decompressing"
	case StateHasData:
		return "HasData"
	case StateMeshQueued:
		return "MeshQueued"
	case StateMeshReady:
		return "MeshReady"
	default:
		return fmt.Sprintf("ChunkState(%d)", int(s))
	}
}

// Options - настройки клиентского мира
type Options struct {
	Dims                  world.Dimensions
	ViewDistance          int
	MaxMeshJobsPerTick    int // 0 - без ограничения
	MaxMeshAppliesPerTick int // 0 - без ограничения
	RequestTimeout        time.Duration
	StrictShapes          bool
	Now                   func() time.Time
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{
		Dims:               world.DefaultDimensions,
		ViewDistance:       4,
		MaxMeshJobsPerTick: 10,
		RequestTimeout:     10 * time.Second,
	}
}

// chunkEntity - отслеживаемый чанк. id уникален за всё время жизни World
// и не переиспользуется, поэтому результат задачи, запущенной для
// выгруженного чанка, не попадёт в новый чанк на той же позиции.
type chunkEntity struct {
	id          uint64
	pos         vec.ChunkPos
	state       ChunkState
	requestedAt time.Time
	needRequest bool

	arrivals      uint64 // номер последнего полученного ChunkData
	applied       uint64 // номер ChunkData, данные которого сейчас в data
	decompressing int

	data        *world.ChunkData
	dataVersion uint64

	meshInFlight      bool
	meshFailedVersion uint64
	uploaded          bool
}

// ChunkView - снимок состояния чанка
type ChunkView struct {
	ID          uint64
	State       ChunkState
	Data        *world.ChunkData
	DataVersion uint64
}

// World - клиентский контекст мира. Владеет картой чанков и применяет
// результаты фоновых задач. Все методы вызываются из одной горутины.
type World struct {
	opts     Options
	registry *block.Registry
	codec    *protocol.ChunkCodec
	pool     *jobs.Pool
	builder  *mesh.Builder
	sender   RequestSender
	renderer Renderer
	logger   *logging.Logger
	metrics  *Metrics

	view   *ViewController
	chunks map[vec.ChunkPos]*chunkEntity
	nextID uint64

	decompressJobs []*decompressJob
	meshJobs       []*meshJob
}

type decompressJob struct {
	pos    vec.ChunkPos
	id     uint64
	seq    uint64
	handle *jobs.Handle[*world.ChunkData]
}

type meshJob struct {
	pos     vec.ChunkPos
	id      uint64
	version uint64
	handle  *jobs.Handle[mesh.Result]
}

// NewWorld создаёт клиентский мир. Реестр и карта UV должны быть заполнены заранее.
func NewWorld(
	opts Options,
	registry *block.Registry,
	uvs *mesh.UVMap,
	codec *protocol.ChunkCodec,
	pool *jobs.Pool,
	sender RequestSender,
	renderer Renderer,
	logger *logging.Logger,
	metrics *Metrics,
) *World {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &World{
		opts:     opts,
		registry: registry,
		codec:    codec,
		pool:     pool,
		builder:  mesh.NewBuilder(registry, uvs, mesh.Options{Strict: opts.StrictShapes}),
		sender:   sender,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
		view:     NewViewController(opts.ViewDistance),
		chunks:   make(map[vec.ChunkPos]*chunkEntity),
	}
}

// View возвращает контроллер дальности прорисовки
func (w *World) View() *ViewController {
	return w.view
}

// SetPlayerPosition обновляет позицию игрока. При смене чанка выгружает
// дальние чанки и запрашивает недостающие.
func (w *World) SetPlayerPosition(p mgl32.Vec3) {
	player := vec.ChunkFromWorld(float64(p.X()), float64(p.Z()), w.opts.Dims.Size)
	plan, changed := w.view.Update(player, w.Loaded())
	if !changed {
		return
	}
	w.logger.Debug("Игрок в чанке %s: выгрузить %d, запросить %d", player, len(plan.Evict), len(plan.Request))
	w.applyPlan(plan)
}

func (w *World) applyPlan(plan Plan) {
	for _, pos := range plan.Evict {
		w.evict(pos)
	}

	now := w.opts.Now()
	for _, pos := range plan.Request {
		w.nextID++
		entity := &chunkEntity{id: w.nextID, pos: pos, state: StateRequested}
		w.chunks[pos] = entity
		w.request(entity, now)
	}
	w.metrics.loaded.Set(float64(len(w.chunks)))
}

func (w *World) evict(pos vec.ChunkPos) {
	entity, ok := w.chunks[pos]
	if !ok {
		return
	}
	delete(w.chunks, pos)
	if entity.uploaded {
		w.renderer.RemoveMesh(pos)
	}
	w.metrics.evictions.Inc()
}

func (w *World) request(entity *chunkEntity, now time.Time) {
	entity.requestedAt = now
	if err := w.sender.RequestChunk(entity.pos); err != nil {
		entity.needRequest = true
		w.logger.Warn("Не удалось запросить чанк %s: %v", entity.pos, err)
		return
	}
	entity.needRequest = false
	w.metrics.requests.Inc()
}

// Tick опрашивает фоновые задачи, повторяет запросы и планирует построение мешей
func (w *World) Tick() {
	now := w.opts.Now()
	w.pollDecompression()
	w.retryRequests(now)
	w.applyMeshes()
	w.dispatchMeshes()
}

func (w *World) retryRequests(now time.Time) {
	for _, entity := range w.chunks {
		if entity.state != StateRequested {
			continue
		}
		timedOut := w.opts.RequestTimeout > 0 && now.Sub(entity.requestedAt) >= w.opts.RequestTimeout
		if entity.needRequest || timedOut {
			w.metrics.rerequests.Inc()
			w.request(entity, now)
		}
	}
}

// Chunk возвращает снимок состояния чанка
func (w *World) Chunk(pos vec.ChunkPos) (ChunkView, bool) {
	entity, ok := w.chunks[pos]
	if !ok {
		return ChunkView{}, false
	}
	return ChunkView{
		ID:          entity.id,
		State:       entity.state,
		Data:        entity.data,
		DataVersion: entity.dataVersion,
	}, true
}

// Loaded возвращает позиции отслеживаемых чанков построчно
func (w *World) Loaded() []vec.ChunkPos {
	out := make([]vec.ChunkPos, 0, len(w.chunks))
	for pos := range w.chunks {
		out = append(out, pos)
	}
	slices.SortFunc(out, compareRowMajor)
	return out
}

// PendingJobs возвращает число незавершённых задач распаковки и построения мешей
func (w *World) PendingJobs() int {
	return len(w.decompressJobs) + len(w.meshJobs)
}

// lookup возвращает чанк, только если он всё ещё тот, для которого запускалась задача
func (w *World) lookup(pos vec.ChunkPos, id uint64) (*chunkEntity, bool) {
	entity, ok := w.chunks[pos]
	if !ok || entity.id != id {
		return nil, false
	}
	return entity, true
}

// Run обрабатывает входящие чанки и тики до отмены ctx.
// beforeTick, если задан, вызывается перед каждым тиком (например, для движения игрока).
func (w *World) Run(ctx context.Context, inbound <-chan protocol.ChunkData, tick time.Duration, beforeTick func(*World)) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			w.HandleChunkData(msg)
		case <-ticker.C:
			if beforeTick != nil {
				beforeTick(w)
			}
			w.Tick()
		}
	}
}
