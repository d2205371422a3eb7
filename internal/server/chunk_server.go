// Package server реализует серверный кеш чанков: дедупликацию запросов,
// фоновую генерацию и рассылку результата всем подписчикам.
package server

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// Sender доставляет сообщение клиенту. Не должен блокироваться надолго.
type Sender interface {
	Send(requester uuid.UUID, msg protocol.ChunkData) error
}

// SenderFunc позволяет использовать функцию как Sender
type SenderFunc func(requester uuid.UUID, msg protocol.ChunkData) error

// Send вызывает f(requester, msg)
func (f SenderFunc) Send(requester uuid.UUID, msg protocol.ChunkData) error {
	return f(requester, msg)
}

// Options - настройки ChunkServer
type Options struct {
	// MaxGenerationAttempts - сколько раз запускать генерацию позиции,
	// прежде чем удалить её из кеша. Минимум 1.
	MaxGenerationAttempts int
}

// DefaultOptions возвращает настройки по умолчанию
func DefaultOptions() Options {
	return Options{MaxGenerationAttempts: 3}
}

type entryState int

const (
	stateGenerating entryState = iota
	stateReady
)

// generated - результат задачи генерации: сетка и её сжатое представление
type generated struct {
	grid    *world.ChunkData
	payload []byte
}

type cacheEntry struct {
	state       entryState
	subscribers []uuid.UUID
	job         *jobs.Handle[generated]
	attempts    int
	grid        *world.ChunkData
}

func (e *cacheEntry) subscribe(requester uuid.UUID) bool {
	if slices.Contains(e.subscribers, requester) {
		return false
	}
	e.subscribers = append(e.subscribers, requester)
	return true
}

type resendJob struct {
	requester uuid.UUID
	pos       vec.ChunkPos
	job       *jobs.Handle[[]byte]
}

// Stats - снимок состояния кеша
type Stats struct {
	Ready      int
	Generating int
	Resends    int
}

// ChunkServer - кеш чанков с дедупликацией генерации.
//
// Все методы вызываются из одной горутины (см. Run). Фоновые задачи
// получают только копии данных и не трогают состояние кеша.
type ChunkServer struct {
	opts      Options
	registry  *block.Registry
	generator world.Generator
	codec     *protocol.ChunkCodec
	pool      *jobs.Pool
	sender    Sender
	logger    *logging.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	entries map[vec.ChunkPos]*cacheEntry
	pending map[vec.ChunkPos]*cacheEntry // подмножество entries в состоянии Generating
	resends []*resendJob
}

// NewChunkServer создаёт кеш чанков. Реестр должен быть полностью заполнен.
func NewChunkServer(
	opts Options,
	registry *block.Registry,
	generator world.Generator,
	codec *protocol.ChunkCodec,
	pool *jobs.Pool,
	sender Sender,
	logger *logging.Logger,
	metrics *Metrics,
) *ChunkServer {
	if opts.MaxGenerationAttempts < 1 {
		opts.MaxGenerationAttempts = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &ChunkServer{
		opts:      opts,
		registry:  registry,
		generator: generator,
		codec:     codec,
		pool:      pool,
		sender:    sender,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("github.com/annel0/voxel-stream/internal/server"),
		entries:   make(map[vec.ChunkPos]*cacheEntry),
		pending:   make(map[vec.ChunkPos]*cacheEntry),
	}
}

// HandleRequest обрабатывает запрос чанка от клиента
func (s *ChunkServer) HandleRequest(requester uuid.UUID, req protocol.ChunkRequest) {
	s.metrics.requests.Inc()
	s.logger.LogChunkRequest(requester.String(), req.Pos.X, req.Pos.Y)

	entry, ok := s.entries[req.Pos]
	switch {
	case !ok:
		entry = &cacheEntry{
			state:       stateGenerating,
			subscribers: []uuid.UUID{requester},
		}
		s.entries[req.Pos] = entry
		s.pending[req.Pos] = entry
		s.startGeneration(req.Pos, entry)

	case entry.state == stateGenerating:
		if !entry.subscribe(requester) {
			s.logger.Trace("Повторный запрос %s от %s во время генерации", req.Pos, requester)
		}

	default:
		s.metrics.cacheHits.Inc()
		s.startResend(requester, req.Pos, entry.grid.Clone())
	}
}

func (s *ChunkServer) startGeneration(pos vec.ChunkPos, entry *cacheEntry) {
	entry.attempts++
	s.metrics.generations.Inc()
	s.metrics.pending.Inc()

	registry, generator, codec, tracer := s.registry, s.generator, s.codec, s.tracer
	entry.job = jobs.Spawn(s.pool, func() (generated, error) {
		_, span := tracer.Start(context.Background(), "chunk.generate", trace.WithAttributes(
			attribute.Int64("chunk.x", pos.X),
			attribute.Int64("chunk.y", pos.Y),
		))
		defer span.End()

		grid, err := generator.Generate(pos, registry)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generate")
			return generated{}, fmt.Errorf("генерация чанка %s: %w", pos, err)
		}

		payload, err := codec.Compress(grid)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "compress")
			return generated{}, fmt.Errorf("сжатие чанка %s: %w", pos, err)
		}
		span.SetAttributes(attribute.Int("chunk.payload_bytes", len(payload)))
		return generated{grid: grid, payload: payload}, nil
	})
}

func (s *ChunkServer) startResend(requester uuid.UUID, pos vec.ChunkPos, grid *world.ChunkData) {
	s.metrics.pending.Inc()

	codec, tracer := s.codec, s.tracer
	job := jobs.Spawn(s.pool, func() ([]byte, error) {
		_, span := tracer.Start(context.Background(), "chunk.resend", trace.WithAttributes(
			attribute.Int64("chunk.x", pos.X),
			attribute.Int64("chunk.y", pos.Y),
		))
		defer span.End()
		return codec.Compress(grid)
	})
	s.resends = append(s.resends, &resendJob{requester: requester, pos: pos, job: job})
}

// Tick опрашивает фоновые задачи без блокировки и применяет готовые результаты
func (s *ChunkServer) Tick() {
	for pos, entry := range s.pending {
		result, done, err := entry.job.Poll()
		if !done {
			continue
		}
		s.metrics.pending.Dec()

		if err != nil {
			s.metrics.generationFailures.Inc()
			if entry.attempts < s.opts.MaxGenerationAttempts {
				s.logger.Warn("⚠️ Ошибка генерации %s (попытка %d/%d): %v",
					pos, entry.attempts, s.opts.MaxGenerationAttempts, err)
				s.startGeneration(pos, entry)
				continue
			}
			s.logger.Error("❌ Генерация %s не удалась после %d попыток, подписчиков: %d: %v",
				pos, entry.attempts, len(entry.subscribers), err)
			s.metrics.generationsGivenUp.Inc()
			delete(s.pending, pos)
			delete(s.entries, pos)
			continue
		}

		entry.state = stateReady
		entry.grid = result.grid
		entry.job = nil
		delete(s.pending, pos)
		s.metrics.cached.Inc()

		// Один и тот же буфер уходит всем подписчикам
		msg := protocol.ChunkData{Pos: pos, Data: result.payload}
		for _, requester := range entry.subscribers {
			s.deliver(requester, msg)
		}
		entry.subscribers = nil
	}

	remaining := s.resends[:0]
	for _, r := range s.resends {
		payload, done, err := r.job.Poll()
		if !done {
			remaining = append(remaining, r)
			continue
		}
		s.metrics.pending.Dec()
		if err != nil {
			s.logger.Error("Ошибка повторной сериализации %s для %s: %v", r.pos, r.requester, err)
			continue
		}
		s.deliver(r.requester, protocol.ChunkData{Pos: r.pos, Data: payload})
	}
	clear(s.resends[len(remaining):])
	s.resends = remaining
}

func (s *ChunkServer) deliver(requester uuid.UUID, msg protocol.ChunkData) {
	if err := s.sender.Send(requester, msg); err != nil {
		s.metrics.sendErrors.Inc()
		s.logger.Warn("Не удалось отправить чанк %s клиенту %s: %v", msg.Pos, requester, err)
		return
	}
	s.metrics.deliveries.Inc()
	s.logger.LogChunkData(requester.String(), msg.Pos.X, msg.Pos.Y, len(msg.Data))
}

// Forget удаляет отключившегося клиента из всех подписок и отменяет его повторные отправки.
// Уже запущенные задачи доработают, их результат будет отброшен.
func (s *ChunkServer) Forget(requester uuid.UUID) {
	for _, entry := range s.pending {
		entry.subscribers = slices.DeleteFunc(entry.subscribers, func(id uuid.UUID) bool {
			return id == requester
		})
	}

	remaining := s.resends[:0]
	for _, r := range s.resends {
		if r.requester == requester {
			s.metrics.pending.Dec()
			continue
		}
		remaining = append(remaining, r)
	}
	clear(s.resends[len(remaining):])
	s.resends = remaining
}

// Stats возвращает снимок состояния кеша
func (s *ChunkServer) Stats() Stats {
	return Stats{
		Ready:      len(s.entries) - len(s.pending),
		Generating: len(s.pending),
		Resends:    len(s.resends),
	}
}

// Ready сообщает, готов ли чанк в кеше
func (s *ChunkServer) Ready(pos vec.ChunkPos) bool {
	entry, ok := s.entries[pos]
	return ok && entry.state == stateReady
}
