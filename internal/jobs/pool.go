// Package jobs - фоновый пул для CPU-задач (генерация, сжатие, распаковка, меши).
//
// Главный цикл никогда не ждёт задачу: он создаёт Handle через Spawn и
// раз в тик опрашивает его методом Poll. Результаты применяются только
// в опрашивающей горутине.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-stream/internal/logging"
)

var (
	// ErrPoolClosed - пул закрыт, задача не запускалась
	ErrPoolClosed = errors.New("пул задач закрыт")
	// ErrJobPanic - задача завершилась паникой
	ErrJobPanic = errors.New("паника в фоновой задаче")
)

// Pool ограничивает число одновременно выполняемых задач.
// Постановка задачи не блокирует вызывающего: ожидание слота происходит
// в горутине задачи.
type Pool struct {
	slots    chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	inFlight atomic.Int64
	logger   *logging.Logger
}

// NewPool создаёт пул. workers <= 0 означает runtime.NumCPU().
func NewPool(workers int, logger *logging.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pool{
		slots:  make(chan struct{}, workers),
		logger: logger,
	}
}

// Workers возвращает максимальное число одновременно выполняемых задач
func (p *Pool) Workers() int {
	return cap(p.slots)
}

// InFlight возвращает число поставленных и ещё не завершённых задач
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

func (p *Pool) submit(run func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	p.wg.Add(1)
	p.inFlight.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Add(-1)

		p.slots <- struct{}{}
		defer func() { <-p.slots }()

		run()
	}()
	return true
}

// Close запрещает новые задачи и ждёт завершения уже поставленных
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}

// Handle - результат фоновой задачи
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Spawn ставит задачу в пул и сразу возвращает её Handle.
// Если пул закрыт, Handle уже завершён с ErrPoolClosed.
func Spawn[T any](p *Pool, fn func() (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	ok := p.submit(func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("%w: %v", ErrJobPanic, r)
				p.logger.Error("Паника в фоновой задаче: %v", r)
			}
		}()
		h.value, h.err = fn()
	})
	if !ok {
		h.err = ErrPoolClosed
		close(h.done)
	}
	return h
}

// Poll не блокируется: ok == false, пока задача выполняется
func (h *Handle[T]) Poll() (value T, ok bool, err error) {
	select {
	case <-h.done:
		return h.value, true, h.err
	default:
		return value, false, nil
	}
}

// Done возвращает канал, закрывающийся по завершении задачи
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait блокируется до завершения задачи или отмены ctx.
// Используется при остановке и в тестах, но не в игровом цикле.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
