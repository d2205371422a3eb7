package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/vec"
)

// Request - событие от транспорта: запрос чанка или отключение клиента
type Request struct {
	Requester  uuid.UUID
	Pos        vec.ChunkPos
	Disconnect bool
}

// Run обрабатывает события и тики в одной горутине до отмены ctx.
// Это единственная горутина, изменяющая состояние кеша.
func (s *ChunkServer) Run(ctx context.Context, inbound <-chan Request, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.logger.Info("🚀 Цикл кеша чанков запущен (тик %v)", tick)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("🛑 Цикл кеша чанков остановлен: %+v", s.Stats())
			return nil
		case req, ok := <-inbound:
			if !ok {
				return nil
			}
			s.apply(req)
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *ChunkServer) apply(req Request) {
	if req.Disconnect {
		s.Forget(req.Requester)
		return
	}
	s.HandleRequest(req.Requester, protocol.ChunkRequest{Pos: req.Pos})
}
