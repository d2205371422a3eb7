package client

import (
	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/world"
)

// HandleChunkData ставит распаковку полученного чанка в фоновый пул.
// Данные для позиций, которые не отслеживаются (не запрошены или уже выгружены), отбрасываются.
func (w *World) HandleChunkData(msg protocol.ChunkData) {
	w.metrics.received.Inc()

	entity, ok := w.chunks[msg.Pos]
	if !ok {
		w.metrics.dropped.Inc()
		w.logger.Debug("Чанк %s не отслеживается, данные отброшены", msg.Pos)
		return
	}

	entity.arrivals++
	entity.decompressing++
	if entity.state == StateRequested {
		entity.state = StateDecompressing
	}

	codec, payload := w.codec, msg.Data
	w.decompressJobs = append(w.decompressJobs, &decompressJob{
		pos: msg.Pos,
		id:  entity.id,
		seq: entity.arrivals,
		handle: jobs.Spawn(w.pool, func() (*world.ChunkData, error) {
			return codec.Decompress(payload)
		}),
	})
}

// pollDecompression применяет завершённые распаковки.
// Побеждают данные, пришедшие последними: результат более раннего
// сообщения не перезапишет уже применённый более поздний.
func (w *World) pollDecompression() {
	remaining := w.decompressJobs[:0]
	for _, job := range w.decompressJobs {
		grid, done, err := job.handle.Poll()
		if !done {
			remaining = append(remaining, job)
			continue
		}

		entity, ok := w.lookup(job.pos, job.id)
		if !ok {
			w.metrics.staleResults.Inc()
			continue
		}
		entity.decompressing--

		if err != nil {
			w.metrics.decompressFailures.Inc()
			w.logger.Warn("⚠️ Ошибка распаковки чанка %s: %v", job.pos, err)
			if entity.data == nil && entity.decompressing == 0 {
				entity.state = StateRequested
				entity.needRequest = true
			}
			continue
		}

		if job.seq <= entity.applied {
			w.metrics.staleResults.Inc()
			continue
		}
		entity.applied = job.seq
		entity.data = grid
		entity.dataVersion++
		entity.state = StateHasData
	}
	clear(w.decompressJobs[len(remaining):])
	w.decompressJobs = remaining
}
