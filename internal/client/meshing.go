package client

import (
	"slices"

	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/mesh"
)

// dispatchMeshes запускает построение мешей для чанков с данными,
// ближние к игроку первыми, не больше MaxMeshJobsPerTick за тик
func (w *World) dispatchMeshes() {
	var eligible []*chunkEntity
	for _, entity := range w.chunks {
		if entity.state == StateHasData && !entity.meshInFlight && entity.meshFailedVersion != entity.dataVersion {
			eligible = append(eligible, entity)
		}
	}
	if len(eligible) == 0 {
		return
	}

	player, _ := w.view.Current()
	slices.SortFunc(eligible, func(a, b *chunkEntity) int {
		da, db := a.pos.ChebyshevDistance(player), b.pos.ChebyshevDistance(player)
		if da != db {
			if da < db {
				return -1
			}
			return 1
		}
		return compareRowMajor(a.pos, b.pos)
	})
	if limit := w.opts.MaxMeshJobsPerTick; limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}

	builder := w.builder
	for _, entity := range eligible {
		grid := entity.data.Clone()
		entity.meshInFlight = true
		entity.state = StateMeshQueued
		w.meshJobs = append(w.meshJobs, &meshJob{
			pos:     entity.pos,
			id:      entity.id,
			version: entity.dataVersion,
			handle: jobs.Spawn(w.pool, func() (mesh.Result, error) {
				return builder.Build(grid)
			}),
		})
	}
}

// applyMeshes передаёт готовые меши в рендер, не больше MaxMeshAppliesPerTick за тик
func (w *World) applyMeshes() {
	applied := 0
	limit := w.opts.MaxMeshAppliesPerTick

	remaining := w.meshJobs[:0]
	for _, job := range w.meshJobs {
		if limit > 0 && applied >= limit {
			remaining = append(remaining, job)
			continue
		}
		res, done, err := job.handle.Poll()
		if !done {
			remaining = append(remaining, job)
			continue
		}

		entity, ok := w.lookup(job.pos, job.id)
		if !ok {
			w.metrics.staleResults.Inc()
			continue
		}
		entity.meshInFlight = false

		if job.version != entity.dataVersion {
			// Пока строился меш, пришли новые данные: чанк уже в HasData и будет перестроен
			w.metrics.staleResults.Inc()
			continue
		}

		if err != nil {
			w.metrics.meshFailures.Inc()
			w.logger.Error("❌ Ошибка построения меша чанка %s: %v", job.pos, err)
			entity.meshFailedVersion = job.version
			entity.state = StateHasData
			continue
		}
		if res.Skipped > 0 {
			w.logger.Warn("Чанк %s: пропущено блоков неподдерживаемой формы: %d", job.pos, res.Skipped)
		}

		w.renderer.UploadMesh(job.pos, res.Mesh, mesh.Translation(job.pos, w.opts.Dims))
		entity.uploaded = true
		entity.state = StateMeshReady
		w.metrics.meshesBuilt.Inc()
		applied++
	}
	clear(w.meshJobs[len(remaining):])
	w.meshJobs = remaining
}
