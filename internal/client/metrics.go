package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики клиентского конвейера чанков
type Metrics struct {
	requests           prometheus.Counter
	rerequests         prometheus.Counter
	received           prometheus.Counter
	dropped            prometheus.Counter
	decompressFailures prometheus.Counter
	staleResults       prometheus.Counter
	meshesBuilt        prometheus.Counter
	meshFailures       prometheus.Counter
	evictions          prometheus.Counter
	loaded             prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil метрики не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkclient",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		requests:           counter("requests_total", "Отправленных запросов чанков."),
		rerequests:         counter("rerequests_total", "Повторных запросов после ошибки или таймаута."),
		received:           counter("chunks_received_total", "Полученных сообщений ChunkData."),
		dropped:            counter("chunks_dropped_total", "ChunkData для позиций, которые не отслеживаются."),
		decompressFailures: counter("decompress_failures_total", "Ошибок распаковки чанков."),
		staleResults:       counter("stale_results_total", "Отброшенных устаревших результатов фоновых задач."),
		meshesBuilt:        counter("meshes_built_total", "Построенных и переданных в рендер мешей."),
		meshFailures:       counter("mesh_failures_total", "Ошибок построения мешей."),
		evictions:          counter("evictions_total", "Выгруженных чанков."),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkclient",
			Name:      "chunks_loaded",
			Help:      "Отслеживаемых чанков в радиусе прорисовки.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.requests, m.rerequests, m.received, m.dropped, m.decompressFailures,
			m.staleResults, m.meshesBuilt, m.meshFailures, m.evictions, m.loaded,
		)
	}
	return m
}
