package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - Prometheus-метрики кеша чанков
type Metrics struct {
	requests           prometheus.Counter
	generations        prometheus.Counter
	generationFailures prometheus.Counter
	generationsGivenUp prometheus.Counter
	cacheHits          prometheus.Counter
	deliveries         prometheus.Counter
	sendErrors         prometheus.Counter
	pending            prometheus.Gauge
	cached             prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg. При reg == nil метрики не регистрируются.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "requests_total",
			Help:      "Общее число запросов чанков.",
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "generations_total",
			Help:      "Запущенных задач генерации (включая повторные попытки).",
		}),
		generationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "generation_failures_total",
			Help:      "Задач генерации, завершившихся ошибкой.",
		}),
		generationsGivenUp: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "generations_given_up_total",
			Help:      "Позиций, удалённых из кеша после исчерпания попыток генерации.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "cache_hits_total",
			Help:      "Запросов, обслуженных из кеша без генерации.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "deliveries_total",
			Help:      "Отправленных клиентам сообщений ChunkData.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkserver",
			Name:      "send_errors_total",
			Help:      "Сообщений ChunkData, которые не удалось отправить.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkserver",
			Name:      "pending_jobs",
			Help:      "Задач генерации и повторной сериализации в работе.",
		}),
		cached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chunkserver",
			Name:      "cached_chunks",
			Help:      "Готовых чанков в кеше.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.requests, m.generations, m.generationFailures, m.generationsGivenUp,
			m.cacheHits, m.deliveries, m.sendErrors, m.pending, m.cached,
		)
	}
	return m
}
