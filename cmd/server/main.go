package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/observability"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/server"
	"github.com/annel0/voxel-stream/internal/transport"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Configure(cfg.Log.Dir, level)
	if err := logging.GetLoggerManager().SetLevels(cfg.Log.Components); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg); err != nil {
		logging.Error("❌ Сервер остановлен с ошибкой: %v", err)
		os.Exit(1)
	}
	logging.Info("✅ Сервер остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск сервера чанков")

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.TelemetryOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Реестр заполняется до запуска любых задач генерации
	registry, err := block.LoadRegistry(cfg.BlocksDir)
	if err != nil {
		return err
	}
	logging.Info("🧱 Зарегистрировано блоков: %d", registry.Len())

	dims := cfg.Dims()
	codec, err := protocol.NewChunkCodec(dims)
	if err != nil {
		return err
	}
	defer codec.Close()

	pool := jobs.NewPool(cfg.Workers, logging.GetComponentLogger("jobs"))
	defer pool.Close()

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kcpServer := transport.NewServer(transport.ServerOptions{
		Addr:              cfg.Server.GetServerAddr(),
		OutboxSize:        cfg.Server.OutboxSize,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		RequestBurst:      cfg.Server.RequestBurst,
	}, logging.GetTransportLogger())
	if err := kcpServer.Listen(); err != nil {
		return err
	}

	chunks := server.NewChunkServer(
		server.Options{MaxGenerationAttempts: cfg.Server.MaxGenerationAttempts},
		registry,
		world.NewTerrainGenerator(cfg.Server.Seed, dims),
		codec,
		pool,
		kcpServer,
		logging.GetServerLogger(),
		server.NewMetrics(metricsRegistry),
	)

	logging.Info("✅ Сервер готов: KCP %s, чанк %dx%dx%d, воркеров %d",
		kcpServer.Addr(), dims.Size, dims.Height, dims.Size, pool.Workers())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return kcpServer.Serve(ctx) })
	g.Go(func() error { return chunks.Run(ctx, kcpServer.Inbound(), cfg.Server.Tick) })
	g.Go(func() error {
		return observability.ServeMetrics(ctx, cfg.Server.GetMetricsAddr(), metricsRegistry)
	})
	return g.Wait()
}
