package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/voxel-stream/internal/client"
	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/jobs"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/mesh"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/transport"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// logRenderer вместо движка пишет статистику мешей в лог
type logRenderer struct {
	logger *logging.Logger
	meshes int
}

func (r *logRenderer) UploadMesh(pos vec.ChunkPos, m *mesh.Mesh, translation mgl32.Vec3) {
	r.meshes++
	if m.Empty() {
		r.logger.Debug("Чанк %s без видимых граней", pos)
		return
	}
	r.logger.Info("🧊 Меш чанка %s: вершин %d, треугольников %d, смещение %v",
		pos, m.VertexCount(), m.TriangleCount(), translation)
}

func (r *logRenderer) RemoveMesh(pos vec.ChunkPos) {
	r.meshes--
	r.logger.Debug("Меш чанка %s удалён", pos)
}

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию VOXEL_CONFIG)")
	addr := flag.String("addr", "", "адрес сервера (по умолчанию из конфигурации)")
	speed := flag.Float64("speed", 8, "скорость игрока, блоков в секунду")
	duration := flag.Duration("duration", 0, "время работы (0 - до сигнала)")
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
	if err := logging.InitDefaultLogger("client"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	serverAddr := *addr
	if serverAddr == "" {
		serverAddr = cfg.Server.GetServerAddr()
	}
	if strings.HasPrefix(serverAddr, ":") {
		serverAddr = "127.0.0.1" + serverAddr
	}
	if err := run(cfg, serverAddr, float32(*speed), *duration); err != nil {
		logging.Error("❌ Клиент остановлен с ошибкой: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, addr string, speed float32, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// Реестр и атлас строятся до запуска задач построения мешей
	registry, err := block.LoadRegistry(cfg.BlocksDir)
	if err != nil {
		return err
	}
	atlas, err := mesh.GridAtlas(registry.Textures(), cfg.Client.AtlasTileSize, 0)
	if err != nil {
		return err
	}
	logging.Info("🧱 Блоков: %d, атлас %dx%d (%d текстур)", registry.Len(), atlas.Width, atlas.Height, atlas.UVs.Len())

	dims := cfg.Dims()
	codec, err := protocol.NewChunkCodec(dims)
	if err != nil {
		return err
	}
	defer codec.Close()

	pool := jobs.NewPool(cfg.Workers, logging.GetComponentLogger("jobs"))
	defer pool.Close()

	conn, err := transport.Dial(ctx, addr, logging.GetTransportLogger())
	if err != nil {
		return err
	}
	defer conn.Close()
	logging.Info("🔌 Подключено к %s", addr)

	renderer := &logRenderer{logger: logging.GetComponentLogger("renderer")}
	w := client.NewWorld(client.Options{
		Dims:                  dims,
		ViewDistance:          cfg.Client.ViewDistance,
		MaxMeshJobsPerTick:    cfg.Client.MaxMeshJobsPerTick,
		MaxMeshAppliesPerTick: cfg.Client.MaxMeshAppliesPerTick,
		RequestTimeout:        cfg.Client.RequestTimeout,
		StrictShapes:          cfg.Client.StrictShapes,
	}, registry, atlas.UVs, codec, pool, conn, renderer, logging.GetClientLogger(), nil)

	// Игрок идёт по оси X на высоте поверхности
	position := mgl32.Vec3{0, float32(world.MinTerrainHeight), 0}
	last := time.Now()
	move := func(w *client.World) {
		now := time.Now()
		position[0] += speed * float32(now.Sub(last).Seconds())
		last = now
		w.SetPlayerPosition(position)
	}
	move(w)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx, conn.Inbound(), cfg.Client.Tick, move) })
	g.Go(func() error {
		select {
		case <-conn.Done():
			logging.Warn("⚠️ Соединение с сервером разорвано")
		case <-ctx.Done():
		}
		return nil
	})
	err = g.Wait()

	logging.Info("📊 Загружено чанков: %d, мешей в рендере: %d", len(w.Loaded()), renderer.meshes)
	return err
}
