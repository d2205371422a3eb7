package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/world"
)

// Config корневая структура конфигурации сервера и клиента
type Config struct {
	Chunk     ChunkConfig     `yaml:"chunk"`
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Workers   int             `yaml:"workers"`    // 0 - по числу CPU
	BlocksDir string          `yaml:"blocks_dir"` // каталог YAML-описаний блоков, можно не задавать
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ChunkConfig struct {
	Size   int `yaml:"size"`
	Height int `yaml:"height"`
}

type ServerConfig struct {
	Addr                  string        `yaml:"addr"`
	MetricsAddr           string        `yaml:"metrics_addr"`
	Tick                  time.Duration `yaml:"tick"`
	Seed                  int64         `yaml:"seed"`
	MaxGenerationAttempts int           `yaml:"max_generation_attempts"`
	RequestsPerSecond     float64       `yaml:"requests_per_second"`
	RequestBurst          int           `yaml:"request_burst"`
	OutboxSize            int           `yaml:"outbox_size"`
}

type ClientConfig struct {
	ViewDistance          int           `yaml:"view_distance"`
	MaxMeshJobsPerTick    int           `yaml:"max_mesh_jobs_per_tick"`
	MaxMeshAppliesPerTick int           `yaml:"max_mesh_applies_per_tick"` // 0 - без ограничения
	RequestTimeout        time.Duration `yaml:"request_timeout"`
	StrictShapes          bool          `yaml:"strict_shapes"`
	Tick                  time.Duration `yaml:"tick"`
	AtlasTileSize         int           `yaml:"atlas_tile_size"`
}

type LogConfig struct {
	Dir        string            `yaml:"dir"`
	Level      string            `yaml:"level"`
	Components map[string]string `yaml:"components"` // уровни консоли по компонентам
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`     // host:port OTLP HTTP, пусто - localhost:4318
	Insecure    bool    `yaml:"insecure"`     // без TLS
	SampleRatio float64 `yaml:"sample_ratio"` // доля трассируемых операций, 0 - все
}

// DefaultPort - порт сервера по умолчанию
const DefaultPort = 12478

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Chunk: ChunkConfig{Size: 16, Height: 256},
		Server: ServerConfig{
			Addr:                  fmt.Sprintf(":%d", DefaultPort),
			MetricsAddr:           ":2112",
			Tick:                  50 * time.Millisecond,
			MaxGenerationAttempts: 3,
			RequestsPerSecond:     400,
			RequestBurst:          800,
			OutboxSize:            256,
		},
		Client: ClientConfig{
			ViewDistance:       4,
			MaxMeshJobsPerTick: 10,
			RequestTimeout:     10 * time.Second,
			Tick:               16 * time.Millisecond,
			AtlasTileSize:      16,
		},
		Log:       LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: "voxel-stream"},
	}
}

// GetServerAddr возвращает адрес сервера с приоритетом: env -> config
func (s *ServerConfig) GetServerAddr() string {
	return getStringWithEnvFallback("VOXEL_SERVER_ADDR", s.Addr)
}

// GetMetricsAddr возвращает адрес Prometheus /metrics с приоритетом: env -> config
func (s *ServerConfig) GetMetricsAddr() string {
	return getStringWithEnvFallback("VOXEL_METRICS_ADDR", s.MetricsAddr)
}

func getStringWithEnvFallback(envVar, configValue string) string {
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return configValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", путь берётся из ENV VOXEL_CONFIG; если и он пуст, возвращаются дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация %s: %w", path, err)
	}
	return cfg, nil
}

// Dims возвращает размеры чанка из конфигурации
func (c *Config) Dims() world.Dimensions {
	return world.Dimensions{Size: c.Chunk.Size, Height: c.Chunk.Height}
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 || c.Chunk.Height <= 0 {
		return fmt.Errorf("размер чанка должен быть положительным: %dx%d", c.Chunk.Size, c.Chunk.Height)
	}
	if err := protocol.ValidateDims(c.Dims()); err != nil {
		return err
	}
	if c.Client.ViewDistance < 0 {
		return fmt.Errorf("отрицательная дальность прорисовки: %d", c.Client.ViewDistance)
	}
	if c.Client.MaxMeshJobsPerTick < 0 || c.Client.MaxMeshAppliesPerTick < 0 {
		return fmt.Errorf("лимиты мешей на тик не могут быть отрицательными")
	}
	if c.Server.Tick <= 0 || c.Client.Tick <= 0 {
		return fmt.Errorf("период тика должен быть положительным")
	}
	if c.Workers < 0 {
		return fmt.Errorf("отрицательное число воркеров: %d", c.Workers)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio вне [0, 1]: %v", c.Telemetry.SampleRatio)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for component, level := range c.Log.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("компонент %s: %w", component, err)
		}
	}
	return nil
}
