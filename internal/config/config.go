package config

import (
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Содержит секции EventBus, Server, World и Persistence.

type Config struct {
	EventBus    EventBusConfig    `yaml:"eventbus"`
	Server      ServerConfig      `yaml:"server"`
	World       WorldConfig       `yaml:"world"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// WorldConfig tunes the chunk store's loading, lighting and generation
// behavior.
type WorldConfig struct {
	SpawnRadius         int   `yaml:"spawn_radius"`
	MaxProcessingChunks int   `yaml:"max_processing_chunks"`
	LightRadius         int   `yaml:"light_radius"`
	Seed                int64 `yaml:"seed"`
}

// GetSpawnRadius returns the configured spawn preload radius (in
// chunks), defaulting to 3 — a 7x6x7 column around the origin.
func (w *WorldConfig) GetSpawnRadius() int {
	if w.SpawnRadius > 0 {
		return w.SpawnRadius
	}
	return 3
}

// GetMaxProcessingChunks returns the configured cap on chunks
// in-flight through worldgen/meshing at once, defaulting to 8.
func (w *WorldConfig) GetMaxProcessingChunks() int {
	if w.MaxProcessingChunks > 0 {
		return w.MaxProcessingChunks
	}
	return 8
}

// GetLightRadius returns the configured neighbor-chunk radius the
// light engine re-propagates into on a block edit, defaulting to 1.
func (w *WorldConfig) GetLightRadius() int {
	if w.LightRadius > 0 {
		return w.LightRadius
	}
	return 1
}

// GetSeed returns the configured world generation seed. Unlike the
// other WorldConfig fields, 0 is a legitimate seed rather than "unset",
// so this returns the field verbatim — it exists only to keep every
// WorldConfig field read through a Get* accessor.
func (w *WorldConfig) GetSeed() int64 {
	return w.Seed
}

// PersistenceConfig selects and configures the backend chunk and
// player data are saved to.
type PersistenceConfig struct {
	// Backend is one of "badger", "redis", "mariadb" or "memory".
	// Chunk storage only ever uses badger; Backend governs player saves.
	Backend  string `yaml:"backend"`
	DataPath string `yaml:"data_path"`

	// MariaDSN is the player_records connection string
	// (user:pass@tcp(host:port)/dbname), used when Backend is "mariadb".
	MariaDSN string `yaml:"maria_dsn"`

	// RedisAddr/RedisPassword/RedisDB select the player-save connection
	// used when Backend is "redis".
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// GetBackend returns the configured player-save backend, defaulting to
// "badger".
func (p *PersistenceConfig) GetBackend() string {
	if p.Backend != "" {
		return p.Backend
	}
	return "badger"
}

// GetDataPath returns the configured data directory, defaulting to
// "./world".
func (p *PersistenceConfig) GetDataPath() string {
	if p.DataPath != "" {
		return p.DataPath
	}
	return "./world"
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	TCPPort     int `yaml:"tcp_port"`
	UDPPort     int `yaml:"udp_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetTCPPort возвращает TCP порт с поддержкой fallback значений
func (s *ServerConfig) GetTCPPort() int {
	return getPortWithEnvFallback(s.TCPPort, "GAME_TCP_PORT", 7777)
}

// GetUDPPort возвращает UDP порт с поддержкой fallback значений
func (s *ServerConfig) GetUDPPort() int {
	return getPortWithEnvFallback(s.UDPPort, "GAME_UDP_PORT", 7778)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GAME_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
