// Package config loads hypercut settings from a TOML file.
//
// Every section is optional. Keys missing from the file keep the values of
// [Default], and unknown keys are rejected so typos surface early:
//
//	[runner]
//	epsilon = 0.05
//	trials  = 16
//
//	[partition]
//	coarsen_limit = 400
//
//	[cache]
//	backend = "redis"
//	redis   = { addr = "localhost:6379" }
//
//	[store]
//	backend = "mongo"
//	mongo   = { uri = "mongodb://localhost:27017" }
//
//	[server]
//	addr    = ":8080"
//	timeout = "2m"
//
// Command-line flags override file values.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hypercut/pkg/cache"
	"github.com/matzehuels/hypercut/pkg/partition"
	"github.com/matzehuels/hypercut/pkg/pipeline"
	"github.com/matzehuels/hypercut/pkg/store"
)

// AppName names the configuration, cache and data directories.
const AppName = "hypercut"

// FileName is the configuration file looked up in [Dir].
const FileName = "hypercut.toml"

// Backend names.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

// ErrInvalid is returned by [Config.Validate] and [Load].
var ErrInvalid = errors.New("invalid configuration")

// Config is the decoded configuration file.
type Config struct {
	Runner    RunnerConfig     `toml:"runner"`
	Partition partition.Config `toml:"partition"`
	Cache     CacheConfig      `toml:"cache"`
	Store     StoreConfig      `toml:"store"`
	Server    ServerConfig     `toml:"server"`
}

// RunnerConfig holds the multi-start defaults.
type RunnerConfig struct {
	Epsilon float64 `toml:"epsilon"`
	Trials  int     `toml:"trials"`
	Workers int     `toml:"workers"` // 0 uses GOMAXPROCS
	Seed    uint64  `toml:"seed"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend string            `toml:"backend"` // none, file or redis
	Dir     string            `toml:"dir"`     // file backend; empty uses CacheDir
	Redis   cache.RedisConfig `toml:"redis"`
}

// StoreConfig selects the run history store.
type StoreConfig struct {
	Backend string            `toml:"backend"` // memory, file or mongo
	Dir     string            `toml:"dir"`     // file backend; empty uses DataDir/runs
	Mongo   store.MongoConfig `toml:"mongo"`
}

// ServerConfig configures `hypercut serve`.
type ServerConfig struct {
	Addr    string        `toml:"addr"`
	Timeout time.Duration `toml:"timeout"` // per partition request
	MaxPins int           `toml:"max_pins"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Runner: RunnerConfig{
			Epsilon: pipeline.DefaultEpsilon,
			Trials:  pipeline.DefaultTrials,
			Seed:    pipeline.DefaultSeed,
		},
		Partition: partition.DefaultConfig(),
		Cache:     CacheConfig{Backend: BackendFile},
		Store:     StoreConfig{Backend: BackendFile},
		Server: ServerConfig{
			Addr:    ":8080",
			Timeout: 2 * time.Minute,
			MaxPins: 1_000_000,
		},
	}
}

// Load reads the file at path on top of [Default]. An empty path loads
// Dir()/hypercut.toml if it exists and the defaults otherwise.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, FileName)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	if c.Runner.Epsilon < 0 {
		return fmt.Errorf("%w: runner.epsilon must not be negative", ErrInvalid)
	}
	if c.Runner.Trials < 0 || c.Runner.Workers < 0 {
		return fmt.Errorf("%w: runner.trials and runner.workers must not be negative", ErrInvalid)
	}
	c.Partition.SetDefaults()
	if err := c.Partition.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !slices.Contains([]string{BackendNone, BackendFile, BackendRedis}, c.Cache.Backend) {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalid, c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("%w: cache.redis.addr is required", ErrInvalid)
	}
	if !slices.Contains([]string{BackendMemory, BackendFile, BackendMongo}, c.Store.Backend) {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.Mongo.URI == "" {
		return fmt.Errorf("%w: store.mongo.uri is required", ErrInvalid)
	}
	if c.Server.Timeout < 0 || c.Server.MaxPins < 0 {
		return fmt.Errorf("%w: server.timeout and server.max_pins must not be negative", ErrInvalid)
	}
	return nil
}

// PipelineOptions returns runner options seeded from the file.
func (c *Config) PipelineOptions() pipeline.Options {
	part := c.Partition
	part.Logger = nil
	return pipeline.Options{
		Epsilon:   c.Runner.Epsilon,
		Trials:    c.Runner.Trials,
		Seed:      c.Runner.Seed,
		Workers:   c.Runner.Workers,
		Partition: part,
	}
}

// OpenCache opens the configured cache backend.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.Redis)
	default:
		dir := c.Dir
		if dir == "" {
			var err error
			if dir, err = CacheDir(); err != nil {
				return nil, err
			}
		}
		return cache.NewFileCache(dir)
	}
}

// OpenStore opens the configured run history store.
func (s StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	switch s.Backend {
	case BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendMongo:
		return store.NewMongoStore(ctx, s.Mongo)
	default:
		dir := s.Dir
		if dir == "" {
			data, err := DataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(data, "runs")
		}
		return store.NewFileStore(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// Dir returns the configuration directory (~/.config/hypercut/).
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the cache directory (~/.cache/hypercut/).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DataDir returns the data directory (~/.local/share/hypercut/).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
