// Package config loads the CLI's recognized options (spec.md §6) from
// flags, environment variables, and defaults, in the teacher's
// viper-backed Load() idiom generalized to also bind a pflag.FlagSet
// (cmd/odat's command-line wrapper) ahead of the env/default layers.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Run      RunConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Log      LogConfig
	Worker   WorkerConfig
	Admin    AdminConfig
}

// RunConfig holds the options that shape one analyzer run: the input
// file, output directory, and the geometric/decoding parameters spec.md
// §6 names.
type RunConfig struct {
	Input           string
	OutputDir       string
	DecoderConfig   string // "StrictConfig" or "RelaxedConfig"
	TargetCRS       string // "EPSG:4326" or "EPSG:3857"
	BufferMeters    float64
	ConcaveRatio    float64
	LRPRadiusMeters float64
	Verbose         bool
}

type DatabaseConfig struct {
	DSN             string
	LinesTable      string
	NodesTable      string
	ModSpatialite   bool
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CacheConfig struct {
	RedisAddr string
	TTL       time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	NumThreads int
	QueueDepth int
}

type AdminConfig struct {
	Addr string
}

// Load reads the recognized options (spec.md §6) from flags (if fs is
// non-nil), environment variables, and an optional .env file, applying
// defaults exactly as the teacher's config.Load does post-parse.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ODAT")
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	cfg := &Config{
		Run: RunConfig{
			Input:           v.GetString("input"),
			OutputDir:       v.GetString("output_dir"),
			DecoderConfig:   v.GetString("decoder_config"),
			TargetCRS:       v.GetString("target_crs"),
			BufferMeters:    v.GetFloat64("buffer"),
			ConcaveRatio:    v.GetFloat64("concave_ratio"),
			LRPRadiusMeters: v.GetFloat64("lrp_radius"),
			Verbose:         v.GetBool("verbose"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("db"),
			LinesTable:      v.GetString("lines_table"),
			NodesTable:      v.GetString("nodes_table"),
			ModSpatialite:   v.GetBool("mod_spatialite"),
			MaxConns:        v.GetInt("db_max_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		Cache: CacheConfig{
			RedisAddr: v.GetString("redis_addr"),
			TTL:       v.GetDuration("redis_cache_ttl"),
		},
		Log: LogConfig{
			Level: v.GetString("log_level"),
		},
		Worker: WorkerConfig{
			NumThreads: v.GetInt("num_threads"),
			QueueDepth: v.GetInt("queue_depth"),
		},
		Admin: AdminConfig{
			Addr: v.GetString("admin_addr"),
		},
	}

	applyDefaults(cfg)

	if cfg.Run.Input == "" {
		return nil, fmt.Errorf("input is required")
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Run.OutputDir == "" {
		cfg.Run.OutputDir = "./output"
	}
	if cfg.Run.DecoderConfig == "" {
		cfg.Run.DecoderConfig = "StrictConfig"
	}
	if cfg.Run.TargetCRS == "" {
		cfg.Run.TargetCRS = "EPSG:4326"
	}
	if cfg.Run.BufferMeters == 0 {
		cfg.Run.BufferMeters = 20
	}
	if cfg.Run.LRPRadiusMeters == 0 {
		cfg.Run.LRPRadiusMeters = 20
	}
	if cfg.Database.LinesTable == "" {
		cfg.Database.LinesTable = "lines"
	}
	if cfg.Database.NodesTable == "" {
		cfg.Database.NodesTable = "nodes"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Worker.NumThreads == 0 {
		cfg.Worker.NumThreads = 1
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = 64
	}
}

// Flags registers the spec.md §6 options onto fs, for cmd/odat to pass
// to Load after parsing os.Args.
func Flags(fs *pflag.FlagSet) {
	fs.String("db", "", "target map database DSN")
	fs.String("input", "", "input JSON file path")
	fs.String("lines_table", "lines", "target map lines table name")
	fs.String("nodes_table", "nodes", "target map nodes table name")
	fs.String("decoder_config", "StrictConfig", "StrictConfig or RelaxedConfig")
	fs.Bool("mod_spatialite", false, "load the mod_spatialite extension")
	fs.String("output_dir", "./output", "directory for the streamed result JSON")
	fs.String("target_crs", "EPSG:4326", "EPSG:4326 or EPSG:3857")
	fs.Float64("buffer", 20, "buffer corridor radius, meters")
	fs.Float64("concave_ratio", 0.3, "concave hull ratio for map bounds (>=1.0 bypasses concave hull)")
	fs.Float64("lrp_radius", 20, "LRP candidate search radius, meters")
	fs.Int("num_threads", 1, "number of parallel analysis workers")
	fs.Int("queue_depth", 64, "bounded input/output queue depth per worker pool")
	fs.Bool("verbose", false, "enable debug logging")
	fs.String("log_level", "info", "zap log level")
	fs.Int("db_max_conns", 10, "target map database max open connections")
	fs.Int("db_max_idle_conns", 5, "target map database max idle connections")
	fs.Duration("db_conn_max_lifetime", 30*time.Minute, "target map database connection max lifetime")
	fs.String("redis_addr", "", "optional decode-result cache address (empty disables caching)")
	fs.Duration("redis_cache_ttl", time.Hour, "decode-result cache entry TTL")
	fs.String("admin_addr", "", "optional admin HTTP bind address (empty disables the admin surface)")
}

func (c *Config) GetDatabaseDSN() string { return c.Database.DSN }
