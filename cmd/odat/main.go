package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/aggregator"
	"github.com/tomtom-odat/odat-go/internal/analyzer"
	"github.com/tomtom-odat/odat-go/internal/config"
	adminhttp "github.com/tomtom-odat/odat-go/internal/delivery/http"
	"github.com/tomtom-odat/odat-go/internal/ingest"
	"github.com/tomtom-odat/odat-go/internal/pkg/logger"
	"github.com/tomtom-odat/odat-go/internal/repository/rescache"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
	"github.com/tomtom-odat/odat-go/internal/roadmap/postgis"
	"github.com/tomtom-odat/odat-go/internal/worker"
)

func main() {
	// 1. Parse flags and load configuration.
	fs := pflag.NewFlagSet("odat", pflag.ExitOnError)
	config.Flags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		panic(fmt.Sprintf("failed to parse flags: %v", err))
	}

	cfg, err := config.Load(fs)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Initialize logger.
	level := cfg.Log.Level
	if cfg.Run.Verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	// Every run gets a fresh run ID, carried on every subsequent log
	// line and stamped into the output metadata (SPEC_FULL.md §4: "used
	// here to stamp each run's metadata with a run ID").
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	log.Info("starting analysis run",
		zap.String("input", cfg.Run.Input),
		zap.Int("num_threads", cfg.Worker.NumThreads),
		zap.String("decoder_config", cfg.Run.DecoderConfig))

	// 3. Load and validate the input JSON.
	jobs, err := ingest.Load(cfg.Run.Input, log)
	if err != nil {
		log.Fatal("failed to load input", zap.Error(err))
	}

	// 4. Connect to the target map database and determine its bounds.
	db, err := postgis.NewDB(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to target map database", zap.Error(err))
	}
	defer db.Close()

	boundsReader := postgis.NewReader(db, cfg.Database.LinesTable, cfg.Database.NodesTable, log)
	mapBounds, err := boundsReader.MapBounds(cfg.Run.ConcaveRatio)
	if err != nil {
		log.Fatal("failed to compute target map bounds", zap.Error(err))
	}

	// 5. Connect to the optional decode-result cache.
	var cache *rescache.Cache
	if cfg.Cache.RedisAddr != "" {
		redisConn, err := rescache.NewRedis(cfg.Cache, log)
		if err != nil {
			log.Fatal("failed to connect to result cache", zap.Error(err))
		}
		defer redisConn.Close()
		cache = rescache.New(redisConn, cfg.Cache.TTL)
	}

	// 6. Open the output writer and aggregator.
	writer, err := aggregator.Create(cfg.Run.OutputDir, effectiveParams(cfg, runID))
	if err != nil {
		log.Fatal("failed to create output file", zap.Error(err))
	}
	agg := aggregator.New(writer)

	// 7. Start the optional admin HTTP surface.
	var admin *adminhttp.Server
	if cfg.Admin.Addr != "" {
		admin = adminhttp.NewServer(cfg.Admin.Addr, agg, log)
		go func() {
			if err := admin.Start(); err != nil {
				log.Warn("admin http server stopped", zap.Error(err))
			}
		}()
	}

	// 8. Run the loader/workers/aggregator pipeline.
	baseConfig := roadmap.StrictConfig
	if cfg.Run.DecoderConfig == "RelaxedConfig" {
		baseConfig = roadmap.RelaxedConfig
	}

	pool := &worker.Pool{
		NumWorkers: cfg.Worker.NumThreads,
		QueueDepth: cfg.Worker.QueueDepth,
		NewReader:  readerFactory(cfg, log),
		MapBounds:  &mapBounds,
		Params:     analyzer.Params{BufferMeters: cfg.Run.BufferMeters, LRPRadiusMeters: cfg.Run.LRPRadiusMeters, BaseConfig: baseConfig},
		Cache:      cache,
		Logger:     log,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("shutdown signal received, waiting for in-flight records to finish")
		cancel()
	}()

	if err := pool.Run(ctx, jobs, agg); err != nil {
		log.Error("worker pool failed", zap.Error(err))
	}

	if err := writer.Close(); err != nil {
		log.Error("failed to close output file", zap.Error(err))
	}

	snap := agg.StatsSnapshot()
	log.Info("analysis run complete", zap.Int("total", snap.Total), zap.Int("duplicate", snap.Duplicate))

	if admin != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			log.Warn("admin http server shutdown error", zap.Error(err))
		}
	}
}

// readerFactory returns a worker.ReaderFactory opening one database
// connection pool per worker (spec.md §5: "the full-map database
// connection is per-worker").
func readerFactory(cfg *config.Config, log *zap.Logger) worker.ReaderFactory {
	return func() (roadmap.FullMapReader, func() error, error) {
		db, err := postgis.NewDB(cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		reader := postgis.NewReader(db, cfg.Database.LinesTable, cfg.Database.NodesTable, log)
		return reader, db.Close, nil
	}
}

// effectiveParams reports the run's effective configuration for the
// output JSON's metadata block (spec.md §6).
func effectiveParams(cfg *config.Config, runID string) map[string]interface{} {
	return map[string]interface{}{
		"run_id":         runID,
		"input":          cfg.Run.Input,
		"decoder_config": cfg.Run.DecoderConfig,
		"target_crs":     cfg.Run.TargetCRS,
		"buffer":         cfg.Run.BufferMeters,
		"concave_ratio":  cfg.Run.ConcaveRatio,
		"lrp_radius":     cfg.Run.LRPRadiusMeters,
		"num_threads":    cfg.Worker.NumThreads,
		"lines_table":    cfg.Database.LinesTable,
		"nodes_table":    cfg.Database.NodesTable,
	}
}
