package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/logai/logai/internal/config"
	"github.com/logai/logai/internal/observability"
	"github.com/logai/logai/pkg/catalog"
	"github.com/logai/logai/pkg/coord"
	"github.com/logai/logai/pkg/scanner"
	"github.com/logai/logai/pkg/search"
	"github.com/logai/logai/pkg/spill"
)

// heartbeatEvery drives the admission and pool gauges.
const heartbeatEvery = 15 * time.Second

// engine is the assembled search stack shared by serve and one-shot
// commands.
type engine struct {
	cfg       *config.Config
	log       *zap.Logger
	sessionID string

	catalog *catalog.Catalog
	metrics *coord.PromMetrics
	redisM  *coord.RedisMetrics
	coord   *coord.Coordinator
	scanner *scanner.Scanner
	store   *spill.Store
	exec    *search.Executor

	flushLogs func()
}

// buildEngine loads configuration and wires every component. Teardown is
// engine.close, in reverse order of construction.
func buildEngine(ctx context.Context, overrides ...map[string]any) (*engine, error) {
	cfg, err := loadConfig(ctx, overrides...)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	flush, err := initLogging(cfg)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}
	log := observability.CLILogger

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		flush()
		return nil, exitError(foundry.ExitInvalidArgument, "Failed to load service catalog", err)
	}
	log.Debug("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("services", cat.Len()))

	e := &engine{
		cfg:       cfg,
		log:       log,
		sessionID: uuid.New().String(),
		catalog:   cat,
		flushLogs: flush,
	}

	var metrics coord.Metrics = coord.NopMetrics{}
	if cfg.Metrics.Enabled {
		e.metrics = coord.NewPromMetrics(prometheus.DefaultRegisterer)
		metrics = e.metrics
	}

	var redisOpts *coord.RedisOptions
	if cfg.Redis.Enabled {
		redisOpts = &coord.RedisOptions{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			RetryDelay: cfg.Redis.RetryDelay,
			MaxRetries: cfg.Redis.MaxRetries,
		}
		e.redisM = coord.NewRedisMetrics(*redisOpts, log)
		if e.metrics != nil {
			metrics = coord.MultiMetrics{e.metrics, e.redisM}
		} else {
			metrics = e.redisM
		}
	}

	e.coord = coord.New(coord.Options{
		GlobalSlots:     cfg.Search.GlobalSlots,
		CacheTTL:        cfg.Cache.TTL,
		CacheMaxBytes:   cfg.Cache.MaxBytes,
		CacheMaxEntries: cfg.Cache.MaxEntries,
		CatalogPath:     cfg.Catalog.Path,
		Redis:           redisOpts,
	}, metrics, log)

	e.scanner = scanner.New(log)
	if !e.scanner.Available() {
		e.close(ctx)
		return nil, exitError(foundry.ExitInvalidArgument, "No scanner available", scanner.ErrNoScanner)
	}
	log.Debug("scanner resolved", zap.String("tool", e.scanner.Tool()))

	e.store, err = spill.NewStore(cfg.Output.Dir, e.sessionID, log)
	if err != nil {
		e.close(ctx)
		return nil, exitError(foundry.ExitFileWriteError, "Failed to create output directory", err)
	}

	e.exec = search.NewExecutor(e.catalog, e.coord, e.scanner, e.store, search.Options{
		PerCallSlots: cfg.Search.PerCallSlots,
		Deadline:     cfg.Search.Deadline,
		PreviewLimit: cfg.Search.PreviewLimit,
	}, log)

	return e, nil
}

// housekeeping runs the retention sweep and gauge heartbeat until ctx is
// done. Intended for serve mode.
func (e *engine) housekeeping(ctx context.Context) {
	go e.store.SweepLoop(ctx, e.cfg.Output.SweepInterval, e.cfg.Output.Retention)

	go func() {
		ticker := time.NewTicker(heartbeatEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.coord.Heartbeat(ctx)
			}
		}
	}()
}

func (e *engine) close(ctx context.Context) {
	if e.coord != nil {
		if err := e.coord.Close(ctx); err != nil {
			e.log.Warn("coordination teardown failed", zap.Error(err))
		}
	}
	if e.redisM != nil {
		_ = e.redisM.Close()
	}
	if e.flushLogs != nil {
		e.flushLogs()
	}
}
