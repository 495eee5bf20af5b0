package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notiongate/notiongate/internal/batch"
	"github.com/notiongate/notiongate/internal/discovery"
	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/registry"
	"github.com/notiongate/notiongate/internal/rows"
	"github.com/notiongate/notiongate/internal/tasks"
	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/config"
	"github.com/notiongate/notiongate/pkg/logger"
)

// Engine owns the gateway's long-lived components and the HTTP server
type Engine struct {
	config    *config.Config
	logger    *logger.Logger
	server    *http.Server
	client    *notion.Client
	registry  *registry.Registry
	discovery *discovery.Service
	tasks     *tasks.Model
	batchOpts batch.Options

	state struct {
		sync.Mutex
		isRunning         bool
		ongoingOperations int32
	}
	metrics struct {
		requestsProcessed int64
		errors            int64
	}
}

// NewEngine creates an engine from configuration
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		config: cfg,
	}
}

// SetLogger sets the logger for the engine
func (e *Engine) SetLogger(logger *logger.Logger) {
	e.logger = logger
}

// Start wires the upstream client, registry, discovery, and tasks model,
// then brings up the HTTP server
func (e *Engine) Start(ctx context.Context) error {
	e.state.Lock()
	if e.state.isRunning {
		e.state.Unlock()
		return fmt.Errorf("engine is already running")
	}
	e.state.isRunning = true
	e.state.Unlock()

	e.logger.Infof("Starting gateway engine...")

	token := e.config.Get("notion.api_key")
	if token == "" {
		return fmt.Errorf("notion.api_key is not configured")
	}
	e.client = notion.NewClient(e.config.Get("notion.base_url"), token, e.logger)

	store, err := e.buildStore(ctx)
	if err != nil {
		return err
	}

	reservedID := e.config.Get("notion.tasks_database_id")
	e.registry = registry.New(store, e.client, e.logger,
		reservedID, e.config.Get("notion.parent_page_id"))
	if err := e.registry.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema registry: %v", err)
	}

	e.batchOpts = e.buildBatchOptions()
	e.discovery = discovery.New(e.client, e.logger)

	if reservedID != "" {
		e.tasks = tasks.NewModel(e.client, e.logger, reservedID, e.batchOpts)
	} else {
		e.logger.Warnf("No tasks database configured; /api/tasks is disabled")
	}

	port, err := strconv.Atoi(e.config.GetOrDefault("server.http_port", "8080"))
	if err != nil {
		return fmt.Errorf("invalid port configuration: %v", err)
	}

	e.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: NewServer(e),
	}

	e.logger.Infof("Starting HTTP server on port: %d", port)

	go func() {
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Errorf("HTTP server error: %v", err)
			atomic.AddInt64(&e.metrics.errors, 1)
		}
	}()

	return nil
}

// Stop shuts the HTTP server down gracefully
func (e *Engine) Stop(ctx context.Context) error {
	e.state.Lock()
	if !e.state.isRunning {
		e.state.Unlock()
		return nil
	}
	e.state.isRunning = false
	e.state.Unlock()

	e.logger.Infof("Stopping gateway engine...")

	if e.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return e.server.Shutdown(shutdownCtx)
	}
	return nil
}

func (e *Engine) buildStore(ctx context.Context) (registry.Store, error) {
	switch e.config.GetOrDefault("registry.store", "file") {
	case "file":
		dir := e.config.GetOrDefault("registry.dir", "schemas")
		return registry.NewFileStore(dir)
	case "redis":
		addr := e.config.GetOrDefault("registry.redis_addr", "localhost:6379")
		return registry.NewRedisStore(addr), nil
	case "postgres":
		url := e.config.Get("registry.postgres_url")
		if url == "" {
			return nil, fmt.Errorf("registry.postgres_url is required for the postgres store")
		}
		return registry.NewPgStore(ctx, url)
	default:
		return nil, fmt.Errorf("unknown registry store %q", e.config.Get("registry.store"))
	}
}

func (e *Engine) buildBatchOptions() batch.Options {
	opts := batch.DefaultOptions()
	if v, err := strconv.Atoi(e.config.Get("batch.chunk_size")); err == nil && v > 0 {
		opts.ChunkSize = v
	}
	if v, err := strconv.Atoi(e.config.Get("batch.max_parallel")); err == nil && v > 0 {
		opts.MaxParallel = v
	}
	if v, err := strconv.Atoi(e.config.Get("batch.retry_attempts")); err == nil && v >= 0 {
		opts.RetryAttempts = v
	}
	if v, err := strconv.Atoi(e.config.Get("batch.chunk_delay_ms")); err == nil && v >= 0 {
		opts.ChunkDelay = time.Duration(v) * time.Millisecond
	}
	return opts
}

// Model binds a row model to a database id, hydrating the registry from
// discovery on first reference to an id created outside this gateway. The
// reserved tasks id never hydrates: the registry keeps it invisible, so it
// stays a not-found through the dynamic path.
func (e *Engine) Model(ctx context.Context, databaseID string) (*rows.Model, error) {
	model, err := rows.NewModel(e.registry, e.client, e.logger, databaseID, e.batchOpts)
	if err == nil {
		return model, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	live, ferr := e.discovery.FetchSchema(ctx, databaseID)
	if ferr != nil {
		if apperrors.IsNotFound(ferr) {
			return nil, apperrors.NotFound("database", databaseID)
		}
		return nil, ferr
	}
	if rerr := e.registry.Register(live); rerr != nil {
		return nil, rerr
	}
	if serr := e.registry.Save(ctx, live); serr != nil {
		e.logger.Errorf("Failed to persist hydrated schema %s: %v", databaseID, serr)
	}

	return rows.NewModel(e.registry, e.client, e.logger, databaseID, e.batchOpts)
}

// TrackOperation marks the start of a handled request
func (e *Engine) TrackOperation() {
	atomic.AddInt32(&e.state.ongoingOperations, 1)
	atomic.AddInt64(&e.metrics.requestsProcessed, 1)
}

// UntrackOperation marks the end of a handled request
func (e *Engine) UntrackOperation() {
	atomic.AddInt32(&e.state.ongoingOperations, -1)
}

// TrackError counts a failed request
func (e *Engine) TrackError() {
	atomic.AddInt64(&e.metrics.errors, 1)
}
