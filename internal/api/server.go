// Package api implements the Fretline HTTP server.
//
// The server accepts MIDI and audio uploads, tracks them as jobs, runs the
// conversion pipeline on worker goroutines, and serves the rendered
// tablature for download. All responses are JSON except the downloads
// themselves.
package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fretline/fretline/pkg/cache"
	"github.com/fretline/fretline/pkg/errors"
	"github.com/fretline/fretline/pkg/jobs"
	"github.com/fretline/fretline/pkg/pipeline"
	"github.com/fretline/fretline/pkg/transcribe"
)

// cleanupInterval is how often expired jobs are evicted from stores that
// need explicit cleanup.
const cleanupInterval = time.Hour

// Server wires the job store, cache, transcribers, and pipeline runner
// behind the HTTP API.
type Server struct {
	cfg    Config
	logger *log.Logger
	store  jobs.Store
	runner *pipeline.Runner

	midi   transcribe.Transcriber
	remote transcribe.Transcriber // nil when no endpoint is configured
}

// New builds a server from configuration, connecting to the configured
// backends. Backend connections are verified eagerly so a misconfigured
// server fails at startup, not on the first request.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create data dir %s", cfg.Server.DataDir)
	}

	c, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := newStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	var keyer cache.Keyer
	if cfg.Cache.Scope != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Scope+":")
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		runner: pipeline.NewRunner(c, keyer, logger),
		midi:   transcribe.MIDITranscriber{},
	}
	if cfg.Transcriber.Endpoint != "" {
		var opts []transcribe.ClientOption
		if cfg.Transcriber.Timeout > 0 {
			opts = append(opts, transcribe.WithTimeout(time.Duration(cfg.Transcriber.Timeout)))
		}
		s.remote = transcribe.NewClient(cfg.Transcriber.Endpoint, opts...)
	}
	return s, nil
}

func newCache(ctx context.Context, cfg Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case BackendNull:
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

func newStore(ctx context.Context, cfg Config) (jobs.Store, error) {
	retention := time.Duration(cfg.Jobs.Retention)
	switch cfg.Jobs.Backend {
	case BackendRedis:
		return jobs.NewRedisStore(ctx, jobs.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, retention)
	case BackendMongo:
		return jobs.NewMongoStore(ctx, jobs.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
	default:
		return jobs.NewMemoryStore(retention), nil
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/transcribe/{id}", s.handleTranscribe)
	r.Post("/tab/{id}", s.handleTab)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/download/{id}/{format}", s.handleDownload)
	r.Get("/jobs", s.handleList)
	r.Delete("/jobs/{id}", s.handleDelete)
	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cleanupLoop periodically evicts expired jobs from stores that support it.
func (s *Server) cleanupLoop(ctx context.Context) {
	mem, ok := s.store.(*jobs.MemoryStore)
	if !ok {
		return // redis and mongo handle their own retention
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mem.Cleanup(ctx); err != nil {
				s.logger.Warn("job cleanup failed", "err", err)
			}
		}
	}
}

// Close releases the store and cache.
func (s *Server) Close() error {
	err := s.store.Close()
	if cerr := s.runner.Close(); err == nil {
		err = cerr
	}
	return err
}

// logRequests is a minimal structured request logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
