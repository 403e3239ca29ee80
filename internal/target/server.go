// Package target implements an in-process versioned resource API: the server
// side of the optimistic-concurrency protocol the harness drives. It exists
// so runs and tests can exercise genuine 409 conflicts without an external
// deployment.
package target

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/gridlock/internal/pool"
)

// Config holds target server settings.
type Config struct {
	PoolSize int
	IDPrefix string
	// ConflictRate in [0,1] silently bumps a resource's version ahead of a
	// fraction of updates, forcing genuine stale-token conflicts.
	ConflictRate float64
	Seed         int64
}

type resourceRec struct {
	Version int64
	Status  string
	Field   string
}

// Server is the HTTP server for the resource API.
type Server struct {
	cfg        Config
	httpServer *http.Server
	router     chi.Router
	metrics    *metrics

	mu        sync.Mutex
	resources map[string]*resourceRec
	rng       *rand.Rand
}

// New creates a Server with a freshly-seeded resource pool.
func New(cfg Config, bindAddr string) *Server {
	if cfg.PoolSize < 1 {
		cfg.PoolSize = 10
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "task"
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	srv := &Server{
		cfg:     cfg,
		metrics: newMetrics(),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
	srv.seed()
	srv.router = srv.buildRouter()
	srv.httpServer = &http.Server{
		Addr:    bindAddr,
		Handler: srv.router,
	}
	return srv
}

func (s *Server) seed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = make(map[string]*resourceRec, s.cfg.PoolSize)
	st := pool.NewStore(s.cfg.PoolSize, s.cfg.IDPrefix)
	for _, r := range st.Snapshot() {
		s.resources[r.ID] = &resourceRec{Version: r.Version, Status: r.Status}
	}
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(structuredLogger)
	r.Use(middleware.Recoverer)

	r.Get("/resources/{id}", s.handleGetResource)
	r.Put("/resources/{id}", s.handleUpdateResource)
	r.Patch("/resources/{id}/status", s.handleUpdateStatus)
	r.Post("/admin/reset", s.handleReset)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", s.handlePrometheusMetrics)

	return r
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("target server starting", "addr", s.httpServer.Addr,
		"pool_size", s.cfg.PoolSize, "conflict_rate", s.cfg.ConflictRate)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("target server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// JSON response helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func structuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
