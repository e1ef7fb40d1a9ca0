// Package httpapi exposes lookups, memory updates and run history as a small
// JSON API for editor integrations.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/internal/session"
	"github.com/MimeLyc/localcat/internal/tm"
)

// Backend is the part of service.Service the API needs.
type Backend interface {
	Lookup(text string) session.Result
	Save(seg segment.Segment, target string) (tm.Match, error)
	RunFiles(ctx context.Context, paths []string) (service.RunSummary, error)
	History(ctx context.Context, limit int) ([]service.RunOverview, error)
}

type Server struct {
	backend Backend

	streamInterval time.Duration

	mux *http.ServeMux

	mu     sync.Mutex
	server *http.Server
}

type Option func(*Server)

// WithStreamInterval sets how often /api/runs/stream pushes the run list.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend:        backend,
		streamInterval: 2 * time.Second,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/query", s.handleQuery)
	s.mux.HandleFunc("/api/memory", s.handleMemory)
	s.mux.HandleFunc("/api/runs", s.handleRuns)
	s.mux.HandleFunc("/api/runs/stream", s.handleRunStream)
}
