// Package api exposes the HTTP surface: the upload endpoints, health, and
// the middleware chain in front of them.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/imggen/internal/config"
	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/model"
	"github.com/dharsanguruparan/imggen/internal/response"
	"github.com/dharsanguruparan/imggen/internal/storage"
)

// UploadRepository persists upload rows.
type UploadRepository interface {
	Create(ctx context.Context, u *model.Upload) error
	Get(ctx context.Context, id string) (*model.Upload, error)
}

// ObjectStore receives the uploaded bytes.
type ObjectStore interface {
	Upload(ctx context.Context, obj storage.Object) (*storage.Result, error)
}

// Compensator schedules removal of an object whose row could not be written.
type Compensator interface {
	ScheduleDelete(ctx context.Context, bucket, key, reason string) error
}

// Authenticator gates handlers on a verified user.
type Authenticator interface {
	VerifyToken(next http.Handler) http.Handler
}

// KeyFunc derives the storage key for a user's file.
type KeyFunc func(userID, originalName string) string

// Deps are the collaborators a Server needs. Compensator and Keys are optional.
type Deps struct {
	Uploads     UploadRepository
	Objects     ObjectStore
	Auth        Authenticator
	Compensator Compensator
	Keys        KeyFunc
	Logger      logging.Logger
}

// Server exposes HTTP endpoints for uploads.
type Server struct {
	cfg         *config.Config
	uploads     UploadRepository
	objects     ObjectStore
	auth        Authenticator
	compensator Compensator
	keys        KeyFunc
	logger      logging.Logger
	server      *http.Server
	once        sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, deps Deps) *Server {
	keys := deps.Keys
	if keys == nil {
		keys = storage.GenerateKey
	}
	return &Server{
		cfg:         cfg,
		uploads:     deps.Uploads,
		objects:     deps.Objects,
		auth:        deps.Auth,
		compensator: deps.Compensator,
		keys:        keys,
		logger:      deps.Logger,
	}
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/uploads", s.handleUploads)
	mux.Handle("/api/uploads/", s.auth.VerifyToken(http.HandlerFunc(s.handleUploadRoute)))
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled and
// in-flight requests drain, or until the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.cfg.Address,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	})
	done := make(chan struct{})
	shutdown := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			// ListenAndServe failed; nothing to shut down.
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdown <- s.server.Shutdown(shutdownCtx)
	}()
	s.logger.Info(ctx, "server listening", "addr", s.cfg.Address, "base_url", s.cfg.BaseURL)
	err := s.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		close(done)
		return err
	}
	return <-shutdown
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := response.JSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		s.logger.Error(r.Context(), "write health response", "err", err)
	}
}

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.auth.VerifyToken(s.parseFile(http.HandlerFunc(s.uploadFile))).ServeHTTP(w, r)
	default:
		response.MethodNotAllowed(w)
	}
}

func (s *Server) handleUploadRoute(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/uploads/"), "/")
	// uuid.Parse also takes urn and braced forms, which Postgres rejects.
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		response.NotFound(w, "Upload not found")
		return
	}
	if r.Method != http.MethodGet {
		response.MethodNotAllowed(w)
		return
	}
	s.getUpload(w, r, id)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rw.Status() >= 500 {
			s.logger.Error(r.Context(), "request complete", fields...)
			return
		}
		s.logger.Debug(r.Context(), "request complete", fields...)
	})
}
