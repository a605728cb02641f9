package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/usecase"
	"github.com/taskdesk/taskdesk/pkg/utils/errutil"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"github.com/taskdesk/taskdesk/pkg/utils/metrics"
	"github.com/taskdesk/taskdesk/pkg/utils/safe"
)

const defaultBodyLimit = 1 << 20

type Server struct {
	router      *chi.Mux
	uc          *usecase.UseCases
	metrics     bool
	bodyLimit   int64
	chatTimeout time.Duration
}

type Options func(*Server)

// WithMetrics exposes the Prometheus registry on /metrics
func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.metrics = enabled
	}
}

func WithBodyLimit(n int64) Options {
	return func(s *Server) {
		s.bodyLimit = n
	}
}

// WithChatTimeout bounds one chat request as a whole. Zero means no bound.
func WithChatTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.chatTimeout = d
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		uc:        uc,
		bodyLimit: defaultBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ai/health", s.healthHandler)

		r.Route("/chat", func(r chi.Router) {
			r.With(s.timeout).Post("/", s.chatHandler)
			r.Get("/sessions", s.listSessionsHandler)
			r.Get("/{id}/messages", s.messagesHandler)
			r.Delete("/{id}", s.deleteSessionHandler)
		})

		r.Route("/embeddings", func(r chi.Router) {
			r.Post("/", s.addEmbeddingHandler)
			r.Post("/rebuild", s.rebuildHandler)
		})

		r.Post("/bot", s.botHandler)
	})

	if s.metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) timeout(next http.Handler) http.Handler {
	if s.chatTimeout <= 0 {
		return next
	}
	return middleware.Timeout(s.chatTimeout)(next)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

// decodeJSON reads a bounded JSON body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.bodyLimit)
	defer safe.Close(r.Context(), body)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrEmptyQuestion),
		errors.Is(err, usecase.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrVectorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.uc.Health.Check(r.Context()))
}
