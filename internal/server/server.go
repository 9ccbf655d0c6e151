package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"grocery_sheets/internal/listing"
	"grocery_sheets/internal/session"

	"github.com/rs/zerolog/log"
)

type Server struct {
	container *listing.Container
	session   *session.Session
	mux       *http.ServeMux
}

func New(container *listing.Container, sess *session.Session) *Server {
	s := &Server{
		container: container,
		session:   sess,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/items", s.listItems)
	s.mux.HandleFunc("POST /api/items", s.createItem)
	s.mux.HandleFunc("PUT /api/items/{id}", s.updateItem)
	s.mux.HandleFunc("DELETE /api/items/{id}", s.deleteItem)
	s.mux.HandleFunc("POST /api/items/{id}/purchased", s.setPurchased)
	s.mux.HandleFunc("POST /api/reload", s.reload)

	s.mux.HandleFunc("GET /api/session", s.getSession)
	s.mux.HandleFunc("POST /api/session", s.createSession)
	s.mux.HandleFunc("DELETE /api/session", s.deleteSession)
}

func (s *Server) Handler() http.Handler {
	return requestLogger(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Serving grocery list API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		event := log.Info()
		switch {
		case rec.status >= 500:
			event = log.Error()
		case rec.status >= 400:
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
