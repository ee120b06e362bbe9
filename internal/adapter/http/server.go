package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
	"github.com/couchcryptid/parking-violations-lookup/internal/lookup"
	"github.com/couchcryptid/parking-violations-lookup/internal/view"
)

// SessionCookie carries the session id that keys the session store.
const SessionCookie = "plate_session"

// Controller is the subset of *lookup.Controller the server drives.
type Controller interface {
	Dispatch(ctx context.Context, sessionID string, in lookup.Intent) (view.View, error)
	Current(sessionID string) view.View
}

// Server exposes the lookup page plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	ctrl       Controller
	renderer   *view.Renderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the lookup routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, ctrl Controller, renderer *view.Renderer, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ctrl:     ctrl,
		renderer: renderer,
		logger:   logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /state", s.handleState)
	mux.HandleFunc("GET /results", s.handleResults)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	s.writePage(w, http.StatusOK, s.ctrl.Current(id))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	v, err := s.ctrl.Dispatch(r.Context(), id, lookup.SearchRequested{Plate: r.FormValue("plate")})
	s.respond(w, id, v, err)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	v, err := s.ctrl.Dispatch(r.Context(), id, lookup.StateChosen{State: r.FormValue("state")})
	s.respond(w, id, v, err)
}

// handleResults applies whichever of sort, status, and agency are present in
// the query and renders the result.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	q := r.URL.Query()

	v := s.ctrl.Current(id)
	var err error
	if q.Has("sort") {
		v, err = s.ctrl.Dispatch(r.Context(), id, lookup.SortRequested{Key: domain.SortKey(q.Get("sort"))})
	}
	if err == nil && (q.Has("status") || q.Has("agency")) {
		// An absent parameter keeps the session's current selection.
		status, agency := q.Get("status"), q.Get("agency")
		if v.Controls != nil {
			if !q.Has("status") {
				status = selected(v.Controls.Status)
			}
			if !q.Has("agency") {
				agency = selected(v.Controls.Agency)
			}
		}
		v, err = s.ctrl.Dispatch(r.Context(), id, lookup.FilterChanged{
			Status: domain.StatusFilter(status),
			Agency: agency,
		})
	}
	s.respond(w, id, v, err)
}

func selected(opts []view.Option) string {
	for _, o := range opts {
		if o.Selected {
			return o.Value
		}
	}
	return ""
}

func (s *Server) respond(w http.ResponseWriter, sessionID string, v view.View, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, lookup.ErrSuperseded):
		s.logger.Debug("stale search response", "session_id", sessionID, "error", err)
	case errors.Is(err, lookup.ErrEmptyPlate),
		errors.Is(err, lookup.ErrUnknownState),
		errors.Is(err, lookup.ErrNotDisambiguating):
		status = http.StatusBadRequest
		s.logger.Debug("rejected request", "session_id", sessionID, "error", err)
	default:
		status = http.StatusInternalServerError
		s.logger.Error("request failed", "session_id", sessionID, "error", err)
	}
	s.writePage(w, status, v)
}

func (s *Server) writePage(w http.ResponseWriter, status int, v view.View) {
	var buf bytes.Buffer
	if err := s.renderer.HTML(&buf, v); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// session returns the caller's session id, issuing a new one when the cookie
// is missing or malformed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
