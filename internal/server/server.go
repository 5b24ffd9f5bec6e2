// Package server exposes the displayed card over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/pkg/card"
	"github.com/menta2k/creature-card/pkg/catalog"
	"github.com/menta2k/creature-card/pkg/display"
)

const shutdownTimeout = 10 * time.Second

// Server serves the card page and its JSON API
type Server struct {
	addr      string
	log       *logrus.Entry
	refresher *display.Refresher
	router    *chi.Mux
}

// New creates a server publishing the cards produced by refresher
func New(addr string, refresher *display.Refresher, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Server{
		addr:      addr,
		log:       log,
		refresher: refresher,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Post("/refresh", s.handleRefreshForm)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/card", s.handleCard)
		r.Post("/card/refresh", s.handleRefresh)
		r.Get("/status", s.handleStatus)
	})

	s.router = r
	return s
}

// Handler returns the compressed HTTP handler
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Run starts an initial refresh and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ctx = logger.WithLogEntry(ctx, s.log)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.WithField("addr", s.addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	task := s.refresher.StartRandom(gctx)
	s.log.WithField("task", task.ID).Debug("initial refresh started")

	return g.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithLogEntry(r.Context(), log)))

		log.WithFields(logrus.Fields{
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	view := card.PageView{Status: statusLine(s.refresher.Status())}
	if c, ok := s.refresher.Store().Current(); ok {
		view.Card = &c
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := card.RenderPage(w, view); err != nil {
		logger.Entry(r.Context()).WithError(err).Error("render page")
	}
}

func (s *Server) handleRefreshForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.refresher.Refresh(r.Context()); err != nil && !errors.Is(err, display.ErrSuperseded) {
		logger.Entry(r.Context()).WithError(err).Warn("refresh from form failed")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	c, ok := s.refresher.Store().Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no card loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var task *display.Task
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, err := strconv.Atoi(idParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be an integer")
			return
		}
		task = s.refresher.Start(r.Context(), id)
	} else {
		task = s.refresher.StartRandom(r.Context())
	}

	c, err := task.Wait()
	if err != nil {
		logger.Entry(r.Context()).WithError(err).WithField("task", task.ID).Warn("refresh failed")
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.refresher.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

// statusLine is the note shown under the card
func statusLine(st display.Status) string {
	switch st.State {
	case display.StateRunning:
		return "Fetching a new creature..."
	case display.StateFailed:
		return "Could not load a creature. Try again."
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps refresh failures to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, display.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
