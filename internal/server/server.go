// Package server is the leadcapture HTTP surface: it serves the landing
// page with the tracking scripts injected, accepts lead submissions and
// page-view beacons, and exposes the tracking debug snapshot of the
// caller's own page session.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
)

// PageHTML is the landing page shell the tracking scripts are injected into.
//
//go:embed page.html
var PageHTML string

const maxBodyBytes = 64 << 10

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server serves the landing page and the tracking endpoints. Every page
// load gets its own session, so one visitor's queued events are never
// visible to another.
type Server struct {
	sessions *Sessions
	opts     Options
	logger   *slog.Logger
}

// New creates a server that keeps per-page tracking state in sessions.
func New(sessions *Sessions, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Server{sessions: sessions, opts: opts, logger: opts.Logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("POST /leads", s.handleLead)
	mux.HandleFunc("POST /events/page-view", s.handlePageView)
	mux.HandleFunc("GET /debug/tracking", s.handleDebug)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return RequestLogger(s.logger)(mux)
}

// Run serves on opts.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("leadcapture listening", slog.String("addr", ln.Addr().String()))
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	bc := browser.FromRequest(r)
	sess, err := s.sessions.Start(r.Context(), bc.URL, sessionID(r))
	if err != nil {
		s.warn("start tracking session", err)
		http.Error(w, "page unavailable", http.StatusServiceUnavailable)
		return
	}

	doc := sess.Window.Document()
	if doc == nil {
		http.Error(w, "page unavailable", http.StatusServiceUnavailable)
		return
	}
	setSessionCookie(w, r, sess, s.sessions.ttl)

	if bc.Title == "" {
		bc.Title = doc.Title()
	}
	sess.Tracker.DispatchPageView(r.Context(), bc, normalize.PageViewData{})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := doc.Render(w); err != nil {
		s.warn("render page", err)
	}
}

// resume finds the session the request's page belongs to, replacing it
// when full. It returns nil when the request has no live session, in
// which case there is nothing to track into.
func (s *Server) resume(w http.ResponseWriter, r *http.Request) *Session {
	id := sessionID(r)
	sess, ok, err := s.sessions.Resume(r.Context(), id)
	if err != nil {
		s.warn("resume tracking session", err)
		return nil
	}
	if !ok {
		if s.logger != nil {
			s.logger.Debug("no tracking session for request", slog.String("path", r.URL.Path))
		}
		return nil
	}
	if sess.ID != id {
		setSessionCookie(w, r, sess, s.sessions.ttl)
	}
	return sess
}

func (s *Server) handlePageView(w http.ResponseWriter, r *http.Request) {
	var data normalize.PageViewData
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if sess := s.resume(w, r); sess != nil {
		sess.Tracker.DispatchPageView(r.Context(), browser.FromRequest(r), data)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	data, err := decodeLead(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var missing []string
	if strings.TrimSpace(data.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(data.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	// The submission succeeds whatever the tracking outcome.
	resp := map[string]string{"status": "accepted"}
	if sess := s.resume(w, r); sess != nil {
		report := sess.Tracker.DispatchLead(r.Context(), browser.FromRequest(r), data)
		resp["dispatch_id"] = report.DispatchID
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// handleDebug shows the caller's own session only.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(sessionID(r))
	if !ok || !sess.Tracker.Config().Debug {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, sess.Tracker.DebugSnapshot())
}

func (s *Server) warn(op string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(op, slog.String("error", err.Error()))
}

func decodeLead(w http.ResponseWriter, r *http.Request) (normalize.LeadData, error) {
	var data normalize.LeadData
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return data, errors.New("invalid JSON body")
		}
		return data, nil
	}

	if err := r.ParseForm(); err != nil {
		return data, errors.New("invalid form body")
	}
	data = normalize.LeadData{
		Email:     r.PostForm.Get("email"),
		Phone:     r.PostForm.Get("phone"),
		Name:      r.PostForm.Get("name"),
		Position:  r.PostForm.Get("position"),
		BirthDate: r.PostForm.Get("birthDate"),
		Message:   r.PostForm.Get("message"),
		Currency:  r.PostForm.Get("currency"),
	}
	if raw := strings.TrimSpace(r.PostForm.Get("value")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return data, fmt.Errorf("invalid value %q", raw)
		}
		data.Value = &v
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
