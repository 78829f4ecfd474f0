package server

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
)

// SessionCookie ties beacons and lead posts to the page they came from.
const SessionCookie = "leadtrack_session"

// Session defaults.
const (
	DefaultMaxSessions      = 1024
	DefaultSessionTTL       = 30 * time.Minute
	DefaultMaxSessionEvents = 256
)

// Session is one visitor's page: a window with its own data layer and a
// tracker bound to it. It lives from a page load until the visitor loads
// another page, goes idle, or is evicted.
type Session struct {
	ID      string
	Window  *browser.Window
	Tracker *leadtrack.Tracker

	lastSeen time.Time
}

// SessionFactory builds the window and tracker for a new session.
type SessionFactory func() (*browser.Window, *leadtrack.Tracker, error)

// NewSessionFactory returns a factory that renders the embedded landing
// page into a fresh window and binds a tracker built with opts to it.
func NewSessionFactory(cfg config.Tracking, opts ...leadtrack.Option) SessionFactory {
	return func() (*browser.Window, *leadtrack.Tracker, error) {
		doc, err := browser.ParseDocument(PageHTML)
		if err != nil {
			return nil, nil, fmt.Errorf("parse page: %w", err)
		}
		window := browser.NewWindow(doc)
		return window, leadtrack.New(cfg, window, opts...), nil
	}
}

// SessionOptions bounds the memory held by Sessions.
type SessionOptions struct {
	// MaxSessions caps live sessions; the least recently used go first.
	MaxSessions int

	// TTL drops sessions idle for longer.
	TTL time.Duration

	// MaxEvents caps the entries one session's queues may hold. A session
	// at the cap is replaced by a fresh one, as if the page were reloaded.
	MaxEvents int

	Logger *slog.Logger
	Now    func() time.Time
}

// Sessions holds the live sessions, most recently used first.
type Sessions struct {
	factory   SessionFactory
	max       int
	ttl       time.Duration
	maxEvents int
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	lru  *list.List
	byID map[string]*list.Element
}

// NewSessions creates an empty session store. Zero options take the
// package defaults.
func NewSessions(factory SessionFactory, opts SessionOptions) *Sessions {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = DefaultMaxSessionEvents
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sessions{
		factory:   factory,
		max:       opts.MaxSessions,
		ttl:       opts.TTL,
		maxEvents: opts.MaxEvents,
		logger:    opts.Logger,
		now:       opts.Now,
		lru:       list.New(),
		byID:      make(map[string]*list.Element),
	}
}

// Start opens an initialized session for a page load at href. The session
// named by replaces, if any, is dropped.
func (s *Sessions) Start(ctx context.Context, href, replaces string) (*Session, error) {
	window, tracker, err := s.factory()
	if err != nil {
		return nil, err
	}
	window.SetLocation(href)
	tracker.Initialize(ctx)

	sess := &Session{
		ID:      uuid.NewString(),
		Window:  window,
		Tracker: tracker,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if replaces != "" {
		s.removeLocked(replaces, "replaced")
	}
	sess.lastSeen = s.now()
	s.byID[sess.ID] = s.lru.PushFront(sess)

	for s.lru.Len() > s.max {
		s.removeLocked(s.lru.Back().Value.(*Session).ID, "evicted")
	}
	s.sweepLocked()
	return sess, nil
}

// Get returns the live session id and marks it used.
func (s *Sessions) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	sess := el.Value.(*Session)
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		s.removeLocked(id, "expired")
		return nil, false
	}
	sess.lastSeen = now
	s.lru.MoveToFront(el)
	return sess, true
}

// Resume returns the session id for an event sent from its page. A session
// whose queues reached the cap is swapped for a fresh one at the same
// address. ok is false when no live session has that id.
func (s *Sessions) Resume(ctx context.Context, id string) (sess *Session, ok bool, err error) {
	sess, ok = s.Get(id)
	if !ok {
		return nil, false, nil
	}
	if sess.Tracker.QueuedEvents() < s.maxEvents {
		return sess, true, nil
	}

	href, _ := sess.Window.Location()
	fresh, err := s.Start(ctx, href, sess.ID)
	if err != nil {
		return nil, true, err
	}
	return fresh, true, nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// sweepLocked drops idle sessions from the cold end of the list.
func (s *Sessions) sweepLocked() {
	now := s.now()
	for el := s.lru.Back(); el != nil; el = s.lru.Back() {
		sess := el.Value.(*Session)
		if now.Sub(sess.lastSeen) <= s.ttl {
			return
		}
		s.removeLocked(sess.ID, "expired")
	}
}

func (s *Sessions) removeLocked(id, reason string) {
	el, ok := s.byID[id]
	if !ok {
		return
	}
	s.lru.Remove(el)
	delete(s.byID, id)
	if s.logger != nil {
		s.logger.Debug("tracking session closed", slog.String("session_id", id), slog.String("reason", reason))
	}
}

// sessionID returns the session named by the request cookie, or "".
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess *Session, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
