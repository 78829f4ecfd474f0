package browser

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/queue"
)

// State is the load state of a global function installed by a loader script.
type State int

const (
	// NotLoaded means the loader has not installed the function yet.
	NotLoaded State = iota
	// Loaded means the function is installed and callable.
	Loaded
)

// String returns the state name.
func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "not_loaded"
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Function is a global installed on the window by a third-party script,
// such as gtag or fbq.
type Function func(ctx context.Context, args ...any) error

// Window is the page-level global scope shared between the dispatch layer
// and the third-party scripts it loads.
//
// The data layer starts absent and is created by EnsureDataLayer. Globals
// move from NotLoaded to Loaded exactly once, through Install.
type Window struct {
	doc *Document

	mu        sync.RWMutex
	href      string
	path      string
	dataLayer *queue.Queue
	globals   map[string]Function
}

// NewWindow creates a window around doc. A nil doc models an environment
// with a window but no document.
func NewWindow(doc *Document) *Window {
	return &Window{
		doc:     doc,
		globals: make(map[string]Function),
	}
}

// Document returns the window's document, which may be nil.
func (w *Window) Document() *Document {
	return w.doc
}

// SetLocation records the address of the page the window shows. A href
// without a path is treated as the site root.
func (w *Window) SetLocation(href string) {
	path := "/"
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		path = u.Path
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.href, w.path = href, path
}

// Location returns the page address and its path. Both are empty until
// SetLocation is called.
func (w *Window) Location() (href, path string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.href, w.path
}

// DataLayer returns the shared event queue, or nil before it is created.
func (w *Window) DataLayer() *queue.Queue {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dataLayer
}

// EnsureDataLayer returns the shared event queue, creating it if absent.
// created reports whether this call created it.
func (w *Window) EnsureDataLayer() (q *queue.Queue, created bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dataLayer == nil {
		w.dataLayer = queue.New()
		return w.dataLayer, true
	}
	return w.dataLayer, false
}

// Install sets a global function and marks it Loaded. A second install
// under the same name is ignored and returns false.
func (w *Window) Install(name string, fn Function) bool {
	if fn == nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.globals[name]; ok {
		return false
	}
	w.globals[name] = fn
	return true
}

// Lookup returns the global function for name if it is Loaded.
func (w *Window) Lookup(name string) (Function, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fn, ok := w.globals[name]
	return fn, ok
}

// State returns the load state of name.
func (w *Window) State(name string) State {
	if _, ok := w.Lookup(name); ok {
		return Loaded
	}
	return NotLoaded
}

// Loaded returns the names of all installed globals, sorted.
func (w *Window) Loaded() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.globals))
	for name := range w.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
