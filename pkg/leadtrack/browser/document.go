package browser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Errors returned when a document lacks an injection point.
var (
	ErrNoHead = errors.New("document has no head element")
	ErrNoBody = errors.New("document has no body element")
)

// Document is a parsed HTML page that loader scripts are injected into.
// It is safe for concurrent use.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// NewDocument parses an HTML page. The parser always synthesizes <head> and
// <body>, so any well-formed or partial page is accepted.
func NewDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseDocument parses an HTML page held in a string.
func ParseDocument(s string) (*Document, error) {
	return NewDocument(strings.NewReader(s))
}

// Title returns the trimmed text of the <title> element, or "".
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Title })
	if n == nil || n.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(n.FirstChild.Data)
}

// HasElement reports whether an element with the given id exists.
func (d *Document) HasElement(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return findByID(d.root, id) != nil
}

// ScriptSources returns the src of every <script> element in document order.
func (d *Document) ScriptSources() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var srcs []string
	walk(d.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script {
			if src, ok := attr(n, "src"); ok {
				srcs = append(srcs, src)
			}
		}
	})
	return srcs
}

// AppendScript adds <script id=id async src=src> to the end of <head>.
// It returns false without changing anything when id is already present.
func (d *Document) AppendScript(id, src string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if findByID(d.root, id) != nil {
		return false, nil
	}
	head := find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
	if head == nil {
		return false, ErrNoHead
	}

	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "async"},
			{Key: "src", Val: src},
		},
	})
	return true, nil
}

// PrependNoscriptFrame inserts <noscript id=id><iframe src=src ...></noscript>
// as the first child of <body>. It returns false when id is already present.
func (d *Document) PrependNoscriptFrame(id, src string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if findByID(d.root, id) != nil {
		return false, nil
	}
	body := find(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil {
		return false, ErrNoBody
	}

	noscript := &html.Node{
		Type:     html.ElementNode,
		Data:     "noscript",
		DataAtom: atom.Noscript,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}
	noscript.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "iframe",
		DataAtom: atom.Iframe,
		Attr: []html.Attribute{
			{Key: "src", Val: src},
			{Key: "height", Val: "0"},
			{Key: "width", Val: "0"},
			{Key: "style", Val: "display:none;visibility:hidden"},
		},
	})
	body.InsertBefore(noscript, body.FirstChild)
	return true, nil
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findByID(root *html.Node, id string) *html.Node {
	return find(root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
