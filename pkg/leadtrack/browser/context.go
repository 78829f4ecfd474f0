package browser

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Request headers read by FromRequest. The landing page script sets the
// X-* ones on beacons and form posts; browsers send the rest natively.
const (
	HeaderPageURL          = "X-Page-URL"
	HeaderPageTitle        = "X-Page-Title"
	HeaderPageReferrer     = "X-Page-Referrer"
	HeaderTimezone         = "X-Timezone"
	HeaderScreen           = "X-Screen-Resolution"
	HeaderViewport         = "X-Viewport-Size"
	HeaderViewportWidthCH  = "Sec-CH-Viewport-Width"
	HeaderViewportHeightCH = "Sec-CH-Viewport-Height"
)

// DefaultTimezone is used when the client sends no valid IANA zone name.
const DefaultTimezone = "UTC"

// Context describes the page and device a tracking event originated from.
type Context struct {
	URL       string `json:"url"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Referrer  string `json:"referrer"`
	UserAgent string `json:"user_agent"`

	ScreenWidth    int `json:"screen_width"`
	ScreenHeight   int `json:"screen_height"`
	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`

	Language string `json:"language"`
	Timezone string `json:"timezone"`
}

// ScreenResolution formats the screen size as "{width}x{height}".
func (c Context) ScreenResolution() string {
	return fmt.Sprintf("%dx%d", c.ScreenWidth, c.ScreenHeight)
}

// ViewportSize formats the viewport size as "{width}x{height}".
func (c Context) ViewportSize() string {
	return fmt.Sprintf("%dx%d", c.ViewportWidth, c.ViewportHeight)
}

// Location resolves Timezone, falling back to UTC.
func (c Context) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FromRequest builds a Context from an incoming HTTP request.
//
// Page fields prefer the explicit X-Page-* headers, because a form post or
// beacon is sent to a different URL than the page the visitor is on.
func FromRequest(r *http.Request) Context {
	h := r.Header
	c := Context{
		URL:       h.Get(HeaderPageURL),
		Title:     h.Get(HeaderPageTitle),
		Referrer:  h.Get(HeaderPageReferrer),
		UserAgent: r.UserAgent(),
		Language:  preferredLanguage(h.Get("Accept-Language")),
		Timezone:  timezone(h.Get(HeaderTimezone)),
	}

	if c.URL == "" {
		c.URL = requestURL(r)
		c.Path = r.URL.Path
		if c.Referrer == "" {
			c.Referrer = r.Referer()
		}
	} else {
		c.Path = pathOf(c.URL)
	}

	c.ScreenWidth, c.ScreenHeight = parseSize(h.Get(HeaderScreen))
	c.ViewportWidth, c.ViewportHeight = parseSize(h.Get(HeaderViewport))
	if c.ViewportWidth == 0 && c.ViewportHeight == 0 {
		c.ViewportWidth = atoi(h.Get(HeaderViewportWidthCH))
		c.ViewportHeight = atoi(h.Get(HeaderViewportHeightCH))
	}
	return c
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

func preferredLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

func timezone(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTimezone
	}
	if _, err := time.LoadLocation(name); err != nil {
		return DefaultTimezone
	}
	return name
}

func parseSize(s string) (int, int) {
	w, h, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return 0, 0
	}
	return atoi(w), atoi(h)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
