// Package loader fetches the third-party tracking scripts and signals when
// each one has installed its global function.
//
// A Loader never blocks the caller. It reports readiness through the ready
// callback passed to Load, which fires at most once and only on success.
package loader

import (
	"context"
	"net/url"
	"strings"
)

// Default script locations.
const (
	DefaultTagManagerBase = "https://www.googletagmanager.com"
	DefaultPixelSDKURL    = "https://connect.facebook.net/en_US/fbevents.js"
)

// Element ids used for injected tags, checked to keep injection idempotent.
const (
	TagManagerElementID = "gtm-script"
	NoscriptElementID   = "gtm-noscript"
	PixelElementID      = "meta-pixel"
)

// Global names installed by each script.
const (
	GlobalGtag = "gtag"
	GlobalFbq  = "fbq"
)

// Script describes one loader script.
type Script struct {
	// Global is the name of the function the script installs.
	Global string

	// ElementID is the id of the injected <script> tag.
	ElementID string

	// URL is the script source.
	URL string
}

// URLs holds the script locations. Zero fields fall back to the defaults,
// which tests override to point at an httptest server.
type URLs struct {
	TagManagerBase string
	PixelSDK       string
}

// DefaultURLs returns the production script locations.
func DefaultURLs() URLs {
	return URLs{TagManagerBase: DefaultTagManagerBase, PixelSDK: DefaultPixelSDKURL}
}

func (u URLs) tagManagerBase() string {
	if u.TagManagerBase == "" {
		return DefaultTagManagerBase
	}
	return strings.TrimRight(u.TagManagerBase, "/")
}

// TagManager returns the tag-manager loader for containerID.
func (u URLs) TagManager(containerID string) Script {
	return Script{
		Global:    GlobalGtag,
		ElementID: TagManagerElementID,
		URL:       u.tagManagerBase() + "/gtm.js?id=" + url.QueryEscape(containerID),
	}
}

// TagManagerNoscript returns the iframe source used when scripts are disabled.
func (u URLs) TagManagerNoscript(containerID string) string {
	return u.tagManagerBase() + "/ns.html?id=" + url.QueryEscape(containerID)
}

// Pixel returns the social pixel SDK loader.
func (u URLs) Pixel() Script {
	src := u.PixelSDK
	if src == "" {
		src = DefaultPixelSDKURL
	}
	return Script{Global: GlobalFbq, ElementID: PixelElementID, URL: src}
}

// Loader loads a script and calls ready once it is available.
// Load must return promptly; any network work happens in the background.
type Loader interface {
	Load(ctx context.Context, s Script, ready func())
}

// Immediate treats every script as loaded and calls ready synchronously.
// Useful offline and in tests.
type Immediate struct{}

// Load calls ready.
func (Immediate) Load(_ context.Context, _ Script, ready func()) {
	ready()
}

// Never drops every load, leaving all destinations unavailable.
type Never struct{}

// Load does nothing.
func (Never) Load(context.Context, Script, func()) {}
