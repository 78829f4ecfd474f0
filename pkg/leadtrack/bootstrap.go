package leadtrack

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

// Initialize injects the loader scripts and creates the shared event queue.
// Only the first call does anything; later and concurrent calls return
// immediately. Without a window or document it is a silent no-op and the
// tracker stays uninitialized.
func (t *Tracker) Initialize(ctx context.Context) {
	if err := t.bootstrap(ctx); err != nil && t.logger != nil {
		t.logger.Debug("tracking bootstrap skipped", slog.String("reason", err.Error()))
	}
}

func (t *Tracker) bootstrap(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if t.window == nil || t.window.Document() == nil {
		return ErrNoWindow
	}

	doc := t.window.Document()
	dataLayer, _ := t.window.EnsureDataLayer()
	dataLayer.Push(map[string]any{
		"gtm.start": t.now().UnixMilli(),
		"event":     "gtm.js",
	})

	gtm := t.urls.TagManager(t.cfg.ContainerID)
	pixel := t.urls.Pixel()

	if _, err := doc.AppendScript(gtm.ElementID, gtm.URL); err != nil {
		t.warn("inject tag manager script", err)
	}
	if _, err := doc.PrependNoscriptFrame(loader.NoscriptElementID, t.urls.TagManagerNoscript(t.cfg.ContainerID)); err != nil {
		t.warn("inject tag manager noscript", err)
	}
	if _, err := doc.AppendScript(pixel.ElementID, pixel.URL); err != nil {
		t.warn("inject pixel script", err)
	}

	t.initialized = true

	t.loader.Load(ctx, gtm, func() { t.onTagManagerReady(ctx) })
	t.loader.Load(ctx, pixel, func() { t.onPixelReady(ctx) })

	observability.LogInitialized(t.logger, t.cfg.ContainerID, t.cfg.SocialPixelID, t.cfg.UsesPlaceholders())
	return nil
}

// onTagManagerReady installs gtag and issues the initial js/config commands.
func (t *Tracker) onTagManagerReady(ctx context.Context) {
	if !t.window.Install(loader.GlobalGtag, t.gtag) {
		return
	}
	title := ""
	if doc := t.window.Document(); doc != nil {
		title = doc.Title()
	}
	href, path := t.window.Location()
	_ = t.gtag(ctx, "js", t.now())
	_ = t.gtag(ctx, "config", t.cfg.AnalyticsPropertyID, map[string]any{
		"page_title":    title,
		"page_location": href,
		"page_path":     path,
	})
}

// onPixelReady installs fbq and issues init plus the initial PageView.
func (t *Tracker) onPixelReady(ctx context.Context) {
	if !t.window.Install(loader.GlobalFbq, t.fbq) {
		return
	}
	_ = t.fbq(ctx, "init", t.cfg.SocialPixelID)
	_ = t.fbq(ctx, "track", "PageView")
}

func (t *Tracker) warn(op string, err error) {
	if t.logger == nil {
		return
	}
	t.logger.Warn("bootstrap step failed", slog.String("operation", op), slog.String("error", err.Error()))
}
