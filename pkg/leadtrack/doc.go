/*
Package leadtrack mirrors lead submissions and page views to four
third-party tracking destinations.

# Overview

A Tracker fans one domain event out to independent destination adapters:

  - ads_enhanced: pushes hashed contact data onto the shared event queue
  - analytics: pushes the enriched event onto the shared event queue
  - pixel: calls the social pixel's track function with raw contact data
  - ads_conversion: reports a search-ads conversion with all PII hashed

Delivery is best effort. Each adapter runs inside its own failure boundary,
so an error or panic in one never stops the others and never reaches the
caller.

# Lifecycle

	cfg, err := config.Load(os.Getenv("LEADTRACK_CONFIG_FILE"))
	if err != nil {
	    config.Exitf("load config: %v", err)
	}

	doc, _ := browser.ParseDocument(pageHTML)
	window := browser.NewWindow(doc)

	tracker := leadtrack.New(cfg, window,
	    leadtrack.WithLoader(loader.NewHTTP()),
	    leadtrack.WithLogger(logger),
	)
	tracker.Initialize(ctx)

Initialize injects the loader scripts once and creates the shared queue.
Loaders run in the background; each one installs its destination's global
function when its script arrives. Until then the adapters behind it report
Skipped. Readiness is re-checked on every call.

# Dispatch

	report := tracker.DispatchLead(ctx, browser.FromRequest(r), normalize.LeadData{
	    Email: "ana@example.com",
	    Name:  "Ana Silva",
	})

The Report lists each adapter's outcome. It is informational only.

# Diagnostics

DebugSnapshot returns the configuration, the initialization flag, per
destination load state, and copies of the shared queue and the pixel call
queue.
*/
package leadtrack
