package leadtrack

import (
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/browser"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/queue"
)

// Snapshot is a view of the tracker for diagnostics. Its queues are deep
// copies, so changing them does not affect the tracker.
type Snapshot struct {
	Config       config.Tracking          `json:"config"`
	Initialized  bool                     `json:"initialized"`
	Destinations map[string]browser.State `json:"destinations"`
	DataLayer    []queue.Entry            `json:"data_layer"`
	PixelCalls   []queue.Entry            `json:"pixel_calls"`
}

// DebugSnapshot returns the configuration, initialization flag, destination
// load states, and copies of the data layer and pixel call queue.
func (t *Tracker) DebugSnapshot() Snapshot {
	s := Snapshot{
		Config:      t.cfg,
		Initialized: t.Initialized(),
		Destinations: map[string]browser.State{
			loader.GlobalGtag: browser.NotLoaded,
			loader.GlobalFbq:  browser.NotLoaded,
		},
		DataLayer:  []queue.Entry{},
		PixelCalls: t.pixelCalls.Snapshot(),
	}
	if t.window != nil {
		for name := range s.Destinations {
			s.Destinations[name] = t.window.State(name)
		}
		if dl := t.window.DataLayer(); dl != nil {
			s.DataLayer = dl.Snapshot()
		}
	}
	return s
}
