package leadtrack

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/queue"
)

// Arguments is one gtag command as it appears on the data layer.
type Arguments []any

// CloneValue implements queue.Cloner.
func (a Arguments) CloneValue() any {
	return Arguments(queue.CloneSlice(a))
}

// PixelCall is one fbq command as recorded on the pixel call queue.
type PixelCall struct {
	Command string `json:"command"`
	Args    []any  `json:"args"`
}

// CloneValue implements queue.Cloner.
func (c PixelCall) CloneValue() any {
	return PixelCall{Command: c.Command, Args: queue.CloneSlice(c.Args)}
}

var errEmptyCommand = errors.New("empty command")

// gtag is installed on the window when the tag manager loads. Like the
// real function it only appends its arguments to the data layer.
func (t *Tracker) gtag(_ context.Context, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("gtag: %w", errEmptyCommand)
	}
	dataLayer, _ := t.window.EnsureDataLayer()
	dataLayer.Push(Arguments(args))
	return nil
}

// fbq is installed on the window when the pixel SDK loads.
func (t *Tracker) fbq(_ context.Context, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("fbq: %w", errEmptyCommand)
	}
	cmd, ok := args[0].(string)
	if !ok {
		return fmt.Errorf("fbq: command must be a string, got %T", args[0])
	}
	switch cmd {
	case "init", "track", "trackCustom", "consent":
	default:
		return fmt.Errorf("fbq: unknown command %q", cmd)
	}
	t.pixelCalls.Push(PixelCall{Command: cmd, Args: append([]any(nil), args[1:]...)})
	return nil
}
