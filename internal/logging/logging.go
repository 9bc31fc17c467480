// Package logging configures the shared charmbracelet/log logger used
// by control-side packages (manager, backend). The realtime path
// (renderer, sound, track, dsp) never logs: logging allocates and can
// block, which the audio thread must never do.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the shared structured logger for control-side lifecycle
// events: resource-limit hits, decode-scheduler errors, playback
// start/stop.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLevel adjusts the minimum level Logger emits. Defaults to info.
func SetLevel(level log.Level) {
	Logger.SetLevel(level)
}
