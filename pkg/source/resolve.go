package source

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
)

const (
	DefaultAudioSink   = "@DEFAULT_AUDIO_SINK@"
	DefaultAudioSource = "@DEFAULT_AUDIO_SOURCE@"
)

// ResolveDefaultAudioDevice asks `wpctl status` for the id of the default
// sink (or source, when input is set). It falls back to the wpctl alias
// when the id cannot be determined.
func ResolveDefaultAudioDevice(ctx context.Context, r runner.Runner, input bool) string {
	fallback := DefaultAudioSink
	section := "Sinks:"
	if input {
		fallback = DefaultAudioSource
		section = "Sources:"
	}
	if r == nil {
		r = runner.Default
	}

	out, err := r.Run(ctx, []string{"wpctl", "status"}, 2*time.Second)
	if err != nil {
		logrus.WithError(err).Debug("wpctl status failed, using default alias")
		return fallback
	}
	if id, ok := parseDefaultID(out, section); ok {
		return id
	}
	return fallback
}

// parseDefaultID finds the starred entry of a `wpctl status` section:
//
//	 ├─ Sinks:
//	 │  *   48. Built-in Audio Analog Stereo  [vol: 0.40]
func parseDefaultID(out, section string) (string, bool) {
	in := false
	for _, line := range strings.Split(out, "\n") {
		stripped := strings.TrimSpace(strings.Trim(line, " │├└─\t"))
		if !in {
			if stripped == section {
				in = true
			}
			continue
		}
		if stripped == "" || strings.HasSuffix(stripped, ":") {
			return "", false
		}
		if !strings.Contains(stripped, "*") {
			continue
		}
		for _, f := range strings.Fields(stripped) {
			id := strings.TrimSuffix(f, ".")
			if id != "" && id != f && isDigits(id) {
				return id, true
			}
		}
	}
	return "", false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
