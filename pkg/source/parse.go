package source

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/devstat/devstat/pkg/types"
)

// Parser turns one line of tool output into a reading. Parsers are total:
// unrecognized input yields a reading without a level, never a panic.
type Parser func(line string) types.DeviceReading

// ParseBatteryLine parses one line of `acpi -b`, e.g.
//
//	Battery 0: Discharging, 73%, 01:45:00 remaining
//
// The status word, percentage and time may appear in any order.
func ParseBatteryLine(line string) types.DeviceReading {
	r := types.Unavailable("")
	r.Status = batteryStatus(line)

	for _, tok := range tokens(line) {
		if !r.HasLevel {
			if v, ok := percent(tok); ok {
				r = r.WithLevel(clamp(v, 0, 100))
				continue
			}
		}
		if !r.HasMinutes {
			if m, ok := clock(tok); ok {
				r = r.WithMinutes(m)
			}
		}
	}

	// "Battery 0: ..." names the device, "Charging: 45%" does not.
	if i := strings.Index(line, ": "); i >= 0 && isDeviceHeader(line[:i]) {
		r.Device = strings.TrimSpace(line[:i])
	}
	return r
}

func isDeviceHeader(h string) bool {
	if strings.Contains(h, "%") || batteryStatus(h) != types.StatusUnknown ||
		strings.Contains(strings.ToLower(h), "not charging") {
		return false
	}
	for _, tok := range tokens(h) {
		if _, ok := clock(tok); ok {
			return false
		}
	}
	return true
}

func batteryStatus(s string) types.Status {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "not charging"):
		return types.StatusUnknown
	case strings.Contains(l, "discharging"):
		return types.StatusDischarging
	case strings.Contains(l, "charging"):
		return types.StatusCharging
	case strings.Contains(l, "full"):
		return types.StatusFull
	}
	return types.StatusUnknown
}

// ParseVolumeLine parses `wpctl get-volume`, e.g. "Volume: 0.40 [MUTED]".
// A bare fraction is scaled by 100; an explicit NN% is taken as is.
func ParseVolumeLine(line string) types.DeviceReading {
	r := types.Unavailable("")
	r.Status = types.StatusUnmuted
	if strings.Contains(strings.ToUpper(line), "[MUTED]") {
		r.Status = types.StatusMuted
	}

	// "Volume:0.40" has no space after the label.
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ':' || r == ',' || unicode.IsSpace(r)
	})
	for _, tok := range fields {
		if !strings.ContainsFunc(tok, unicode.IsDigit) {
			continue
		}
		if v, ok := percent(tok); ok {
			return r.WithLevel(clamp(v, 0, 150))
		}
		if v, err := strconv.ParseFloat(tok, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return r.WithLevel(clamp(math.Round(v*10000)/100, 0, 150))
		}
	}
	return r
}

// ParseBrightnessLine parses `brightnessctl -m info`, e.g.
//
//	intel_backlight,backlight,19200,40%,48000
func ParseBrightnessLine(line string) types.DeviceReading {
	r := types.Unavailable("")
	if fields := strings.Split(line, ","); len(fields) > 1 {
		r.Device = strings.TrimSpace(fields[0])
	}
	for _, tok := range tokens(line) {
		if v, ok := percent(tok); ok {
			return r.WithLevel(clamp(v, 0, 100))
		}
	}
	return r
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func percent(tok string) (float64, bool) {
	num, ok := strings.CutSuffix(tok, "%")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// clock parses H:MM or H:MM:SS into whole minutes.
func clock(tok string) (int, bool) {
	parts := strings.Split(tok, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var n [3]int
	for i, p := range parts {
		if p == "" {
			return 0, false
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, false
		}
		n[i] = v
	}
	if n[1] > 59 || n[2] > 59 {
		return 0, false
	}
	return n[0]*60 + n[1], true
}
