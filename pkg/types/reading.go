package types

import "strings"

// Status is the normalized state reported alongside a level.
type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusCharging    Status = "charging"
	StatusDischarging Status = "discharging"
	StatusFull        Status = "full"
	StatusMuted       Status = "muted"
	StatusUnmuted     Status = "unmuted"
)

// ParseStatus maps a raw status word (sysfs, acpi, upower) onto a Status.
// Anything unrecognized, including "Not charging", is StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charging":
		return StatusCharging
	case "discharging":
		return StatusDischarging
	case "full", "fully-charged", "fully charged":
		return StatusFull
	case "muted":
		return StatusMuted
	case "unmuted":
		return StatusUnmuted
	default:
		return StatusUnknown
	}
}

// DeviceReading is a single normalized observation of a device.
// It is transient and never cached by sources.
type DeviceReading struct {
	// Level is 0-150. Only meaningful when HasLevel is set.
	Level    float64 `json:"level"`
	HasLevel bool    `json:"hasLevel"`
	Status   Status  `json:"status"`
	// Minutes is the estimated time to empty or to full.
	Minutes    int    `json:"minutes,omitempty"`
	HasMinutes bool   `json:"hasMinutes"`
	Device     string `json:"device,omitempty"`
}

// Unavailable returns a reading with no level and an unknown status.
func Unavailable(device string) DeviceReading {
	return DeviceReading{Status: StatusUnknown, Device: device}
}

// WithLevel returns a copy of r holding level.
func (r DeviceReading) WithLevel(level float64) DeviceReading {
	r.Level = level
	r.HasLevel = true
	return r
}

// WithMinutes returns a copy of r holding a remaining time estimate.
func (r DeviceReading) WithMinutes(m int) DeviceReading {
	if m < 0 {
		return r
	}
	r.Minutes = m
	r.HasMinutes = true
	return r
}
