// Package classify maps a raw reading to what a status bar should show.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/devstat/devstat/pkg/types"
)

// Classify is pure. The order of precedence is: no level, full, muted,
// threshold bucket, then the critical color override. critical <= 0
// disables the override.
func Classify(r types.DeviceReading, p Profile, critical int) types.DisplayState {
	st := types.DisplayState{
		Status:   r.Status,
		Severity: types.SeverityNormal,
		Reading:  r,
	}

	if !r.HasLevel {
		st.Tag = types.TagUnavailable
		st.Value = "N/A"
		st.Icon = p.Unavailable.Icon
		st.Color = p.Unavailable.Color
		st.Text = fmt.Sprintf(`<span foreground="%s">%s N/A</span>`, st.Color, st.Icon)
		return st
	}

	level := int(math.Round(r.Level))
	st.Level = level
	st.Value = fmt.Sprintf("%d%%", level)

	th := bucket(p.Thresholds, level)
	st.Bucket = th.Min

	switch {
	case r.Status == types.StatusFull && p.Full.Icon != "":
		st.Tag = types.TagFull
		st.Icon = p.Full.Icon
		st.Color = p.Full.Color
	case r.Status == types.StatusMuted:
		st.Tag = types.TagMuted
		st.Icon = p.Muted.Icon
		st.Color = p.Muted.Color
	default:
		st.Tag = types.TagLevel
		st.Icon = th.Icon
		st.Color = th.Color
		if r.Status == types.StatusCharging && p.ChargingIcon != "" {
			st.Icon = p.ChargingIcon + " " + st.Icon
		}
		if level > 100 && p.AmplifiedColor != "" {
			st.Color = p.AmplifiedColor
		}
		if critical > 0 && level <= critical {
			if level*2 <= critical {
				st.Severity = types.SeverityHardCritical
				st.Color = p.HardCriticalColor
			} else {
				st.Severity = types.SeveritySoftCritical
				st.Color = p.CriticalColor
			}
		}
	}

	st.PlainText = plain(st, p)
	st.Text = fmt.Sprintf(`<span foreground="%s">%s</span>`, st.Color, st.PlainText)
	return st
}

// bucket returns the first threshold the level meets. The table is
// descending so ties go to the higher threshold.
func bucket(th []Threshold, level int) Threshold {
	for _, t := range th {
		if level >= t.Min {
			return t
		}
	}
	if len(th) > 0 {
		return th[len(th)-1]
	}
	return Threshold{}
}

// plain is the display text without markup, honouring the profile's
// icon and time toggles.
func plain(st types.DisplayState, p Profile) string {
	var b strings.Builder
	if p.ShowIcon && st.Icon != "" {
		b.WriteString(st.Icon)
		b.WriteString("  ")
	}
	b.WriteString(st.Value)
	if p.ShowTime && st.Reading.HasMinutes &&
		(st.Status == types.StatusCharging || st.Status == types.StatusDischarging) {
		b.WriteString(" ")
		b.WriteString(FormatMinutes(st.Reading.Minutes))
	}
	return b.String()
}

// FormatMinutes renders a remaining time as "(1h 05m)" or "(45m)".
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if h := m / 60; h > 0 {
		return fmt.Sprintf("(%dh %02dm)", h, m%60)
	}
	return fmt.Sprintf("(%dm)", m)
}
