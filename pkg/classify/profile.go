package classify

import (
	"fmt"
	"sort"
)

// Threshold is one row of a bucket table: levels at or above Min use it.
type Threshold struct {
	Min   int
	Icon  string
	Color string
}

// Style is an icon and color pair used for the special states.
type Style struct {
	Icon  string
	Color string
}

// Profile describes how one kind of device is rendered.
type Profile struct {
	Name       string
	Thresholds []Threshold

	ChargingIcon   string
	AmplifiedColor string

	Full        Style
	Muted       Style
	Unavailable Style

	CriticalColor     string
	HardCriticalColor string

	ShowIcon bool
	ShowTime bool
}

// Normalize returns a copy with the thresholds sorted descending, which is
// what Classify relies on for tie breaking.
func (p Profile) Normalize() Profile {
	th := make([]Threshold, len(p.Thresholds))
	copy(th, p.Thresholds)
	sort.SliceStable(th, func(i, j int) bool { return th[i].Min > th[j].Min })
	p.Thresholds = th
	return p
}

// Remap replaces colors by name, e.g. {"khaki": "#f0e68c"}.
func (p Profile) Remap(colors map[string]string) Profile {
	if len(colors) == 0 {
		return p
	}
	re := func(c string) string {
		if v, ok := colors[c]; ok {
			return v
		}
		return c
	}
	th := make([]Threshold, len(p.Thresholds))
	for i, t := range p.Thresholds {
		t.Color = re(t.Color)
		th[i] = t
	}
	p.Thresholds = th
	p.AmplifiedColor = re(p.AmplifiedColor)
	p.Full.Color = re(p.Full.Color)
	p.Muted.Color = re(p.Muted.Color)
	p.Unavailable.Color = re(p.Unavailable.Color)
	p.CriticalColor = re(p.CriticalColor)
	p.HardCriticalColor = re(p.HardCriticalColor)
	return p
}

const (
	chargingIcon = "󱐋"
	naIcon       = "󰁹"
)

func BatteryProfile() Profile {
	return Profile{
		Name: "battery",
		Thresholds: []Threshold{
			{90, "󰂂", "limegreen"},
			{80, "󰂁", "palegreen"},
			{60, "󰂀", "khaki"},
			{40, "󰁿", "tan"},
			{20, "󰁻", "lightsalmon"},
			{10, "󰁻", "orange"},
			{5, "󰁻", "red"},
			{0, "󰁺", "darkred"},
		},
		ChargingIcon:      chargingIcon,
		Full:              Style{"󰂄", "lime"},
		Unavailable:       Style{naIcon, "grey"},
		CriticalColor:     "orange",
		HardCriticalColor: "red",
		ShowIcon:          true,
	}.Normalize()
}

func VolumeProfile() Profile {
	return Profile{
		Name: "volume",
		Thresholds: []Threshold{
			{75, "󰕾", "salmon"},
			{50, "󰖀", "mediumpurple"},
			{25, "󰕿", "lightblue"},
			{0, "󰕿", "palegreen"},
		},
		AmplifiedColor:    "gold",
		Muted:             Style{"󰝟", "grey"},
		Unavailable:       Style{"󰝟", "grey"},
		CriticalColor:     "orange",
		HardCriticalColor: "red",
		ShowIcon:          true,
	}.Normalize()
}

func MicProfile() Profile {
	return Profile{
		Name: "mic",
		Thresholds: []Threshold{
			{75, "󰍬", "salmon"},
			{50, "󰍬", "mediumpurple"},
			{25, "󰍬", "lightblue"},
			{0, "󰍬", "palegreen"},
		},
		AmplifiedColor:    "gold",
		Muted:             Style{"󰍭", "grey"},
		Unavailable:       Style{"󰍭", "grey"},
		CriticalColor:     "orange",
		HardCriticalColor: "red",
		ShowIcon:          true,
	}.Normalize()
}

func BrightnessProfile() Profile {
	return Profile{
		Name: "brightness",
		Thresholds: []Threshold{
			{80, "󰃠", "gold"},
			{60, "󰃝", "orange"},
			{40, "󰃟", "tan"},
			{20, "󰃞", "palegreen"},
			{0, "󰃜", "grey"},
		},
		Unavailable:       Style{"󰃜", "grey"},
		CriticalColor:     "orange",
		HardCriticalColor: "red",
		ShowIcon:          true,
	}.Normalize()
}

// ProfileFor returns the built-in profile for a widget kind.
func ProfileFor(kind string) (Profile, error) {
	switch kind {
	case "battery":
		return BatteryProfile(), nil
	case "volume":
		return VolumeProfile(), nil
	case "mic":
		return MicProfile(), nil
	case "brightness":
		return BrightnessProfile(), nil
	}
	return Profile{}, fmt.Errorf("unknown widget kind %q", kind)
}
