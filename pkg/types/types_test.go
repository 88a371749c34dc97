package types

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Status
	}{
		{name: "charging", in: "Charging", want: StatusCharging},
		{name: "discharging with newline", in: "Discharging\n", want: StatusDischarging},
		{name: "full", in: "Full", want: StatusFull},
		{name: "upower fully charged", in: "fully-charged", want: StatusFull},
		{name: "not charging", in: "Not charging", want: StatusUnknown},
		{name: "empty", in: "", want: StatusUnknown},
		{name: "garbage", in: "???", want: StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseStatus(tt.in); got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayStateEqual(t *testing.T) {
	base := DisplayState{
		Tag:      TagLevel,
		Bucket:   60,
		Level:    73,
		Value:    "73%",
		Icon:     "󰂀",
		Color:    "khaki",
		Severity: SeverityNormal,
		Status:   StatusDischarging,
		Text:     "x",
		Reading:  DeviceReading{Level: 73.2, HasLevel: true},
	}

	other := base
	other.Reading.Level = 72.8
	if !base.Equal(other) {
		t.Errorf("Equal() = false for states differing only in raw reading")
	}

	other = base
	other.Color = "tan"
	if base.Equal(other) {
		t.Errorf("Equal() = true for states with different colors")
	}

	other = base
	other.Status = StatusCharging
	if base.Equal(other) {
		t.Errorf("Equal() = true for states with different status")
	}
}

func TestReadingHelpers(t *testing.T) {
	r := Unavailable("BAT0")
	if r.HasLevel || r.Status != StatusUnknown || r.Device != "BAT0" {
		t.Fatalf("Unavailable() = %+v", r)
	}
	r = r.WithLevel(42).WithMinutes(-1)
	if !r.HasLevel || r.Level != 42 {
		t.Errorf("WithLevel() = %+v", r)
	}
	if r.HasMinutes {
		t.Errorf("WithMinutes(-1) should be ignored, got %+v", r)
	}
	r = r.WithMinutes(105)
	if !r.HasMinutes || r.Minutes != 105 {
		t.Errorf("WithMinutes(105) = %+v", r)
	}
}
