package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/devstat/devstat/pkg/powerinfo"
	"github.com/devstat/devstat/pkg/utils/ptr"
)

func TestPrintSupplies(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printSupplies(&buf,
		[]powerinfo.Supply{
			{Name: "AC", Type: "Mains", Capacity: -1, Online: ptr.To(true)},
			{Name: "BAT0", Type: "Battery", Capacity: 81, Status: "Discharging"},
		},
		[]powerinfo.Battery{
			{Index: 0, State: "discharging", Current: 40, Full: 50, Design: 100, ChargeRate: 7500},
		},
	)
	out := buf.String()

	for _, want := range []string{
		"AC: Mains, online ✔",
		"BAT0: Battery, 81%, Discharging",
		"#0: 80%, discharging, health 50%, rate 7.5 W",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}
