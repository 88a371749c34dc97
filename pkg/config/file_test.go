package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMissingOrEmpty(t *testing.T) {
	for _, p := range []string{
		filepath.Join(t.TempDir(), "nope.toml"),
		writeFile(t, "  \n"),
	} {
		f, err := NewFile(p)
		if err != nil {
			t.Fatalf("NewFile(%s) error = %v", p, err)
		}
		ws := f.Widgets()
		if len(ws) != 1 || ws[0].Name != "battery" || ws[0].Source != "sysfs" {
			t.Errorf("default widgets = %+v", ws)
		}
		if f.LogLevel() != "info" || f.AllowNonRootAccess() {
			t.Errorf("defaults not applied")
		}
	}
}

func TestLoadWidgets(t *testing.T) {
	p := writeFile(t, `
socket = "/run/user/1000/ds.sock"
log_level = "debug"
allow_non_root = true

[[widget]]
name = "bat"
kind = "battery"
critical = 15
debounce = "300ms"
show_time = true
alert_interval = "10m"
alert_command = ["dunstify", "-u", "critical"]

[widget.colors]
khaki = "yellow"

[[widget]]
name = "volume"
step = 40
max_level = 400
fallback = "@every 30s"

[[widget]]
name = "screen"
kind = "brightness"
device = "intel_backlight"
`)
	f, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if f.Socket() != "/run/user/1000/ds.sock" || f.LogLevel() != "debug" || !f.AllowNonRootAccess() {
		t.Errorf("top level = %v", f.LogrusFields())
	}

	bat, ok := f.Widget("bat")
	if !ok {
		t.Fatal("bat not found")
	}
	want := Widget{
		Name:          "bat",
		Kind:          KindBattery,
		Source:        "sysfs",
		Watcher:       "udev",
		MaxLevel:      100,
		Critical:      15,
		Debounce:      300 * time.Millisecond,
		ShowIcon:      true,
		ShowTime:      true,
		Colors:        map[string]string{"khaki": "yellow"},
		Alert:         true,
		AlertInterval: 10 * time.Minute,
		AlertCommand:  []string{"dunstify", "-u", "critical"},
	}
	if !reflect.DeepEqual(bat, want) {
		t.Errorf("bat = %+v\nwant %+v", bat, want)
	}

	vol, _ := f.Widget("volume")
	if vol.Kind != KindVolume || vol.Source != "wpctl" || vol.Watcher != "subscribe" {
		t.Errorf("volume kind defaults = %+v", vol)
	}
	if vol.MaxLevel != 150 || vol.Step != 40 || vol.Fallback != "@every 30s" {
		t.Errorf("volume = %+v", vol)
	}

	screen, _ := f.Widget("screen")
	if screen.MinLevel != 1 || screen.Device != "intel_backlight" || screen.Watcher != "file" {
		t.Errorf("screen = %+v", screen)
	}

	if _, ok := f.Widget("nope"); ok {
		t.Errorf("unknown widget found")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[[widget]\nname="},
		{"unknown kind", "[[widget]]\nname = \"cpu\"\n"},
		{"missing name", "[[widget]]\nkind = \"battery\"\n"},
		{"duplicate", "[[widget]]\nname = \"battery\"\n[[widget]]\nname = \"battery\"\n"},
		{"bad duration", "[[widget]]\nname = \"battery\"\ndebounce = \"soon\"\n"},
		{"negative duration", "[[widget]]\nname = \"battery\"\ndebounce = \"-1s\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFile(writeFile(t, tt.content)); err == nil {
				t.Errorf("NewFile() should fail")
			}
		})
	}
}

func TestReloadKeepsOldOnError(t *testing.T) {
	p := writeFile(t, "[[widget]]\nname = \"volume\"\n")
	f, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("[[widget]]\nname = \"cpu\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := f.Load(); err == nil {
		t.Fatal("Load() should fail")
	}
	if _, ok := f.Widget("volume"); !ok {
		t.Errorf("failed reload dropped the previous widgets")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "config.toml")
	f, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	f.SetAllowNonRootAccess(true)
	f.SetLogLevel("trace")
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}

	g, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !g.AllowNonRootAccess() || g.LogLevel() != "trace" {
		t.Errorf("saved config = %v", g.LogrusFields())
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEVSTAT_CONFIG_DIR", dir)
	if got := DefaultPath(); got != filepath.Join(dir, "config.toml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestDefaultSocket(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := DefaultSocket(); got != "/run/user/1000/devstat.sock" {
		t.Errorf("DefaultSocket() = %q", got)
	}
}
