package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/utils/ptr"
	"github.com/devstat/devstat/pkg/widget"
)

func TestSelectWidgets(t *testing.T) {
	conf, err := config.NewFileFromConfig(&config.RawFileConfig{
		Widgets: []config.RawWidget{
			{Name: ptr.To("battery")},
			{Name: ptr.To("volume")},
		},
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	all, err := selectWidgets(conf, nil)
	if err != nil || len(all) != 2 {
		t.Errorf("selectWidgets(nil) = %d widgets, %v", len(all), err)
	}

	one, err := selectWidgets(conf, []string{"volume"})
	if err != nil || len(one) != 1 || one[0].Kind != config.KindVolume {
		t.Errorf("selectWidgets(volume) = %+v, %v", one, err)
	}

	if _, err := selectWidgets(conf, []string{"nope"}); err == nil {
		t.Error("expected an error for an unknown widget")
	}
}

func TestWatchPrintsFirstState(t *testing.T) {
	root := t.TempDir()
	bat := filepath.Join(root, "BAT0")
	if err := os.MkdirAll(bat, 0755); err != nil {
		t.Fatal(err)
	}
	for f, v := range map[string]string{"type": "Battery", "capacity": "42", "status": "Discharging"} {
		if err := os.WriteFile(filepath.Join(bat, f), []byte(v+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w := config.Widget{
		Name:      "battery",
		Kind:      config.KindBattery,
		Source:    "sysfs",
		Watcher:   "none",
		SysfsRoot: root,
		MaxLevel:  100,
		Critical:  25,
		Fallback:  "-",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := watch(ctx, widget.Builder{}, []config.Widget{w}, events.NewLineSink(&buf, false)); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "42%") {
		t.Errorf("output = %q, want a single 42%% line", buf.String())
	}
}
