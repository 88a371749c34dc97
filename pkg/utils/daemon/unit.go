package daemon

import (
	"os"
	"path/filepath"
	"strings"
)

const UnitName = "devstat.service"

const unitTemplate = `[Unit]
Description=devstat device status daemon
Documentation=https://github.com/devstat/devstat
PartOf=graphical-session.target
After=graphical-session.target pipewire.service

[Service]
Type=simple
ExecStart="/path/to/devstat" daemon --config="/path/to/config.toml"
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=2

[Install]
WantedBy=default.target
`

// RenderUnit fills in the unit file for exe reading configPath.
func RenderUnit(exe, configPath string) string {
	r := strings.NewReplacer(
		"/path/to/devstat", exe,
		"/path/to/config.toml", configPath,
	)
	return r.Replace(unitTemplate)
}

// UnitDir is the systemd user unit directory.
func UnitDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "systemd", "user"), nil
}
