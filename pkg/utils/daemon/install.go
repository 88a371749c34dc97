package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
)

const systemctlTimeout = 10 * time.Second

// Install writes the user unit for the running executable and starts it.
func Install(ctx context.Context, r runner.Runner, unitDir, configPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	unitPath, err := writeUnit(unitDir, exePath, configPath)
	if err != nil {
		return err
	}

	logrus.Infof("starting devstat")

	if _, err := r.Run(ctx, []string{"systemctl", "--user", "daemon-reload"}, systemctlTimeout); err != nil {
		return fmt.Errorf("failed to reload systemd user units: %w", err)
	}
	if _, err := r.Run(ctx, []string{"systemctl", "--user", "enable", "--now", UnitName}, systemctlTimeout); err != nil {
		return fmt.Errorf("failed to enable %s: %w", unitPath, err)
	}

	return nil
}

func writeUnit(unitDir, exePath, configPath string) (string, error) {
	// mkdir -p
	if err := os.MkdirAll(unitDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", unitDir, err)
	}

	unitPath := filepath.Join(unitDir, UnitName)

	// warn if the file already exists
	if _, err := os.Stat(unitPath); err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	logrus.Infof("writing user unit to %s", unitPath)
	if err := os.WriteFile(unitPath, []byte(RenderUnit(exePath, configPath)), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", unitPath, err)
	}
	return unitPath, nil
}
