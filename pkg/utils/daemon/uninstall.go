package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/runner"
)

func Uninstall(ctx context.Context, r runner.Runner, unitDir string) error {
	logrus.Infof("stopping devstat")

	if _, err := r.Run(ctx, []string{"systemctl", "--user", "disable", "--now", UnitName}, systemctlTimeout); err != nil {
		// The unit may never have been enabled. Removing the file is still useful.
		logrus.WithError(err).Warnf("failed to disable %s", UnitName)
	}

	logrus.Infof("removing user unit")

	unitPath := filepath.Join(unitDir, UnitName)

	// if the file doesn't exist, we don't need to remove it
	_, err := os.Stat(unitPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", unitPath, err)
	}

	err = os.Remove(unitPath)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", unitPath, err)
	}

	if _, err := r.Run(ctx, []string{"systemctl", "--user", "daemon-reload"}, systemctlTimeout); err != nil {
		return fmt.Errorf("failed to reload systemd user units: %w", err)
	}

	return nil
}
