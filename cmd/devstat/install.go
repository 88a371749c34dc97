package main

import (
	"context"
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/runner"
	daemonutils "github.com/devstat/devstat/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install devstat as a systemd user service",
		GroupID: gInstallation,
		Long: `Install the devstat daemon as a systemd user service.

This makes devstat run in the background and start with your session. A
config file is written if none exists yet.

By default, only your user may access the daemon. Use --allow-non-root-access
to let other users talk to it too.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			if allowNonRootAccess {
				logrus.Info("other users are allowed to access the devstat daemon.")
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			unitDir, err := daemonutils.UnitDir()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to find the systemd user unit directory")
			}

			err = daemonutils.Install(context.Background(), runner.Default, unitDir, conf.Path())
			if err != nil {
				return fmt.Errorf("failed to install daemon: %w", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use the current binary (%s) at login, so do not move it. If it is moved or deleted, run `devstat install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow other users to access the devstat daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall the devstat user service",
		GroupID: gInstallation,
		Long: `Stop the devstat daemon and remove its systemd user service.

The config file is kept.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			unitDir, err := daemonutils.UnitDir()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to find the systemd user unit directory")
			}

			err = daemonutils.Uninstall(context.Background(), runner.Default, unitDir)
			if err != nil {
				return fmt.Errorf("failed to uninstall daemon: %w", err)
			}

			logrus.Infof("successfully uninstalled devstat")
			return nil
		},
	}
}
