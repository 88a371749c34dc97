package gui

import (
	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/client"
	"github.com/devstat/devstat/pkg/version"
)

func NewTrayCommand(unixSocketPath *string, groupID string) *cobra.Command {
	var widget string

	cmd := &cobra.Command{
		Use:     "tray",
		Short:   "Show a widget in the system tray",
		GroupID: groupID,
		Long: `Show a widget in the system tray.

The tray icon follows the widget through the daemon's event stream and offers
the widget's commands in its menu. The daemon must be running.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(*unixSocketPath, widget)
		},
	}

	cmd.Flags().StringVarP(&widget, "widget", "w", "battery", "Widget to show")

	return cmd
}

func Run(unixSocketPath, widget string) {
	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("devstat tray")

	ctrl := newMenuController(client.NewClient(unixSocketPath), widget)
	systray.Run(ctrl.onReady, ctrl.onExit)
}
