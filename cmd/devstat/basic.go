package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)

			daemonVersion, err := newAPIClient().GetVersion()
			if err != nil {
				logrus.WithError(err).Debug("cannot get daemon version")
				return
			}
			if daemonVersion != version.Version {
				logrus.WithFields(logrus.Fields{
					"clientVersion": version.Version,
					"daemonVersion": daemonVersion,
				}).Warn("Version mismatch between client and daemon. Restart the daemon after upgrading.")
			}
		},
	}
}

type widgetCommand struct {
	cmd   monitor.Command
	short string
	long  string
}

var widgetCommands = []widgetCommand{
	{monitor.CmdIncrease, "Raise a widget's level by one step", "Raise the level of a controllable widget (volume, mic, brightness) by its configured step."},
	{monitor.CmdDecrease, "Lower a widget's level by one step", "Lower the level of a controllable widget (volume, mic, brightness) by its configured step."},
	{monitor.CmdMute, "Mute a widget", "Mute an audio widget."},
	{monitor.CmdUnmute, "Unmute a widget", "Unmute an audio widget."},
	{monitor.CmdToggleMute, "Toggle mute of a widget", "Mute an audio widget if it is unmuted, and unmute it otherwise."},
	{monitor.CmdRefresh, "Read a widget's device again", "Read the widget's device now instead of waiting for a change."},
}

func newWidgetCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(widgetCommands))
	for _, wc := range widgetCommands {
		cmds = append(cmds, &cobra.Command{
			Use:     string(wc.cmd) + " [widget]",
			Short:   wc.short,
			Long:    wc.long,
			GroupID: gBasic,
			Args:    cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				ret, err := newAPIClient().Command(args[0], wc.cmd)
				if err != nil {
					return fmt.Errorf("failed to %s %s: %w", wc.cmd, args[0], err)
				}

				if ret != "" {
					logrus.Infof("daemon responded: %s", ret)
				}
				return nil
			},
		})
	}
	return cmds
}

func NewSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "set [widget] [level]",
		Short:   "Set a widget's level",
		GroupID: gBasic,
		Long: `Set the level of a controllable widget.

The level is clamped to the widget's min_level and max_level. Volume may go
above 100 when max_level allows it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			level, err := parseIntArg(args[1:], "level")
			if err != nil {
				return err
			}

			ret, err := newAPIClient().SetLevel(args[0], level)
			if err != nil {
				return fmt.Errorf("failed to set level of %s: %w", args[0], err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			return nil
		},
	}
}
