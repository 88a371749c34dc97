package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devstat/devstat/pkg/client"
	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/gui"
)

var (
	logLevel = "info"
	// unixSocketPath is resolved from the config file when left empty.
	unixSocketPath = ""
	configPath     = config.DefaultPath()
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: devstat daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Start it with 'devstat install' or 'devstat daemon'.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - The daemon belongs to another user")
		fmt.Fprintln(os.Stderr, "  - Restart it with '--allow-non-root-access' to let other users talk to it")
	} else if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "\nError: no such widget")
		fmt.Fprintln(os.Stderr, "Run 'devstat status' to see the configured widgets.")
	} else if errors.Is(err, client.ErrBusy) || errors.Is(err, client.ErrWidgetStopped) {
		fmt.Fprintln(os.Stderr, "\nError: the widget cannot take commands right now, try again")
	}
}

func main() {
	// devstat spends nearly all of its time waiting.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devstat",
		Short: "devstat shows battery, volume and brightness for status bars",
		Long: `devstat shows battery, volume, microphone and brightness state for status bars.

It watches devices for changes instead of polling them, and offers commands to
change volume and brightness through a small daemon.

Website: https://github.com/devstat/devstat
Report issues: https://github.com/devstat/devstat/issues`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			unixSocketPath = socketPath()
			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "devstat daemon unix socket path (default from config)")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewListCommand(),
		NewSetCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		gui.NewTrayCommand(&unixSocketPath, gBasic),
	)
	cmd.AddCommand(newWidgetCommands()...)

	return cmd
}
