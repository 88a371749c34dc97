package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/widget"
)

func NewWatchCommand() *cobra.Command {
	var (
		i3bar  bool
		markup bool
	)

	cmd := &cobra.Command{
		Use:     "watch [widget...]",
		Short:   "Print widget updates for a status bar",
		GroupID: gBasic,
		Long: `Run widgets in this process and print a line whenever one changes.

No daemon is needed. Point a bar's custom module at this command:

  polybar / waybar:  devstat watch battery
  i3bar / swaybar:   devstat watch --i3bar battery volume

Without arguments every configured widget is watched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to load config")
			}

			widgets, err := selectWidgets(conf, args)
			if err != nil {
				return err
			}

			var sink events.Sink = events.NewLineSink(cmd.OutOrStdout(), markup)
			if i3bar {
				sink = events.NewI3barSink(cmd.OutOrStdout())
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watch(ctx, widget.Builder{}, widgets, sink)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&i3bar, "i3bar", false, "Speak the i3bar JSON protocol")
	f.BoolVar(&markup, "markup", false, "Print pango markup instead of plain text")

	return cmd
}

func selectWidgets(conf config.Config, names []string) ([]config.Widget, error) {
	if len(names) == 0 {
		return conf.Widgets(), nil
	}
	widgets := make([]config.Widget, 0, len(names))
	for _, n := range names {
		w, ok := conf.Widget(n)
		if !ok {
			return nil, fmt.Errorf("no widget named %q in %s", n, configPath)
		}
		widgets = append(widgets, w)
	}
	return widgets, nil
}

// watch runs the widgets until ctx is done. Updates reach sink from this
// goroutine only.
func watch(ctx context.Context, b widget.Builder, widgets []config.Widget, sink events.Sink) error {
	pub := events.NewPublisher(nil, sink)

	engines := make([]*monitor.Engine, 0, len(widgets))
	defer func() {
		for _, e := range engines {
			if err := e.Stop(); err != nil && !errors.Is(err, monitor.ErrShutdownTimeout) {
				logrus.WithError(err).WithField("widget", e.Name()).Error("failed to stop widget")
			}
		}
	}()

	for _, w := range widgets {
		e, err := b.Build(w, monitor.WithPublisher(pub))
		if err != nil {
			return err
		}
		if err := e.Start(ctx); err != nil {
			return pkgerrors.Wrapf(err, "failed to start %s", w.Name)
		}
		engines = append(engines, e)
	}

	pub.Run(ctx)
	return nil
}
