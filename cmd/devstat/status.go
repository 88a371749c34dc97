package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/events"
	"github.com/devstat/devstat/pkg/monitor"
	"github.com/devstat/devstat/pkg/types"
)

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status [widget]",
		GroupID: gBasic,
		Short:   "Get the current status of the widgets",
		Long:    `Get the display state, watcher state and configuration of every widget, or of one widget.`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := newAPIClient()

			var statuses []monitor.Status
			if len(args) == 1 {
				st, err := api.GetWidget(args[0])
				if err != nil {
					return fmt.Errorf("failed to get widget: %w", err)
				}
				statuses = []monitor.Status{*st}
			} else {
				var err error
				statuses, err = api.ListWidgets()
				if err != nil {
					return fmt.Errorf("failed to list widgets: %w", err)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			printStatus(cmd.OutOrStdout(), statuses, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print the status as JSON")

	return cmd
}

func printStatus(w io.Writer, statuses []monitor.Status, now time.Time) {
	for i, st := range statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "%s\n", bold("%s:", st.Name))
		fmt.Fprintf(w, "  Display: %s\n", displayText(st.Display))
		if st.Display.Tag != types.TagUnavailable && st.Display.Tag != "" {
			fmt.Fprintf(w, "  State: %s\n", statusText(st.Display.Status))
			if st.Display.Reading.HasMinutes {
				fmt.Fprintf(w, "  Time left: %s\n", bold("%d:%02d", st.Display.Reading.Minutes/60, st.Display.Reading.Minutes%60))
			}
		}
		fmt.Fprintf(w, "  Engine: %s\n", bold("%s", st.State))
		fmt.Fprintf(w, "  Watcher: %s (%s)\n", bold("%s", st.Watcher), st.WatcherState)
		fmt.Fprintf(w, "  Controllable: %s\n", bool2Text(st.Controllable))
		if st.Controllable {
			fmt.Fprintf(w, "  Range: %s, step %s\n", bold("%d-%d", st.MinLevel, st.MaxLevel), bold("%d", st.Step))
		}
		if st.Critical > 0 {
			fmt.Fprintf(w, "  Critical below: %s\n", bold("%d%%", st.Critical))
		}
		if !st.LastRecompute.IsZero() {
			fmt.Fprintf(w, "  Last change: %s ago (%d in the last minute)\n",
				now.Sub(st.LastRecompute).Round(time.Second), st.RecomputesLastMinute)
		}
		if !st.NextFallback.IsZero() {
			fmt.Fprintf(w, "  Next fallback read: in %s\n", st.NextFallback.Sub(now).Round(time.Second))
		}
	}
}

func displayText(st types.DisplayState) string {
	text := events.Plain(events.Update{State: st})
	switch {
	case st.Tag == types.TagUnavailable:
		return color.New(color.Bold, color.FgYellow).Sprint(text)
	case st.Severity == types.SeverityHardCritical:
		return color.New(color.Bold, color.FgRed).Sprint(text)
	case st.Severity == types.SeveritySoftCritical:
		return color.New(color.Bold, color.FgYellow).Sprint(text)
	}
	return bold("%s", text)
}

func statusText(s types.Status) string {
	switch s {
	case types.StatusCharging, types.StatusFull:
		return color.GreenString("%s", s)
	case types.StatusDischarging:
		return color.RedString("%s", s)
	}
	return string(s)
}
