package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devstat/devstat/pkg/powerinfo"
)

type listJSON struct {
	Supplies  []powerinfo.Supply  `json:"supplies"`
	Batteries []powerinfo.Battery `json:"batteries"`
}

func NewListCommand() *cobra.Command {
	var (
		asJSON bool
		root   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List power supplies",
		GroupID: gAdvanced,
		Long: `List the power supplies the kernel reports, and the batteries the platform
battery library can read. Use a supply name as the device of a battery widget.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			supplies, err := powerinfo.ListSupplies(root)
			if err != nil {
				return err
			}
			batteries, err := powerinfo.ListBatteries()
			if err != nil {
				logrus.WithError(err).Warn("battery library cannot read any battery")
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listJSON{Supplies: supplies, Batteries: batteries})
			}

			printSupplies(cmd.OutOrStdout(), supplies, batteries)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&asJSON, "json", "j", false, "Print as JSON")
	f.StringVar(&root, "sysfs-root", powerinfo.DefaultRoot, "power_supply class directory")

	return cmd
}

func printSupplies(w io.Writer, supplies []powerinfo.Supply, batteries []powerinfo.Battery) {
	fmt.Fprintln(w, bold("Power supplies:"))
	if len(supplies) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, s := range supplies {
		line := fmt.Sprintf("  %s: %s", bold("%s", s.Name), s.Type)
		if s.Scope != "" {
			line += ", scope " + s.Scope
		}
		if s.Model != "" {
			line += ", " + s.Model
		}
		if s.Capacity >= 0 {
			line += fmt.Sprintf(", %d%%", s.Capacity)
		}
		if s.Status != "" {
			line += ", " + s.Status
		}
		if s.Online != nil {
			line += ", online " + bool2Text(*s.Online)
		}
		fmt.Fprintln(w, line)
	}

	if len(batteries) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, bold("Batteries:"))
	for _, b := range batteries {
		fmt.Fprintf(w, "  #%d: %s, %s, health %s, rate %s\n",
			b.Index,
			bold("%.0f%%", b.Percent()),
			b.State,
			bold("%.0f%%", b.Health()),
			bold("%.1f W", b.ChargeRate/1e3),
		)
	}
}
