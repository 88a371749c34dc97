// Package powerinfo lists the power supplies of the machine, for showing
// users what the battery widget can be pointed at.
package powerinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
)

// DefaultRoot is where the kernel exposes power supplies.
const DefaultRoot = "/sys/class/power_supply"

// ListSupplies reads every supply under root, sorted by name.
func ListSupplies(root string) ([]Supply, error) {
	if root == "" {
		root = DefaultRoot
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list %s", root)
	}

	supplies := make([]Supply, 0, len(entries))
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		s := Supply{
			Name:     e.Name(),
			Type:     readString(dir, "type"),
			Scope:    readString(dir, "scope"),
			Status:   readString(dir, "status"),
			Capacity: -1,
			Model:    readString(dir, "model_name"),
			Path:     dir,
		}
		if c, err := strconv.Atoi(readString(dir, "capacity")); err == nil {
			s.Capacity = c
		}
		if o := readString(dir, "online"); o != "" {
			online := o == "1"
			s.Online = &online
		}
		supplies = append(supplies, s)
	}

	sort.Slice(supplies, func(i, j int) bool { return supplies[i].Name < supplies[j].Name })
	return supplies, nil
}

var getAll = battery.GetAll

// ListBatteries asks the platform battery library. Batteries that fail
// to read are skipped, unless all of them do.
func ListBatteries() ([]Battery, error) {
	bats, err := getAll()
	if len(bats) == 0 && err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get batteries")
	}

	ret := make([]Battery, 0, len(bats))
	for i, b := range bats {
		if b == nil {
			continue
		}
		ret = append(ret, Battery{
			Index:      i,
			State:      strings.ToLower(b.State.String()),
			Current:    b.Current,
			Full:       b.Full,
			Design:     b.Design,
			ChargeRate: b.ChargeRate,
			Voltage:    b.Voltage,
		})
	}
	return ret, nil
}

func readString(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
