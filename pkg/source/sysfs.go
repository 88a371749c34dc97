package source

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devstat/devstat/pkg/types"
)

const (
	// DefaultSysfsRoot is where the kernel exposes power supplies.
	DefaultSysfsRoot = "/sys/class/power_supply"

	// Draw below these floors makes a remaining time estimate meaningless.
	minPowerMicroWatts = 100_000
	minCurrentMicroAmp = 10_000
)

// SysfsSource reads batteries from a power_supply class directory. Devices
// are discovered once, at construction.
type SysfsSource struct {
	root      string
	batteries []string
	mains     []string
}

var _ Source = &SysfsSource{}

// NewSysfsSource discovers battery and mains supplies under root. When
// device is set, it names a single battery, either as a directory name
// under root or as an absolute path.
func NewSysfsSource(root, device string) *SysfsSource {
	if root == "" {
		root = DefaultSysfsRoot
	}
	s := &SysfsSource{root: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		logrus.WithError(err).WithField("root", root).Warn("cannot list power supplies")
	}

	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		typ := readString(dir, "type")
		if isMains(typ) && exists(filepath.Join(dir, "online")) {
			s.mains = append(s.mains, dir)
		}
	}

	switch {
	case device != "" && filepath.IsAbs(device):
		if exists(device) {
			s.batteries = []string{device}
		}
	case device != "":
		if dir := filepath.Join(root, device); exists(dir) {
			s.batteries = []string{dir}
		}
	default:
		for _, e := range entries {
			dir := filepath.Join(root, e.Name())
			if strings.HasPrefix(e.Name(), "BAT") || isSystemBattery(dir) {
				s.batteries = append(s.batteries, dir)
			}
		}
	}
	sort.Strings(s.batteries)
	sort.Strings(s.mains)

	logrus.WithFields(logrus.Fields{
		"root":      root,
		"batteries": s.Tracked(),
	}).Debug("sysfs source initialized")

	return s
}

// Name is a comma separated list of the batteries being read.
func (s *SysfsSource) Name() string {
	names := make([]string, 0, len(s.batteries))
	for _, b := range s.batteries {
		names = append(names, filepath.Base(b))
	}
	return strings.Join(names, ",")
}

// Tracked returns the kernel names of every supply this source depends on.
func (s *SysfsSource) Tracked() []string {
	var names []string
	for _, d := range s.batteries {
		names = append(names, filepath.Base(d))
	}
	for _, d := range s.mains {
		names = append(names, filepath.Base(d))
	}
	return names
}

type drain struct {
	energyNow, energyFull, power float64
	chargeNow, chargeFull, curr  float64
	hasEnergy, hasCharge         bool
}

func (s *SysfsSource) Read(_ context.Context) (types.DeviceReading, error) {
	if len(s.batteries) == 0 {
		return types.Unavailable(""), ErrUnavailable
	}

	reading := types.Unavailable(s.Name())

	var levels []float64
	var d drain
	for _, dir := range s.batteries {
		if lvl, ok := readLevel(dir); ok {
			levels = append(levels, lvl)
		}

		st := types.ParseStatus(readString(dir, "status"))
		if reading.Status == types.StatusUnknown && st != types.StatusUnknown {
			reading.Status = st
		}

		en, okEn := readFloat(dir, "energy_now")
		ef, okEf := readFloat(dir, "energy_full")
		pw, okPw := readFloat(dir, "power_now")
		if okEn && okEf && okPw {
			d.energyNow += en
			d.energyFull += ef
			d.power += math.Abs(pw)
			d.hasEnergy = true
		}
		cn, okCn := readFloat(dir, "charge_now")
		cf, okCf := readFloat(dir, "charge_full")
		cu, okCu := readFloat(dir, "current_now")
		if okCn && okCf && okCu {
			d.chargeNow += cn
			d.chargeFull += cf
			d.curr += math.Abs(cu)
			d.hasCharge = true
		}
	}

	if reading.Status == types.StatusUnknown {
		reading.Status = s.mainsStatus()
	}

	if len(levels) > 0 {
		var sum float64
		for _, l := range levels {
			sum += l
		}
		reading = reading.WithLevel(clamp(sum/float64(len(levels)), 0, 100))
	}

	if m, ok := estimateMinutes(reading.Status, d); ok {
		reading = reading.WithMinutes(m)
	}

	logrus.WithFields(logrus.Fields{
		"device": reading.Device,
		"level":  reading.Level,
		"status": reading.Status,
	}).Trace("sysfs read")

	return reading, nil
}

// mainsStatus infers charging state from AC adapters when the battery does
// not report one.
func (s *SysfsSource) mainsStatus() types.Status {
	if len(s.mains) == 0 {
		return types.StatusUnknown
	}
	seen := false
	for _, dir := range s.mains {
		v, ok := readFloat(dir, "online")
		if !ok {
			continue
		}
		seen = true
		if v == 1 {
			return types.StatusCharging
		}
	}
	if seen {
		return types.StatusDischarging
	}
	return types.StatusUnknown
}

func estimateMinutes(st types.Status, d drain) (int, bool) {
	var now, full, rate float64
	switch {
	case d.hasEnergy && d.power >= minPowerMicroWatts:
		now, full, rate = d.energyNow, d.energyFull, d.power
	case d.hasCharge && d.curr >= minCurrentMicroAmp:
		now, full, rate = d.chargeNow, d.chargeFull, d.curr
	default:
		return 0, false
	}

	var hours float64
	switch st {
	case types.StatusDischarging:
		hours = now / rate
	case types.StatusCharging:
		if full <= now {
			return 0, false
		}
		hours = (full - now) / rate
	default:
		return 0, false
	}
	return int(hours * 60), true
}

// readLevel prefers capacity, then the energy ratio, then the charge ratio.
// The two ratio families are never mixed.
func readLevel(dir string) (float64, bool) {
	if c, ok := readFloat(dir, "capacity"); ok {
		return clamp(c, 0, 100), true
	}
	if now, ok := readFloat(dir, "energy_now"); ok {
		if full, ok := readFloat(dir, "energy_full"); ok && full > 0 {
			return clamp(now/full*100, 0, 100), true
		}
	}
	if now, ok := readFloat(dir, "charge_now"); ok {
		if full, ok := readFloat(dir, "charge_full"); ok && full > 0 {
			return clamp(now/full*100, 0, 100), true
		}
	}
	return 0, false
}

func isMains(typ string) bool {
	switch typ {
	case "Mains", "USB", "USB_C", "USB_PD":
		return true
	}
	return false
}

// isSystemBattery excludes peripheral batteries (mice, headsets) which
// report scope=Device.
func isSystemBattery(dir string) bool {
	return readString(dir, "type") == "Battery" && readString(dir, "scope") != "Device"
}

func readString(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readFloat(dir, name string) (float64, bool) {
	s := readString(dir, name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
