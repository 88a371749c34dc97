package source

import (
	"context"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/types"
)

// BatteryLibSource reads every system battery through distatus/battery.
type BatteryLibSource struct {
	getAll func() ([]*battery.Battery, error)
}

var _ Source = &BatteryLibSource{}

func NewBatteryLibSource() *BatteryLibSource {
	return &BatteryLibSource{getAll: battery.GetAll}
}

func (s *BatteryLibSource) Read(_ context.Context) (types.DeviceReading, error) {
	bats, err := s.getAll()
	if len(bats) == 0 {
		if err != nil {
			return types.Unavailable(""), pkgerrors.Wrapf(ErrReadTransient, "failed to get batteries: %v", err)
		}
		return types.Unavailable(""), ErrUnavailable
	}

	reading := types.Unavailable("battery")
	var sum float64
	var n int
	var current, full, rate float64
	for _, b := range bats {
		if b == nil {
			continue
		}
		if b.Full > 0 {
			sum += clamp(b.Current/b.Full*100, 0, 100)
			n++
			current += b.Current
			full += b.Full
		}
		rate += b.ChargeRate
		if reading.Status == types.StatusUnknown {
			reading.Status = batteryState(b)
		}
	}
	if n > 0 {
		reading = reading.WithLevel(sum / float64(n))
	}

	// distatus reports mWh and mW.
	if rate > minPowerMicroWatts/1000 {
		switch reading.Status {
		case types.StatusDischarging:
			reading = reading.WithMinutes(int(current / rate * 60))
		case types.StatusCharging:
			if full > current {
				reading = reading.WithMinutes(int((full - current) / rate * 60))
			}
		}
	}
	return reading, nil
}

func batteryState(b *battery.Battery) types.Status {
	switch b.State {
	case battery.Charging:
		return types.StatusCharging
	case battery.Discharging:
		return types.StatusDischarging
	case battery.Full:
		return types.StatusFull
	}
	return types.StatusUnknown
}
