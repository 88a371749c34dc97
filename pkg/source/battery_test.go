package source

import (
	"context"
	"errors"
	"testing"

	"github.com/distatus/battery"

	"github.com/devstat/devstat/pkg/types"
)

func TestBatteryLibSourceRead(t *testing.T) {
	s := &BatteryLibSource{getAll: func() ([]*battery.Battery, error) {
		return []*battery.Battery{
			{State: battery.Discharging, Current: 20000, Full: 40000, ChargeRate: 10000},
			{State: battery.Discharging, Current: 30000, Full: 40000, ChargeRate: 5000},
		}, nil
	}}

	got, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Level != 62.5 {
		t.Errorf("Read().Level = %v, want 62.5", got.Level)
	}
	if got.Status != types.StatusDischarging {
		t.Errorf("Read().Status = %v", got.Status)
	}
	if !got.HasMinutes || got.Minutes != 200 {
		t.Errorf("Read().Minutes = %v/%v, want 200", got.Minutes, got.HasMinutes)
	}
}

func TestBatteryLibSourceErrors(t *testing.T) {
	s := &BatteryLibSource{getAll: func() ([]*battery.Battery, error) { return nil, nil }}
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Read() error = %v, want ErrUnavailable", err)
	}

	s = &BatteryLibSource{getAll: func() ([]*battery.Battery, error) { return nil, errors.New("eio") }}
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrReadTransient) {
		t.Errorf("Read() error = %v, want ErrReadTransient", err)
	}
}
