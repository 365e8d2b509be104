package tune

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/fsrpad/host"
	"github.com/ardnew/fsrpad/host/hal/sim"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/config"
	"github.com/ardnew/fsrpad/pkg/report"
)

// newSession opens the first pad on a bus of pads and starts a session on
// it with profiles in a temp dir.
func newSession(t *testing.T, pads ...*sim.Pad) (*Session, *host.Selector) {
	t.Helper()
	bus := sim.NewHAL(pads...)
	if err := bus.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	sel := host.NewSelector(bus, host.PadFilter())
	t.Cleanup(func() { sel.Close() })
	pad, err := sel.Next()
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(pad, Options{ProfileDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return s, sel
}

func TestNew_LoadsDevice(t *testing.T) {
	p := sim.NewPad("a")
	p.SetThresholds(report.ThresholdVector{1, 2, 3, 4})
	p.SetSensors(report.SensorReading{5, 6, 7, 8})
	s, _ := newSession(t, p)

	if got := s.Thresholds(); got != (report.ThresholdVector{1, 2, 3, 4}) {
		t.Errorf("Thresholds() = %v", got)
	}
	if got := s.Sensors(); got != (report.SensorReading{5, 6, 7, 8}) {
		t.Errorf("Sensors() = %v", got)
	}
}

func TestNew_NoPad(t *testing.T) {
	s, err := New(nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	s.Adjust(5)
	if err := s.Flush(); err != nil {
		t.Errorf("Flush() without pad error = %v", err)
	}
	if err := s.Refresh(); err != nil {
		t.Errorf("Refresh() without pad error = %v", err)
	}
	if s.opts.FineStep != config.DefaultFineStep || s.opts.CoarseStep != config.DefaultCoarseStep {
		t.Errorf("default steps = %d/%d", s.opts.FineStep, s.opts.CoarseStep)
	}
}

func TestMoveLine(t *testing.T) {
	s, _ := New(nil, Options{})
	tests := []struct {
		delta int
		want  int
	}{
		{1, 1}, {1, 2}, {1, 3}, {1, 0}, {-1, 3}, {-5, 2}, {8, 2},
	}
	for _, tt := range tests {
		s.MoveLine(tt.delta)
		if got := s.Line(); got != tt.want {
			t.Errorf("MoveLine(%d) line = %d, want %d", tt.delta, got, tt.want)
		}
	}
	if err := s.SetLine(4); !errors.Is(err, pkg.ErrInvalidChannel) {
		t.Errorf("SetLine(4) error = %v", err)
	}
}

func TestAdjust_Saturates(t *testing.T) {
	tests := []struct {
		name  string
		start uint8
		up    bool
		coars bool
		want  uint8
	}{
		{"fine up", 100, true, false, 101},
		{"fine down", 100, false, false, 99},
		{"coarse up", 100, true, true, 108},
		{"coarse down", 100, false, true, 92},
		{"ceiling", 250, true, true, 255},
		{"floor", 3, false, true, 0},
		{"at zero", 0, false, false, 0},
		{"at max", 255, true, false, 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := New(nil, Options{FineStep: 1, CoarseStep: 8})
			s.SetLine(2)
			s.Set(report.ThresholdVector{0, 0, tt.start, 0})
			s.Step(tt.up, tt.coars)
			if got := s.Thresholds()[2]; got != tt.want {
				t.Errorf("threshold = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		text string
		ok   bool
		want uint8
	}{
		{"42", true, 42},
		{"0", true, 0},
		{"255", true, 255},
		{"256", true, 255},
		{"99999999999999999999", true, 255},
		{"12abc", true, 12},
		{"-5", false, 77},
		{" 5", false, 77},
		{"", false, 77},
		{"x", false, 77},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s, _ := New(nil, Options{})
			s.Set(report.ThresholdVector{77, 77, 77, 77})
			if ok := s.SetValue(tt.text); ok != tt.ok {
				t.Errorf("SetValue(%q) = %v, want %v", tt.text, ok, tt.ok)
			}
			if got := s.Thresholds()[0]; got != tt.want {
				t.Errorf("threshold = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalibrate(t *testing.T) {
	p := sim.NewPad("a")
	s, _ := newSession(t, p)

	p.SetSensors(report.SensorReading{10, 20, 30, 40})
	if err := s.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := s.Calibrate(1); err != nil {
		t.Fatal(err)
	}
	want := report.ThresholdVector{127, 20, 127, 127}
	if got := s.Thresholds(); got != want {
		t.Errorf("after Calibrate(1) = %v, want %v", got, want)
	}
	if err := s.Calibrate(-1); !errors.Is(err, pkg.ErrInvalidChannel) {
		t.Errorf("Calibrate(-1) error = %v", err)
	}

	s.CalibrateAll()
	if got := s.Thresholds(); got != (report.ThresholdVector{10, 20, 30, 40}) {
		t.Errorf("after CalibrateAll = %v", got)
	}

	// Nothing reaches the pad before Flush.
	if _, _, writes := p.Stats(); writes != 0 {
		t.Errorf("writes before Flush = %d", writes)
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := p.Thresholds(); got != (report.ThresholdVector{10, 20, 30, 40}) {
		t.Errorf("pad thresholds = %v", got)
	}
}

func TestProfiles(t *testing.T) {
	s, _ := newSession(t, sim.NewPad("a"))
	s.Set(report.ThresholdVector{11, 22, 33, 44})

	if err := s.SaveProfile("dance"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.opts.ProfileDir, "dance.fsr"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string([]byte{11, 22, 33, 44}) {
		t.Errorf("profile bytes = %v", data)
	}

	s.Set(report.ThresholdVector{})
	if err := s.LoadProfile("dance"); err != nil {
		t.Fatal(err)
	}
	if got := s.Thresholds(); got != (report.ThresholdVector{11, 22, 33, 44}) {
		t.Errorf("loaded = %v", got)
	}

	if err := s.SaveProfile(""); !errors.Is(err, pkg.ErrInvalidProfile) {
		t.Errorf("SaveProfile(\"\") error = %v", err)
	}
	if err := s.LoadProfile("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadProfile(missing) error = %v", err)
	}

	bad := s.ProfilePath("bad")
	if err := os.WriteFile(bad, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadProfile("bad"); !errors.Is(err, pkg.ErrInvalidProfile) {
		t.Errorf("LoadProfile(bad) error = %v", err)
	}
	if got := s.Thresholds(); got != (report.ThresholdVector{11, 22, 33, 44}) {
		t.Errorf("failed load changed thresholds to %v", got)
	}
}

func TestSwitch_FlushesFirst(t *testing.T) {
	a, b := sim.NewPad("a"), sim.NewPad("b")
	b.SetThresholds(report.ThresholdVector{50, 60, 70, 80})
	s, sel := newSession(t, a, b)

	s.Adjust(10)
	if err := s.Switch(sel); err != nil {
		t.Fatal(err)
	}
	if got := a.Thresholds(); got != (report.ThresholdVector{137, 127, 127, 127}) {
		t.Errorf("pad a thresholds = %v, want edit flushed", got)
	}
	if got := s.Pad().Info().Path; got != "b" {
		t.Errorf("current pad = %q, want b", got)
	}
	if got := s.Thresholds(); got != (report.ThresholdVector{50, 60, 70, 80}) {
		t.Errorf("Thresholds() = %v, want pad b's", got)
	}
}

func TestSwitch_EnumerateFailureKeepsPad(t *testing.T) {
	a := sim.NewPad("a")
	bus := sim.NewHAL(a)
	if err := bus.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	sel := host.NewSelector(bus, host.PadFilter())
	defer sel.Close()
	pad, err := sel.Next()
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(pad, Options{ProfileDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	bus.Close()
	s.Adjust(5)
	if err := s.Switch(sel); err != nil {
		t.Fatalf("Switch() error = %v", err)
	}
	if s.Pad() != pad {
		t.Fatal("session lost its pad")
	}
	s.Adjust(5)
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := a.Thresholds(); got != (report.ThresholdVector{137, 127, 127, 127}) {
		t.Errorf("pad a thresholds = %v", got)
	}
}
