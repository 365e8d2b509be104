package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

func TestHAL_EnumerateAndOpen(t *testing.T) {
	a, b := NewPad("a"), NewPad("b")
	other := NewPad("c")
	info := other.Info()
	info.VendorID = 0x046D
	other.SetInfo(info)

	h := NewHAL(a, b, other)
	if _, err := h.Enumerate(0, 0); !errors.Is(err, pkg.ErrNotConfigured) {
		t.Fatalf("Enumerate() before Init error = %v", err)
	}
	if err := h.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	infos, err := h.Enumerate(0x16C0, 0x27D9)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Path != "a" || infos[1].Path != "b" {
		t.Errorf("Enumerate() = %v", infos)
	}
	if h.Enumerations() != 1 {
		t.Errorf("Enumerations() = %d, want 1", h.Enumerations())
	}

	if _, err := h.Open("missing"); !errors.Is(err, pkg.ErrNoDevice) {
		t.Errorf("Open(missing) error = %v", err)
	}
}

func TestHandle_Features(t *testing.T) {
	p := NewPad("a")
	p.SetSensors(report.SensorReading{9, 8, 7, 6})
	h := NewHAL(p)
	h.Init(context.Background())

	dev, err := h.Open("a")
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 5)
	buf[0] = report.IDSensors
	n, err := dev.GetFeatureReport(buf)
	if err != nil || n != 5 || buf[1] != 9 || buf[4] != 6 {
		t.Errorf("GetFeatureReport(sensors) = %d, %v, buf %v", n, err, buf)
	}

	if _, err := dev.SendFeatureReport([]byte{report.IDSensors, 1, 2, 3, 4}); !errors.Is(err, pkg.ErrStall) {
		t.Errorf("SET sensors error = %v, want ErrStall", err)
	}
	if _, err := dev.SendFeatureReport([]byte{report.IDThresholds, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if got := p.Thresholds(); got != (report.ThresholdVector{1, 2, 3, 4}) {
		t.Errorf("Thresholds() = %v", got)
	}

	buf[0] = report.IDButtons
	if _, err := dev.GetFeatureReport(buf); !errors.Is(err, pkg.ErrStall) {
		t.Errorf("GET buttons error = %v, want ErrStall", err)
	}

	h.Detach("a")
	buf[0] = report.IDSensors
	if _, err := dev.GetFeatureReport(buf); !errors.Is(err, pkg.ErrNoDevice) {
		t.Errorf("GET after detach error = %v, want ErrNoDevice", err)
	}

	dev.Close()
	dev.Close()
	opens, closes, writes := p.Stats()
	if opens != 1 || closes != 1 || writes != 1 {
		t.Errorf("Stats() = %d, %d, %d", opens, closes, writes)
	}
}
