package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/ardnew/fsrpad/device/hal/sim"
	"github.com/ardnew/fsrpad/pkg/report"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name  string
		raw   uint16
		shift uint8
		want  uint8
	}{
		{"12-bit zero", 0x000, 4, 0xFF},
		{"12-bit full scale", 0xFFF, 4, 0x00},
		{"12-bit mid", 0x800, 4, 0x7F},
		{"12-bit low nibble dropped", 0x80F, 4, 0x7F},
		{"16-bit", 0x1234, 8, 0xED},
		{"8-bit", 0x40, 0, 0xBF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduce(tt.raw, tt.shift); got != tt.want {
				t.Errorf("Reduce(%#x, %d) = %#x, want %#x", tt.raw, tt.shift, got, tt.want)
			}
		})
	}
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		prev, sample, want uint8
	}{
		{0, 0, 0},
		{0, 255, 63},
		{255, 0, 191},
		{255, 255, 255},
		{100, 104, 101},
		{1, 2, 1},
	}

	for _, tt := range tests {
		if got := Smooth(tt.prev, tt.sample); got != tt.want {
			t.Errorf("Smooth(%d, %d) = %d, want %d", tt.prev, tt.sample, got, tt.want)
		}
	}
}

func TestSmooth_Convergence(t *testing.T) {
	// From above, integer truncation drives the filter all the way to R.
	s := uint8(255)
	for i := 0; i < 64; i++ {
		s = Smooth(s, 40)
	}
	if s != 40 {
		t.Errorf("from above: settled at %d, want 40", s)
	}

	// From below, truncation can stall the filter up to 3 counts short.
	s = 0
	for i := 0; i < 64; i++ {
		s = Smooth(s, 200)
	}
	if s > 200 || s < 197 {
		t.Errorf("from below: settled at %d, want 197..200", s)
	}
}

func TestSampler_TimeGate(t *testing.T) {
	adc := sim.NewADC(12)
	for ch := 0; ch < report.NumChannels; ch++ {
		adc.SetForce(ch, 200)
	}
	s := New(adc, 0, report.SensorReading{1, 2, 3, 4})

	if s.Poll(0) {
		t.Fatal("first Poll() should only arm the timer")
	}
	if adc.Reads() != 0 {
		t.Fatalf("first Poll() read the ADC %d times", adc.Reads())
	}
	if s.Poll(249 * time.Microsecond) {
		t.Fatal("Poll() before the interval sampled")
	}
	if !s.Poll(250 * time.Microsecond) {
		t.Fatal("Poll() at the interval did not sample")
	}
	if adc.Reads() != report.NumChannels {
		t.Errorf("Reads() = %d, want %d", adc.Reads(), report.NumChannels)
	}
	if s.Poll(400 * time.Microsecond) {
		t.Fatal("interval is measured from the last pass")
	}

	want := report.SensorReading{
		Smooth(1, 200), Smooth(2, 200), Smooth(3, 200), Smooth(4, 200),
	}
	if got := s.Readings(); got != want {
		t.Errorf("Readings() = %v, want %v", got, want)
	}
	if got := s.Raw(); got != (report.SensorReading{200, 200, 200, 200}) {
		t.Errorf("Raw() = %v", got)
	}
}

func TestSampler_Converges(t *testing.T) {
	adc := sim.NewADC(12)
	adc.SetForce(0, 105)
	adc.SetForce(1, 98)
	adc.SetForce(2, 102)
	adc.SetForce(3, 97)

	s := New(adc, time.Millisecond, report.SensorReading{255, 255, 255, 255})
	for i := 0; i < 64; i++ {
		s.Sample()
	}
	if got := s.Readings(); got != (report.SensorReading{105, 98, 102, 97}) {
		t.Errorf("Readings() = %v, want [105 98 102 97]", got)
	}
}

func TestSampler_ReadError(t *testing.T) {
	adc := sim.NewADC(12)
	for ch := 0; ch < report.NumChannels; ch++ {
		adc.SetForce(ch, 0)
	}
	adc.Fail(2, errors.New("conversion timeout"))

	s := New(adc, 0, report.SensorReading{80, 80, 80, 80})
	s.Sample()

	got := s.Readings()
	if got[2] != 80 {
		t.Errorf("failed channel = %d, want unchanged 80", got[2])
	}
	if got[0] != Smooth(80, 0) {
		t.Errorf("healthy channel = %d, want %d", got[0], Smooth(80, 0))
	}
}
