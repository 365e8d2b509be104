// Package sensor samples the pad's force sensors and smooths the readings.
package sensor

import (
	"time"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// DefaultInterval is the minimum time between two sampling passes.
const DefaultInterval = 250 * time.Microsecond

// Sampler reads every channel once per sampling pass and folds the result
// into a per-channel exponential moving average.
//
// The zero value is not usable; create one with New.
type Sampler struct {
	adc      hal.ADC
	interval time.Duration
	shift    uint8

	smoothed report.SensorReading
	raw      report.SensorReading

	last  time.Duration
	armed bool
}

// New creates a sampler reading from adc. The filter starts at initial.
// A non-positive interval selects DefaultInterval.
func New(adc hal.ADC, interval time.Duration, initial report.SensorReading) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	var shift uint8
	if res := adc.Resolution(); res > 8 {
		shift = res - 8
	}
	return &Sampler{
		adc:      adc,
		interval: interval,
		shift:    shift,
		smoothed: initial,
	}
}

// Poll samples all channels if at least one interval has elapsed since the
// previous pass. The first call only starts the timer.
// Returns true if a pass was performed.
func (s *Sampler) Poll(now time.Duration) bool {
	if !s.armed {
		s.armed = true
		s.last = now
		return false
	}
	if now-s.last < s.interval {
		return false
	}
	s.Sample()
	s.last = now
	return true
}

// Sample performs one pass unconditionally: read channels 0..3 in order,
// then filter. A channel whose conversion fails keeps its previous value.
func (s *Sampler) Sample() {
	var ok [report.NumChannels]bool
	for ch := 0; ch < report.NumChannels; ch++ {
		v, err := s.adc.Read(ch)
		if err != nil {
			pkg.LogDebug(pkg.ComponentSampler, "adc read failed", "channel", ch, "error", err)
			continue
		}
		s.raw[ch] = Reduce(v, s.shift)
		ok[ch] = true
	}
	for ch := 0; ch < report.NumChannels; ch++ {
		if ok[ch] {
			s.smoothed[ch] = Smooth(s.smoothed[ch], s.raw[ch])
		}
	}
}

// Readings returns the smoothed sensor values.
func (s *Sampler) Readings() report.SensorReading {
	return s.smoothed
}

// Raw returns the last unfiltered 8-bit values.
func (s *Sampler) Raw() report.SensorReading {
	return s.raw
}

// Reduce converts a raw conversion to 8-bit force: keep the top eight
// significant bits, then invert so that more pressure reads higher.
func Reduce(raw uint16, shift uint8) uint8 {
	return ^uint8(raw >> shift)
}

// Smooth applies one step of the (3*prev + sample) / 4 moving average.
func Smooth(prev, sample uint8) uint8 {
	return uint8((uint16(prev)*3 + uint16(sample)) / 4)
}
