// Package button turns smoothed sensor readings into button presses.
package button

import "github.com/ardnew/fsrpad/pkg/report"

// DefaultPadding is the half-width of the hysteresis band around each
// threshold.
const DefaultPadding = 2

// Decide computes the button state for one decision tick.
//
// For each channel, in signed arithmetic: a reading below
// threshold-padding releases the button, a reading at or above
// threshold+padding presses it, and anything in between keeps the bit from
// prev. Bits above the fourth channel are always clear.
func Decide(sensors report.SensorReading, thresholds report.ThresholdVector, prev report.ButtonState, padding int) report.ButtonState {
	state := prev & report.ButtonMask
	for ch := 0; ch < report.NumChannels; ch++ {
		s, th := int(sensors[ch]), int(thresholds[ch])
		switch {
		case s < th-padding:
			state = state.With(ch, false)
		case s >= th+padding:
			state = state.With(ch, true)
		}
	}
	return state
}

// Reporter applies Decide against the last reported state and tells the
// caller when a new report is due.
type Reporter struct {
	padding int
	last    report.ButtonState
}

// NewReporter creates a reporter with the given hysteresis padding. The
// initial reported state has every button released.
func NewReporter(padding int) *Reporter {
	return &Reporter{padding: padding}
}

// Update decides the new state. If it differs from the last reported state
// it becomes the last reported state and changed is true.
func (r *Reporter) Update(sensors report.SensorReading, thresholds report.ThresholdVector) (state report.ButtonState, changed bool) {
	state = Decide(sensors, thresholds, r.last, r.padding)
	if state == r.last {
		return state, false
	}
	r.last = state
	return state, true
}

// Last returns the last reported state.
func (r *Reporter) Last() report.ButtonState {
	return r.last
}

// Padding returns the hysteresis padding.
func (r *Reporter) Padding() int {
	return r.padding
}
