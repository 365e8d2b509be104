// Package periph adapts periph.io analog pins to the pad's ADC interface,
// so the firmware can run on a Linux single-board computer with an external
// converter such as the ADS1115.
package periph

import (
	"fmt"

	"periph.io/x/conn/v3/analog"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// ADC reads the four sensor channels from periph analog pins.
type ADC struct {
	pins       [report.NumChannels]analog.PinADC
	resolution uint8
	max        int32
}

// NewADC wraps one pin per sensor channel. resolution is the number of
// significant bits in a sample's Raw value (15 for a single-ended ADS1115).
func NewADC(resolution uint8, pins ...analog.PinADC) (*ADC, error) {
	if len(pins) != report.NumChannels {
		return nil, fmt.Errorf("%w: need %d pins, got %d", pkg.ErrInvalidChannel, report.NumChannels, len(pins))
	}
	if resolution < 8 || resolution > 16 {
		return nil, fmt.Errorf("%w: resolution %d", pkg.ErrOutOfRange, resolution)
	}
	a := &ADC{resolution: resolution, max: 1<<resolution - 1}
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("%w: pin %d is nil", pkg.ErrInvalidChannel, i)
		}
		a.pins[i] = p
	}
	return a, nil
}

// Read converts channel ch. Negative samples read as 0 and samples above
// the resolution saturate.
func (a *ADC) Read(ch int) (uint16, error) {
	if ch < 0 || ch >= report.NumChannels {
		return 0, fmt.Errorf("%w: %d", pkg.ErrInvalidChannel, ch)
	}
	s, err := a.pins[ch].Read()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", a.pins[ch], err)
	}
	return uint16(min(max(s.Raw, 0), a.max)), nil
}

// Resolution returns the conversion width in bits.
func (a *ADC) Resolution() uint8 {
	return a.resolution
}

// Halt stops every pin.
func (a *ADC) Halt() error {
	var first error
	for _, p := range a.pins {
		if err := p.Halt(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Compile-time interface check
var _ hal.ADC = (*ADC)(nil)
