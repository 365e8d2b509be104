package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// ADC is a scripted analog front end. Each channel returns the raw value
// last set for it, or the error set with Fail.
type ADC struct {
	mutex      sync.Mutex
	resolution uint8
	raw        [report.NumChannels]uint16
	errs       [report.NumChannels]error
	reads      int
}

// NewADC creates an ADC with the given resolution in bits (8..16). All
// channels start at zero.
func NewADC(resolution uint8) *ADC {
	return &ADC{resolution: resolution}
}

// Read returns the raw value of channel ch.
func (a *ADC) Read(ch int) (uint16, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if ch < 0 || ch >= report.NumChannels {
		return 0, fmt.Errorf("%w: %d", pkg.ErrInvalidChannel, ch)
	}
	a.reads++
	if err := a.errs[ch]; err != nil {
		return 0, err
	}
	return a.raw[ch], nil
}

// Resolution returns the conversion width in bits.
func (a *ADC) Resolution() uint8 {
	return a.resolution
}

// Set sets the raw conversion value of channel ch.
func (a *ADC) Set(ch int, raw uint16) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if ch >= 0 && ch < report.NumChannels {
		a.raw[ch] = raw
		a.errs[ch] = nil
	}
}

// SetForce sets channel ch so that it reads as force after the pad's
// 8-bit reduction and inversion.
func (a *ADC) SetForce(ch int, force uint8) {
	shift := a.resolution - 8
	a.Set(ch, uint16(^force)<<shift)
}

// Fail makes reads of channel ch return err until the next Set.
func (a *ADC) Fail(ch int, err error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if ch >= 0 && ch < report.NumChannels {
		a.errs[ch] = err
	}
}

// Reads returns the number of conversions performed.
func (a *ADC) Reads() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.reads
}

// ManualClock only moves when told to.
type ManualClock struct {
	mutex sync.Mutex
	now   time.Duration
}

// Now returns the current simulated time.
func (c *ManualClock) Now() time.Duration {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now += d
}

// WallClock measures time from its creation.
type WallClock struct {
	start time.Time
}

// NewWallClock starts a clock at zero.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Now returns the time elapsed since NewWallClock.
func (c *WallClock) Now() time.Duration {
	return time.Since(c.start)
}

// Interrupts tracks critical section nesting in place of a real
// interrupt controller.
type Interrupts struct {
	mutex    sync.Mutex
	depth    int
	maxDepth int
	sections int
}

// Disable enters a critical section and returns the previous depth.
func (i *Interrupts) Disable() hal.InterruptState {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	prev := i.depth
	i.depth++
	i.sections++
	if i.depth > i.maxDepth {
		i.maxDepth = i.depth
	}
	return hal.InterruptState(prev)
}

// Restore leaves a critical section.
func (i *Interrupts) Restore(s hal.InterruptState) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	if int(s) != i.depth-1 {
		pkg.LogWarn(pkg.ComponentHAL, "unbalanced interrupt restore",
			"depth", i.depth, "state", int(s))
	}
	i.depth = int(s)
}

// Enabled returns true when no critical section is active.
func (i *Interrupts) Enabled() bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.depth == 0
}

// Sections returns the number of critical sections entered.
func (i *Interrupts) Sections() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.sections
}

// Compile-time interface checks
var (
	_ hal.ADC        = (*ADC)(nil)
	_ hal.Clock      = (*ManualClock)(nil)
	_ hal.Clock      = (*WallClock)(nil)
	_ hal.Interrupts = (*Interrupts)(nil)
)
