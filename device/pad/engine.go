// Package pad runs the FSR pad firmware: sample the sensors, decide which
// buttons are pressed, report changes, and answer the host's calibration
// requests.
package pad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardnew/fsrpad/device/button"
	"github.com/ardnew/fsrpad/device/calib"
	"github.com/ardnew/fsrpad/device/class/hid"
	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/device/protocol"
	"github.com/ardnew/fsrpad/device/sensor"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/config"
	"github.com/ardnew/fsrpad/pkg/report"
)

// Config tunes the engine.
type Config struct {
	Padding          int
	SampleInterval   time.Duration
	DecisionInterval time.Duration
	InitialSensors   report.SensorReading

	// Idle is slept between Run iterations. Zero spins, which is what a
	// microcontroller wants.
	Idle time.Duration
}

// DefaultConfig returns the firmware defaults.
func DefaultConfig() Config {
	return Config{
		Padding:          button.DefaultPadding,
		SampleInterval:   sensor.DefaultInterval,
		DecisionInterval: time.Millisecond,
		InitialSensors:   report.SensorReading{1, 2, 3, 4},
	}
}

// ConfigFrom converts the device section of a normalized configuration.
func ConfigFrom(d config.DeviceConfig) Config {
	cfg := DefaultConfig()
	if d.Padding != nil {
		cfg.Padding = *d.Padding
	}
	if d.SampleIntervalUs > 0 {
		cfg.SampleInterval = d.SampleInterval()
	}
	if d.DecisionIntervalMs > 0 {
		cfg.DecisionInterval = d.DecisionInterval()
	}
	if len(d.InitialSensors) == report.NumChannels {
		copy(cfg.InitialSensors[:], d.InitialSensors)
	}
	cfg.Idle = d.Idle()
	return cfg
}

// Hardware bundles the platform the engine runs on.
type Hardware struct {
	Flash      hal.Flash
	Interrupts hal.Interrupts
	ADC        hal.ADC
	Clock      hal.Clock
	Transport  hal.Transport
}

func (hw Hardware) validate() error {
	switch {
	case hw.Flash == nil:
		return fmt.Errorf("%w: flash", pkg.ErrNotConfigured)
	case hw.Interrupts == nil:
		return fmt.Errorf("%w: interrupts", pkg.ErrNotConfigured)
	case hw.ADC == nil:
		return fmt.Errorf("%w: adc", pkg.ErrNotConfigured)
	case hw.Clock == nil:
		return fmt.Errorf("%w: clock", pkg.ErrNotConfigured)
	case hw.Transport == nil:
		return fmt.Errorf("%w: transport", pkg.ErrNotConfigured)
	}
	return nil
}

// Engine owns all pad state. It is driven from a single goroutine: control
// requests reach it from inside Transport.Task, which Run calls on the same
// goroutine as Task, so none of its state is locked.
type Engine struct {
	cfg       Config
	clock     hal.Clock
	transport hal.Transport

	store    *calib.Store
	sampler  *sensor.Sampler
	reporter *button.Reporter
	class    *hid.HID

	thresholds report.ThresholdVector

	lastTick time.Duration
	ticked   bool
}

// New builds an engine: open the calibration store, load thresholds, and
// register the HID class as the transport's control handler.
func New(cfg Config, hw Hardware) (*Engine, error) {
	if err := hw.validate(); err != nil {
		return nil, err
	}
	if cfg.DecisionInterval <= 0 {
		cfg.DecisionInterval = time.Millisecond
	}

	store, err := calib.New(hw.Flash, hw.Interrupts)
	if err != nil {
		return nil, fmt.Errorf("calibration store: %w", err)
	}
	thresholds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load calibration: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		clock:      hw.Clock,
		transport:  hw.Transport,
		store:      store,
		sampler:    sensor.New(hw.ADC, cfg.SampleInterval, cfg.InitialSensors),
		reporter:   button.NewReporter(cfg.Padding),
		thresholds: thresholds,
	}
	e.class = hid.New(hid.PadReportDescriptor, protocol.New(e))
	e.class.Attach(hw.Transport)

	pkg.LogInfo(pkg.ComponentEngine, "pad engine ready",
		"thresholds", thresholds[:],
		"padding", cfg.Padding,
		"slots", store.Capacity())
	return e, nil
}

// Task runs one pass of the pad loop: sample when the sampling interval has
// elapsed, then at most once per decision tick decide the buttons and send
// a report if they changed. Nothing happens while the transport is not
// ready.
func (e *Engine) Task(ctx context.Context) error {
	if !e.class.Ready() {
		return nil
	}

	now := e.clock.Now()
	e.sampler.Poll(now)

	tick := now / e.cfg.DecisionInterval
	if e.ticked && tick == e.lastTick {
		return nil
	}
	e.ticked = true
	e.lastTick = tick

	state, changed := e.reporter.Update(e.sampler.Readings(), e.thresholds)
	if !changed {
		return nil
	}
	pkg.LogDebug(pkg.ComponentEngine, "buttons changed", "buttons", state.String())
	return e.class.SendButtons(ctx, state)
}

// Run drives the transport and the pad loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.transport.Task(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport: %w", err)
		}
		if err := e.Task(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			pkg.LogWarn(pkg.ComponentEngine, "input report failed", "error", err)
		}
		if e.cfg.Idle > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.Idle):
			}
		}
	}
}

// Sensors returns the smoothed sensor readings.
func (e *Engine) Sensors() report.SensorReading {
	return e.sampler.Readings()
}

// Thresholds returns the thresholds in effect.
func (e *Engine) Thresholds() report.ThresholdVector {
	return e.thresholds
}

// Buttons returns the last reported button state.
func (e *Engine) Buttons() report.ButtonState {
	return e.reporter.Last()
}

// ApplyThresholds puts v into effect immediately and appends it to the
// calibration log. The new thresholds stay in effect even if persisting
// fails.
func (e *Engine) ApplyThresholds(v report.ThresholdVector) error {
	e.thresholds = v
	return e.store.Save(v)
}

// Store returns the calibration store.
func (e *Engine) Store() *calib.Store {
	return e.store
}

// Class returns the HID class driver.
func (e *Engine) Class() *hid.HID {
	return e.class
}
