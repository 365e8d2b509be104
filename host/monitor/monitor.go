package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// Sample is one poll of a pad.
type Sample struct {
	Time       time.Time              `json:"time"`
	Device     string                 `json:"device"`
	Sensors    report.SensorReading   `json:"sensors"`
	Thresholds report.ThresholdVector `json:"thresholds"`
}

// Command is a request received from a sink. Fields left nil are ignored.
type Command struct {
	Thresholds *report.ThresholdVector `json:"thresholds,omitempty"`
}

// UnmarshalJSON decodes a command. A thresholds array must hold exactly
// one value per channel, each in 0..255.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw struct {
		Thresholds *[]int `json:"thresholds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Thresholds = nil
	if raw.Thresholds == nil {
		return nil
	}
	values := *raw.Thresholds
	if len(values) != report.NumChannels {
		return fmt.Errorf("%w: %d thresholds, want %d", pkg.ErrOutOfRange, len(values), report.NumChannels)
	}
	var v report.ThresholdVector
	for ch, n := range values {
		if n < 0 || n > 255 {
			return fmt.Errorf("%w: threshold %d is %d", pkg.ErrOutOfRange, ch, n)
		}
		v[ch] = uint8(n)
	}
	c.Thresholds = &v
	return nil
}

// Source is the pad a monitor polls. *host.Pad implements it.
type Source interface {
	Info() hal.DeviceInfo
	ReadSensors() (report.SensorReading, error)
	ReadThresholds() (report.ThresholdVector, error)
	WriteThresholds(v report.ThresholdVector) error
}

// ThresholdWriter accepts threshold vectors from a sink.
type ThresholdWriter interface {
	WriteThresholds(v report.ThresholdVector) error
}

// Sink receives samples.
type Sink interface {
	WriteSample(ctx context.Context, s Sample) error
}

// Monitor polls a Source and fans samples out to sinks.
type Monitor struct {
	src      Source
	interval time.Duration

	mutex sync.Mutex
	sinks []Sink
	last  Sample
	have  bool
}

// New creates a monitor polling src every interval.
func New(src Source, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &Monitor{src: src, interval: interval}
}

// AddSink registers a sink. Sinks are called in registration order.
func (m *Monitor) AddSink(s Sink) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sinks = append(m.sinks, s)
}

// Last returns the most recent sample.
func (m *Monitor) Last() (Sample, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.last, m.have
}

// WriteThresholds forwards v to the pad. The change shows in the next
// sample.
func (m *Monitor) WriteThresholds(v report.ThresholdVector) error {
	if err := m.src.WriteThresholds(v); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentMonitor, "thresholds written", "device", m.src.Info().Path, "thresholds", v[:])
	return nil
}

// Poll takes one sample and hands it to every sink. Sink errors are logged
// and do not fail the poll.
func (m *Monitor) Poll(ctx context.Context) (Sample, error) {
	sensors, err := m.src.ReadSensors()
	if err != nil {
		return Sample{}, fmt.Errorf("read sensors: %w", err)
	}
	thresholds, err := m.src.ReadThresholds()
	if err != nil {
		return Sample{}, fmt.Errorf("read thresholds: %w", err)
	}
	s := Sample{
		Time:       time.Now(),
		Device:     m.src.Info().Path,
		Sensors:    sensors,
		Thresholds: thresholds,
	}

	m.mutex.Lock()
	m.last, m.have = s, true
	sinks := append([]Sink(nil), m.sinks...)
	m.mutex.Unlock()

	for _, sink := range sinks {
		if err := sink.WriteSample(ctx, s); err != nil {
			pkg.LogWarn(pkg.ComponentMonitor, "sink write failed", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
	return s, nil
}

// Run polls until ctx is done or the pad goes away. Other read errors are
// logged and polling continues.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	pkg.LogInfo(pkg.ComponentMonitor, "monitor started", "device", m.src.Info().Path, "interval", m.interval)
	for {
		if _, err := m.Poll(ctx); err != nil {
			if errors.Is(err, pkg.ErrNoDevice) {
				return err
			}
			pkg.LogWarn(pkg.ComponentMonitor, "poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ ThresholdWriter = (*Monitor)(nil)
