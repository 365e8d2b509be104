package host

import (
	"fmt"
	"sync"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// reportBufSize holds a report ID followed by a feature payload.
const reportBufSize = 1 + report.Size

// Pad is an open FSR pad.
type Pad struct {
	mutex sync.Mutex
	dev   hal.Device
	info  hal.DeviceInfo
	buf   [reportBufSize]byte
}

// Open opens the device described by info.
func Open(backend hal.HostHAL, info hal.DeviceInfo) (*Pad, error) {
	dev, err := backend.Open(info.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}
	pkg.LogInfo(pkg.ComponentHost, "pad opened", "device", info.String())
	return &Pad{dev: dev, info: info}, nil
}

// Info returns the enumeration record the pad was opened from.
func (p *Pad) Info() hal.DeviceInfo {
	return p.info
}

// ReadSensors reads the pad's smoothed sensor values.
func (p *Pad) ReadSensors() (report.SensorReading, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	payload, err := p.getFeature(report.IDSensors)
	if err != nil {
		return report.SensorReading{}, err
	}
	r, _ := report.UnmarshalSensors(payload)
	return r.Sensors, nil
}

// ReadThresholds reads the pad's thresholds.
func (p *Pad) ReadThresholds() (report.ThresholdVector, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	payload, err := p.getFeature(report.IDThresholds)
	if err != nil {
		return report.ThresholdVector{}, err
	}
	r, _ := report.UnmarshalThresholds(payload)
	return r.Thresholds, nil
}

// WriteThresholds sends v to the pad. The pad persists it only when it
// differs from what it already holds.
func (p *Pad) WriteThresholds(v report.ThresholdVector) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	r := report.ThresholdsReport{Thresholds: v}
	p.buf[0] = report.IDThresholds
	r.MarshalTo(p.buf[1:])
	n, err := p.dev.SendFeatureReport(p.buf[:])
	if err != nil {
		return fmt.Errorf("write thresholds: %w", err)
	}
	if n < reportBufSize {
		return fmt.Errorf("write thresholds: sent %d of %d bytes: %w", n, reportBufSize, pkg.ErrShortReport)
	}
	pkg.LogDebug(pkg.ComponentHost, "thresholds written", "thresholds", v[:])
	return nil
}

// getFeature reads feature report id and returns its payload, which
// aliases p.buf. Caller holds the mutex.
func (p *Pad) getFeature(id uint8) ([]byte, error) {
	clear(p.buf[:])
	p.buf[0] = id
	n, err := p.dev.GetFeatureReport(p.buf[:])
	if err != nil {
		return nil, fmt.Errorf("get feature report %d: %w", id, err)
	}
	if n < reportBufSize {
		return nil, fmt.Errorf("get feature report %d: %d bytes: %w", id, n, pkg.ErrShortReport)
	}
	return p.buf[1:], nil
}

// Close closes the device.
func (p *Pad) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.dev.Close()
}
