package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// HAL is an in-memory bus of simulated pads.
type HAL struct {
	mutex        sync.Mutex
	pads         []*Pad
	initDone     bool
	enumerations int
}

// NewHAL creates a bus holding pads.
func NewHAL(pads ...*Pad) *HAL {
	return &HAL{pads: pads}
}

// Attach adds a pad to the bus.
func (h *HAL) Attach(p *Pad) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.pads = append(h.pads, p)
}

// Detach removes the pad at path. Open handles fail with pkg.ErrNoDevice
// afterwards.
func (h *HAL) Detach(path string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for i, p := range h.pads {
		if p.info.Path == path {
			p.unplug()
			h.pads = append(h.pads[:i], h.pads[i+1:]...)
			return
		}
	}
}

// Enumerations returns how many times Enumerate was called.
func (h *HAL) Enumerations() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.enumerations
}

func (h *HAL) Init(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.initDone {
		return pkg.ErrAlreadyRunning
	}
	h.initDone = true
	return ctx.Err()
}

func (h *HAL) Enumerate(vendorID, productID uint16) ([]hal.DeviceInfo, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.initDone {
		return nil, pkg.ErrNotConfigured
	}
	h.enumerations++

	var infos []hal.DeviceInfo
	for _, p := range h.pads {
		if vendorID != 0 && p.info.VendorID != vendorID {
			continue
		}
		if productID != 0 && p.info.ProductID != productID {
			continue
		}
		infos = append(infos, p.info)
	}
	return infos, nil
}

func (h *HAL) Open(path string) (hal.Device, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, p := range h.pads {
		if p.info.Path == path {
			return p.open()
		}
	}
	return nil, fmt.Errorf("%s: %w", path, pkg.ErrNoDevice)
}

func (h *HAL) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.initDone = false
	return nil
}

// Pad is a simulated device.
type Pad struct {
	mutex    sync.Mutex
	info     hal.DeviceInfo
	features map[uint8][]byte
	writable map[uint8]bool
	gone     bool
	openErr  error

	opens  int
	closes int
	writes int
}

// NewPad creates a pad at path with the identity of an FSR pad's feature
// collection, default thresholds and zero sensors.
func NewPad(path string) *Pad {
	p := &Pad{
		info: hal.DeviceInfo{
			Path:         path,
			VendorID:     0x16C0,
			ProductID:    0x27D9,
			Manufacturer: "http://pubby.games",
			Product:      "FSR Pad",
			UsagePage:    0xFF00,
			Usage:        0xA0,
			Interface:    0,
		},
		features: make(map[uint8][]byte),
		writable: map[uint8]bool{report.IDThresholds: true},
	}
	def := report.DefaultThresholds()
	p.features[report.IDSensors] = make([]byte, report.Size)
	p.features[report.IDThresholds] = def[:]
	return p
}

// Info returns the pad's enumeration record.
func (p *Pad) Info() hal.DeviceInfo {
	return p.info
}

// SetInfo replaces the enumeration record. The path is kept.
func (p *Pad) SetInfo(info hal.DeviceInfo) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	info.Path = p.info.Path
	p.info = info
}

// SetOpenError makes subsequent opens fail with err (nil clears).
func (p *Pad) SetOpenError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.openErr = err
}

// SetFeature stores the payload returned for report id.
func (p *Pad) SetFeature(id uint8, payload []byte) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.features[id] = append([]byte(nil), payload...)
}

// Feature returns a copy of the payload stored for report id.
func (p *Pad) Feature(id uint8) []byte {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]byte(nil), p.features[id]...)
}

// SetSensors stores the sensors report payload.
func (p *Pad) SetSensors(s report.SensorReading) {
	p.SetFeature(report.IDSensors, s[:])
}

// Thresholds returns the stored thresholds payload.
func (p *Pad) Thresholds() report.ThresholdVector {
	var v report.ThresholdVector
	copy(v[:], p.Feature(report.IDThresholds))
	return v
}

// SetThresholds stores the thresholds payload.
func (p *Pad) SetThresholds(v report.ThresholdVector) {
	p.SetFeature(report.IDThresholds, v[:])
}

// Stats returns how many times the pad was opened, closed and written.
func (p *Pad) Stats() (opens, closes, writes int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.opens, p.closes, p.writes
}

func (p *Pad) open() (hal.Device, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.openErr != nil {
		return nil, p.openErr
	}
	p.gone = false
	p.opens++
	return &handle{pad: p}, nil
}

func (p *Pad) unplug() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.gone = true
}

// handle is one open instance of a Pad.
type handle struct {
	pad    *Pad
	closed bool
}

func (d *handle) GetFeatureReport(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, pkg.ErrBufferTooSmall
	}
	p := d.pad
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if d.closed || p.gone {
		return 0, pkg.ErrNoDevice
	}
	payload, ok := p.features[buf[0]]
	if !ok {
		return 0, pkg.ErrStall
	}
	return 1 + copy(buf[1:], payload), nil
}

func (d *handle) SendFeatureReport(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, pkg.ErrBufferTooSmall
	}
	p := d.pad
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if d.closed || p.gone {
		return 0, pkg.ErrNoDevice
	}
	if !p.writable[data[0]] {
		return 0, pkg.ErrStall
	}
	p.features[data[0]] = append([]byte(nil), data[1:]...)
	p.writes++
	return len(data), nil
}

func (d *handle) Close() error {
	p := d.pad
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !d.closed {
		d.closed = true
		p.closes++
	}
	return nil
}

// Compile-time interface checks
var (
	_ hal.HostHAL = (*HAL)(nil)
	_ hal.Device  = (*handle)(nil)
)
