// Package hidapi implements the host HAL over the hidapi C library, which
// runs on Linux, macOS and Windows.
package hidapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/sstallion/go-hid"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// HAL implements hal.HostHAL using github.com/sstallion/go-hid.
type HAL struct {
	mutex    sync.Mutex
	initDone bool
}

// New creates a hidapi backend.
func New() *HAL {
	return &HAL{}
}

// Init initializes the hidapi library.
func (h *HAL) Init(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := hid.Init(); err != nil {
		return fmt.Errorf("hidapi init: %w", err)
	}
	h.initDone = true
	pkg.LogDebug(pkg.ComponentHAL, "hidapi initialized")
	return nil
}

// Enumerate lists HID interfaces matching vendorID and productID.
func (h *HAL) Enumerate(vendorID, productID uint16) ([]hal.DeviceInfo, error) {
	h.mutex.Lock()
	done := h.initDone
	h.mutex.Unlock()
	if !done {
		return nil, pkg.ErrNotConfigured
	}

	var infos []hal.DeviceInfo
	err := hid.Enumerate(vendorID, productID, func(info *hid.DeviceInfo) error {
		infos = append(infos, infoFrom(info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hidapi enumerate: %w", err)
	}
	return infos, nil
}

// Open opens the device at path.
func (h *HAL) Open(path string) (hal.Device, error) {
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	pkg.LogDebug(pkg.ComponentHAL, "hidapi device opened", "path", path)
	return dev, nil
}

// Close finalizes the hidapi library.
func (h *HAL) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.initDone {
		return nil
	}
	h.initDone = false
	return hid.Exit()
}

func infoFrom(info *hid.DeviceInfo) hal.DeviceInfo {
	return hal.DeviceInfo{
		Path:         info.Path,
		VendorID:     info.VendorID,
		ProductID:    info.ProductID,
		Manufacturer: info.MfrStr,
		Product:      info.ProductStr,
		Serial:       info.SerialNbr,
		UsagePage:    info.UsagePage,
		Usage:        info.Usage,
		Interface:    info.InterfaceNbr,
	}
}

// Compile-time interface checks
var (
	_ hal.HostHAL = (*HAL)(nil)
	_ hal.Device  = (*hid.Device)(nil)
)
