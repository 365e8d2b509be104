//go:build linux

package linux

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// HAL implements hal.HostHAL over Linux hidraw nodes.
type HAL struct {
	sysfsRoot string
	devRoot   string

	mutex    sync.Mutex
	initDone bool
}

// NewHAL creates a hidraw backend using the standard system paths.
func NewHAL() *HAL {
	return NewHALAt(SysfsHIDRawPath, DevPath)
}

// NewHALAt creates a hidraw backend rooted at the given sysfs class
// directory and device node directory.
func NewHALAt(sysfsRoot, devRoot string) *HAL {
	return &HAL{sysfsRoot: sysfsRoot, devRoot: devRoot}
}

// Init checks that the kernel exposes hidraw.
func (h *HAL) Init(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(h.sysfsRoot); err != nil {
		return fmt.Errorf("%w: hidraw: %v", pkg.ErrNotSupported, err)
	}
	h.initDone = true
	pkg.LogDebug(pkg.ComponentHAL, "hidraw backend initialized", "sysfs", h.sysfsRoot)
	return nil
}

// Enumerate lists hidraw collections matching vendorID and productID.
func (h *HAL) Enumerate(vendorID, productID uint16) ([]hal.DeviceInfo, error) {
	h.mutex.Lock()
	done := h.initDone
	h.mutex.Unlock()
	if !done {
		return nil, pkg.ErrNotConfigured
	}

	nodes, err := scanHIDRaw(h.sysfsRoot)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", h.sysfsRoot, err)
	}

	var infos []hal.DeviceInfo
	for i := range nodes {
		n := &nodes[i]
		if vendorID != 0 && n.vendorID != vendorID {
			continue
		}
		if productID != 0 && n.productID != productID {
			continue
		}
		infos = append(infos, n.deviceInfos(h.devRoot)...)
	}
	return infos, nil
}

// Open opens a hidraw node for feature report exchange.
func (h *HAL) Open(path string) (hal.Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	pkg.LogDebug(pkg.ComponentHAL, "hidraw device opened", "path", path)
	return &Device{fd: fd, path: path}, nil
}

// Close is a no-op; hidraw holds no backend-wide resources.
func (h *HAL) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.initDone = false
	return nil
}

// Device is an open hidraw node.
type Device struct {
	mutex  sync.Mutex
	fd     int
	path   string
	closed bool
}

// GetFeatureReport issues HIDIOCGFEATURE. buf[0] selects the report ID.
func (d *Device) GetFeatureReport(buf []byte) (int, error) {
	return d.featureIoctl(hidiocGFeature, buf)
}

// SendFeatureReport issues HIDIOCSFEATURE. data[0] is the report ID.
func (d *Device) SendFeatureReport(data []byte) (int, error) {
	return d.featureIoctl(hidiocSFeature, data)
}

func (d *Device) featureIoctl(req func(int) uintptr, buf []byte) (int, error) {
	if len(buf) == 0 || len(buf) > MaxReportSize {
		return 0, fmt.Errorf("%w: report length %d", pkg.ErrBufferTooSmall, len(buf))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return 0, pkg.ErrNoDevice
	}

	n, err := ioctlRetval(d.fd, req(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	if err != nil {
		if err == syscall.ENODEV {
			return 0, fmt.Errorf("%s: %w", d.path, pkg.ErrNoDevice)
		}
		return 0, fmt.Errorf("%s: %w", d.path, err)
	}
	return n, nil
}

// Close closes the node.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return syscall.Close(d.fd)
}

// ioctlRetval performs an ioctl syscall and returns the result value.
func ioctlRetval(fd int, req uintptr, arg uintptr) (int, error) {
	r, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

// Compile-time interface checks
var (
	_ hal.HostHAL = (*HAL)(nil)
	_ hal.Device  = (*Device)(nil)
)
