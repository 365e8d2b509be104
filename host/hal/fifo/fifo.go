package fifo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// Message types for FIFO protocol.
const (
	msgSetup = 0x01 // SETUP packet
	msgData  = 0x02 // DATA packet
	msgAck   = 0x03 // ACK response
	msgNak   = 0x04 // NAK response
	msgStall = 0x05 // STALL response
)

// Buffer sizes.
const (
	maxPacketSize  = 512 // Largest DATA payload
	maxMessageSize = headerSize + 1 + hal.SetupPacketSize + maxPacketSize
	headerSize     = 3 // Message header size (type + length)
)

// DefaultTimeout bounds one control transaction.
const DefaultTimeout = 2 * time.Second

// File names (inside each device subdirectory).
const (
	fifoHostToDevice = "host_to_device"
	fifoDeviceToHost = "device_to_host"
	fileIdentity     = "identity"
	devicePrefix     = "device-"
)

// HAL implements hal.HostHAL over the named-pipe bus used by simulated
// pads. Every device-* subdirectory with an identity file is a device.
type HAL struct {
	busDir  string
	timeout time.Duration

	mutex    sync.Mutex
	initDone bool
}

// NewHAL creates a FIFO backend for the bus at busDir.
func NewHAL(busDir string) *HAL {
	return &HAL{busDir: busDir, timeout: DefaultTimeout}
}

// SetTimeout sets the per-transaction timeout for devices opened afterwards.
func (h *HAL) SetTimeout(d time.Duration) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if d > 0 {
		h.timeout = d
	}
}

// Init creates the bus directory if needed.
func (h *HAL) Init(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(h.busDir, 0o755); err != nil {
		return fmt.Errorf("create bus dir: %w", err)
	}
	h.initDone = true
	pkg.LogInfo(pkg.ComponentHAL, "host FIFO HAL initialized", "busDir", h.busDir)
	return nil
}

// Enumerate lists devices on the bus whose identity matches.
func (h *HAL) Enumerate(vendorID, productID uint16) ([]hal.DeviceInfo, error) {
	h.mutex.Lock()
	done := h.initDone
	h.mutex.Unlock()
	if !done {
		return nil, pkg.ErrNotConfigured
	}

	entries, err := os.ReadDir(h.busDir)
	if err != nil {
		return nil, fmt.Errorf("read bus dir: %w", err)
	}

	var infos []hal.DeviceInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), devicePrefix) {
			continue
		}
		dir := filepath.Join(h.busDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(dir, fileIdentity))
		if err != nil {
			continue // Device still starting, or gone
		}
		info := ParseIdentity(data)
		info.Path = dir
		info.Interface = 0
		if vendorID != 0 && info.VendorID != vendorID {
			continue
		}
		if productID != 0 && info.ProductID != productID {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Open opens the control pipes of the device directory at path.
func (h *HAL) Open(path string) (hal.Device, error) {
	h.mutex.Lock()
	timeout := h.timeout
	h.mutex.Unlock()

	// O_NONBLOCK makes the write side fail fast with ENXIO when no pad is
	// holding the pipe open.
	toDevice, err := os.OpenFile(filepath.Join(path, fifoHostToDevice), os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, syscall.ENXIO) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, pkg.ErrNoDevice)
		}
		return nil, fmt.Errorf("open %s: %w", fifoHostToDevice, err)
	}
	fromDevice, err := os.OpenFile(filepath.Join(path, fifoDeviceToHost), os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		toDevice.Close()
		return nil, fmt.Errorf("open %s: %w", fifoDeviceToHost, err)
	}

	pkg.LogDebug(pkg.ComponentHAL, "fifo device opened", "dir", path)
	return &Device{
		dir:        path,
		timeout:    timeout,
		toDevice:   toDevice,
		fromDevice: fromDevice,
	}, nil
}

// Close marks the backend closed. Opened devices stay usable.
func (h *HAL) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.initDone = false
	return nil
}

// Device is one pad on the FIFO bus.
type Device struct {
	mutex      sync.Mutex
	dir        string
	timeout    time.Duration
	toDevice   *os.File
	fromDevice *os.File
	closed     bool

	txBuf [maxMessageSize]byte
	rxBuf [maxMessageSize]byte
}

// GetFeatureReport issues GET_REPORT(Feature, buf[0]) and copies the
// response, report ID first, into buf.
func (d *Device) GetFeatureReport(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, pkg.ErrBufferTooSmall
	}
	setup := hal.GetFeatureRequest(buf[0], 0, uint16(min(len(buf), maxPacketSize)))
	return d.controlTransfer(&setup, buf)
}

// SendFeatureReport issues SET_REPORT(Feature, data[0]) with data as the
// OUT stage.
func (d *Device) SendFeatureReport(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, pkg.ErrBufferTooSmall
	}
	if len(data) > maxPacketSize {
		return 0, fmt.Errorf("%w: report length %d", pkg.ErrOutOfRange, len(data))
	}
	setup := hal.SetFeatureRequest(data[0], 0, uint16(len(data)))
	if _, err := d.controlTransfer(&setup, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// controlTransfer sends one SETUP message and waits for its response.
func (d *Device) controlTransfer(setup *hal.SetupPacket, data []byte) (int, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return 0, pkg.ErrNoDevice
	}

	isIn := setup.IsDeviceToHost()

	// Build message: header + address + setup packet (+ data for OUT transfers)
	d.txBuf[0] = msgSetup
	d.txBuf[3] = 0
	setup.MarshalTo(d.txBuf[4 : 4+hal.SetupPacketSize])
	payloadLen := 1 + hal.SetupPacketSize
	if !isIn {
		payloadLen += copy(d.txBuf[headerSize+payloadLen:], data)
	}
	binary.LittleEndian.PutUint16(d.txBuf[1:3], uint16(payloadLen))

	deadline := time.Now().Add(d.timeout)
	d.toDevice.SetWriteDeadline(deadline)
	if _, err := d.toDevice.Write(d.txBuf[:headerSize+payloadLen]); err != nil {
		return 0, d.ioError(err)
	}

	d.fromDevice.SetReadDeadline(deadline)
	header := d.rxBuf[:headerSize]
	if _, err := io.ReadFull(d.fromDevice, header); err != nil {
		return 0, d.ioError(err)
	}
	respLen := int(binary.LittleEndian.Uint16(header[1:3]))
	if respLen > maxPacketSize {
		return 0, pkg.ErrProtocol
	}
	payload := d.rxBuf[headerSize : headerSize+respLen]
	if _, err := io.ReadFull(d.fromDevice, payload); err != nil {
		return 0, d.ioError(err)
	}

	switch header[0] {
	case msgData:
		if !isIn {
			return 0, pkg.ErrProtocol
		}
		return copy(data, payload), nil
	case msgAck:
		return 0, nil
	case msgNak:
		return 0, pkg.ErrNAK
	case msgStall:
		return 0, pkg.ErrStall
	default:
		return 0, pkg.ErrProtocol
	}
}

func (d *Device) ioError(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%s: %w", d.dir, pkg.ErrTimeout)
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", d.dir, pkg.ErrNoDevice)
	}
	return fmt.Errorf("%s: %w", d.dir, err)
}

// Close closes the control pipes.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.toDevice.Close()
	if err2 := d.fromDevice.Close(); err == nil {
		err = err2
	}
	return err
}

// ParseIdentity parses an identity file of key=value lines. Unknown keys
// and malformed numbers are ignored.
func ParseIdentity(data []byte) hal.DeviceInfo {
	var info hal.DeviceInfo
	info.Interface = -1

	hex16 := func(s string) uint16 {
		v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
		if err != nil {
			return 0
		}
		return uint16(v)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "vendor_id":
			info.VendorID = hex16(value)
		case "product_id":
			info.ProductID = hex16(value)
		case "manufacturer":
			info.Manufacturer = value
		case "product":
			info.Product = value
		case "serial":
			info.Serial = value
		case "usage_page":
			info.UsagePage = hex16(value)
		case "usage":
			info.Usage = hex16(value)
		}
	}
	return info
}

// Compile-time interface checks
var (
	_ hal.HostHAL = (*HAL)(nil)
	_ hal.Device  = (*Device)(nil)
)
