package fifo

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// MaxPacketSize is the largest payload carried by a single message.
const MaxPacketSize = 512

// Message types for the FIFO protocol (must match host HAL).
const (
	msgSetup   = 0x01 // SETUP packet from host
	msgData    = 0x02 // DATA packet
	msgAck     = 0x03 // ACK response
	msgNak     = 0x04 // NAK response
	msgStall   = 0x05 // STALL response
	msgReset   = 0x12 // Port reset
	msgAddress = 0x13 // Set address
)

// Header size for messages.
const headerSize = 3 // type (1) + length (2)

// Connection signal bytes (one-way signaling to host).
const (
	sigConnect    = 0x01 // Device connected
	sigDisconnect = 0x00 // Device disconnected
)

// File names inside the device directory.
const (
	fifoHostToDevice = "host_to_device"
	fifoDeviceToHost = "device_to_host"
	fifoInterrupts   = "interrupts"
	fifoConnection   = "connection"
	fileIdentity     = "identity"
)

// Default timeouts.
const (
	DefaultPollTimeout  = time.Millisecond
	DefaultWriteTimeout = 100 * time.Millisecond
)

// Transport implements hal.Transport using named pipes (FIFOs).
// Each pad instance creates a unique subdirectory under the bus directory so
// several pads can share one bus.
type Transport struct {
	busDir    string
	deviceDir string
	uuid      string
	identity  hal.Identity

	pollTimeout  time.Duration
	writeTimeout time.Duration

	hostToDeviceRead  *os.File // Pad reads control requests
	deviceToHostWrite *os.File // Pad writes control responses
	interruptsWrite   *os.File // Pad writes input reports
	connectionWrite   *os.File // Pad signals connection status

	connected uint32 // Atomic: 1 = connected, 0 = disconnected
	address   uint8

	handler  hal.ControlHandler
	mutex    sync.RWMutex
	initDone bool

	// Only touched from Task.
	rx      []byte
	readBuf [MaxPacketSize + headerSize + 16]byte
	resp    [MaxPacketSize]byte

	writeMutex sync.Mutex
	writeBuf   [MaxPacketSize + headerSize]byte
}

// New creates a FIFO transport that publishes id under busDir.
func New(busDir string, id hal.Identity) *Transport {
	return &Transport{
		busDir:       busDir,
		identity:     id,
		pollTimeout:  DefaultPollTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
}

// SetPollTimeout sets how long Task waits for a control request.
func (t *Transport) SetPollTimeout(d time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if d > 0 {
		t.pollTimeout = d
	}
}

// SetWriteTimeout bounds how long a response or input report may block on a
// full pipe.
func (t *Transport) SetWriteTimeout(d time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if d > 0 {
		t.writeTimeout = d
	}
}

// generateUUID generates a random UUID using crypto/rand.
func generateUUID() (string, error) {
	var uuid [16]byte
	if _, err := rand.Read(uuid[:]); err != nil {
		return "", err
	}
	// Set version 4 (random) bits
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return hex.EncodeToString(uuid[:]), nil
}

// Init creates the device subdirectory, its FIFOs and the identity file.
func (t *Transport) Init(ctx context.Context) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.initDone {
		return pkg.ErrAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uuid, err := generateUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}
	t.uuid = uuid
	t.deviceDir = filepath.Join(t.busDir, "device-"+uuid)

	if err := os.MkdirAll(t.deviceDir, 0o755); err != nil {
		return fmt.Errorf("create device dir: %w", err)
	}

	for _, name := range []string{fifoHostToDevice, fifoDeviceToHost, fifoInterrupts, fifoConnection} {
		if err := t.createFIFO(name); err != nil {
			t.cleanup()
			return err
		}
	}
	if err := os.WriteFile(filepath.Join(t.deviceDir, fileIdentity), FormatIdentity(t.identity), 0o644); err != nil {
		t.cleanup()
		return fmt.Errorf("write identity: %w", err)
	}

	// O_RDWR keeps the open from blocking until the host shows up.
	flag := os.O_RDWR | syscall.O_NONBLOCK
	for _, f := range []struct {
		name string
		dst  **os.File
	}{
		{fifoConnection, &t.connectionWrite},
		{fifoDeviceToHost, &t.deviceToHostWrite},
		{fifoInterrupts, &t.interruptsWrite},
		{fifoHostToDevice, &t.hostToDeviceRead},
	} {
		*f.dst, err = t.openFIFO(f.name, flag)
		if err != nil {
			t.cleanup()
			return err
		}
	}

	t.initDone = true
	pkg.LogInfo(pkg.ComponentHAL, "fifo transport initialized",
		"busDir", t.busDir,
		"deviceDir", t.deviceDir,
		"uuid", t.uuid)
	return nil
}

// Start signals connection to the host. Ready reports true afterwards.
func (t *Transport) Start() error {
	t.mutex.RLock()
	f := t.connectionWrite
	done := t.initDone
	t.mutex.RUnlock()
	if !done {
		return pkg.ErrNotConfigured
	}

	if _, err := f.Write([]byte{sigConnect}); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "failed to signal connection", "error", err)
	}
	atomic.StoreUint32(&t.connected, 1)

	pkg.LogInfo(pkg.ComponentHAL, "fifo transport started")
	return nil
}

// Stop signals disconnection and removes the device directory.
func (t *Transport) Stop() error {
	atomic.StoreUint32(&t.connected, 0)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.connectionWrite != nil {
		t.connectionWrite.Write([]byte{sigDisconnect})
	}
	t.cleanup()
	t.initDone = false

	pkg.LogInfo(pkg.ComponentHAL, "fifo transport stopped")
	return nil
}

// cleanup closes all FIFOs and removes the device directory.
func (t *Transport) cleanup() {
	for _, f := range []**os.File{
		&t.hostToDeviceRead,
		&t.deviceToHostWrite,
		&t.interruptsWrite,
		&t.connectionWrite,
	} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
	if t.deviceDir != "" {
		os.RemoveAll(t.deviceDir)
	}
}

// SetControlHandler registers the handler Task delivers requests to.
func (t *Transport) SetControlHandler(h hal.ControlHandler) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.handler = h
}

// Ready returns true between Start and Stop.
func (t *Transport) Ready() bool {
	return atomic.LoadUint32(&t.connected) == 1
}

// Task waits up to the poll timeout for bytes on host_to_device and
// services every complete message received so far.
func (t *Transport) Task(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mutex.RLock()
	f := t.hostToDeviceRead
	handler := t.handler
	timeout := t.pollTimeout
	t.mutex.RUnlock()

	if f == nil {
		return pkg.ErrNotConfigured
	}

	f.SetReadDeadline(time.Now().Add(timeout))
	n, err := f.Read(t.readBuf[:])
	if n > 0 {
		t.rx = append(t.rx, t.readBuf[:n]...)
	}
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("read %s: %w", fifoHostToDevice, err)
	}

	for {
		msgType, payload, size, ok := t.nextMessage()
		if !ok {
			break
		}
		t.dispatch(ctx, handler, msgType, payload)
		t.rx = append(t.rx[:0], t.rx[size:]...)
	}
	return nil
}

// nextMessage returns the first complete message buffered in rx. Bytes
// that do not start a valid header are dropped one at a time until one
// does, so messages queued behind a corrupt header survive.
func (t *Transport) nextMessage() (msgType byte, payload []byte, size int, ok bool) {
	skipped := 0
	for len(t.rx) >= headerSize && !validHeader(t.rx) {
		t.rx = t.rx[1:]
		skipped++
	}
	if skipped > 0 {
		pkg.LogWarn(pkg.ComponentHAL, "invalid message header discarded", "bytes", skipped)
	}
	if len(t.rx) < headerSize {
		return 0, nil, 0, false
	}
	length := int(binary.LittleEndian.Uint16(t.rx[1:3]))
	size = headerSize + length
	if len(t.rx) < size {
		return 0, nil, 0, false
	}
	return t.rx[0], t.rx[headerSize:size], size, true
}

func validHeader(b []byte) bool {
	switch b[0] {
	case msgSetup, msgData, msgAck, msgNak, msgStall, msgReset, msgAddress:
	default:
		return false
	}
	return int(binary.LittleEndian.Uint16(b[1:3])) <= 1+hal.SetupPacketSize+MaxPacketSize
}

func (t *Transport) dispatch(ctx context.Context, handler hal.ControlHandler, msgType byte, payload []byte) {
	switch msgType {
	case msgSetup:
		t.handleSetup(ctx, handler, payload)

	case msgReset:
		pkg.LogDebug(pkg.ComponentHAL, "port reset received")
		t.reply(ctx, msgAck, nil)

	case msgAddress:
		if len(payload) >= 1 {
			t.mutex.Lock()
			t.address = payload[0]
			t.mutex.Unlock()
			pkg.LogDebug(pkg.ComponentHAL, "address set", "address", payload[0])
		}
		t.reply(ctx, msgAck, nil)

	default:
		pkg.LogWarn(pkg.ComponentHAL, "unexpected message type", "type", msgType)
	}
}

// handleSetup serves one SETUP message: [address, setup(8), data...].
func (t *Transport) handleSetup(ctx context.Context, handler hal.ControlHandler, payload []byte) {
	var setup hal.SetupPacket
	if len(payload) < 1 || hal.ParseSetupPacket(payload[1:], &setup) != nil {
		pkg.LogWarn(pkg.ComponentHAL, "short setup message", "len", len(payload))
		t.reply(ctx, msgStall, nil)
		return
	}
	if handler == nil {
		t.reply(ctx, msgStall, nil)
		return
	}
	data := payload[1+hal.SetupPacketSize:]

	pkg.LogDebug(pkg.ComponentHAL, "setup received",
		"reqType", setup.RequestType,
		"req", setup.Request,
		"value", setup.Value,
		"length", setup.Length)

	resp := t.resp[:min(int(setup.Length), MaxPacketSize)]
	n, err := handler.HandleSetup(&setup, data, resp)
	switch {
	case err != nil:
		if !errors.Is(err, pkg.ErrStall) {
			pkg.LogWarn(pkg.ComponentHAL, "control request failed", "error", err)
		}
		t.reply(ctx, msgStall, nil)
	case setup.IsDeviceToHost():
		t.reply(ctx, msgData, resp[:n])
	default:
		t.reply(ctx, msgAck, nil)
	}
}

func (t *Transport) reply(ctx context.Context, msgType byte, data []byte) {
	t.mutex.RLock()
	f := t.deviceToHostWrite
	t.mutex.RUnlock()
	if f == nil {
		return
	}
	if err := t.sendMessage(ctx, f, msgType, data); err != nil {
		pkg.LogWarn(pkg.ComponentHAL, "failed to send control response", "type", msgType, "error", err)
	}
}

// SendReport writes one input report to the interrupts FIFO.
func (t *Transport) SendReport(ctx context.Context, data []byte) error {
	if !t.Ready() {
		return pkg.ErrNotReady
	}
	t.mutex.RLock()
	f := t.interruptsWrite
	t.mutex.RUnlock()
	if f == nil {
		return pkg.ErrNotConfigured
	}
	return t.sendMessage(ctx, f, msgData, data)
}

// Address returns the address last assigned by the host.
func (t *Transport) Address() uint8 {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.address
}

// DeviceDir returns the device subdirectory path.
func (t *Transport) DeviceDir() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.deviceDir
}

// UUID returns the device's unique identifier.
func (t *Transport) UUID() string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.uuid
}

// createFIFO creates a named pipe in the device directory.
func (t *Transport) createFIFO(name string) error {
	path := filepath.Join(t.deviceDir, name)
	os.Remove(path)
	if err := syscall.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}
	return nil
}

// openFIFO opens a named pipe with the given flags.
func (t *Transport) openFIFO(name string, flag int) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(t.deviceDir, name), flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// sendMessage writes [type, len_lo, len_hi, data...] as one write.
func (t *Transport) sendMessage(ctx context.Context, f *os.File, msgType byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n := min(len(data), MaxPacketSize)
	buf := t.writeBuf[:headerSize+n]
	buf[0] = msgType
	binary.LittleEndian.PutUint16(buf[1:3], uint16(n))
	copy(buf[headerSize:], data[:n])

	t.mutex.RLock()
	timeout := t.writeTimeout
	t.mutex.RUnlock()

	f.SetWriteDeadline(time.Now().Add(timeout))
	written := 0
	for written < len(buf) {
		m, err := f.Write(buf[written:])
		written += m
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("%w: pipe full", pkg.ErrTimeout)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Compile-time interface check
var _ hal.Transport = (*Transport)(nil)
