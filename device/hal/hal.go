package hal

import (
	"context"
	"time"
)

// ErasedByte is the value of every byte of an erased NOR flash sector.
const ErasedByte = 0xFF

// Flash is a single NOR flash sector dedicated to calibration data.
//
// Offsets are relative to the start of the sector. Programming can only
// clear bits; restoring them requires erasing the whole sector.
type Flash interface {
	// SectorSize returns the size of the erasable sector in bytes.
	SectorSize() int

	// PageSize returns the size of the programmable page in bytes.
	PageSize() int

	// ReadAt reads len(buf) bytes starting at offset.
	ReadAt(buf []byte, offset int) error

	// EraseSector sets every byte of the sector to ErasedByte.
	EraseSector() error

	// ProgramPage writes one full page at offset, which must be page-aligned.
	ProgramPage(offset int, data []byte) error
}

// InterruptState is the opaque interrupt mask returned by Disable.
type InterruptState uintptr

// Interrupts masks and restores interrupts around flash operations.
type Interrupts interface {
	// Disable masks interrupts and returns the previous state.
	Disable() InterruptState

	// Restore reinstates a state previously returned by Disable.
	Restore(InterruptState)
}

// ADC samples the analog force sensor inputs.
type ADC interface {
	// Read returns the raw conversion for channel ch.
	Read(ch int) (uint16, error)

	// Resolution returns the number of significant bits in a raw reading.
	Resolution() uint8
}

// Clock is a monotonic time source measured from boot.
type Clock interface {
	Now() time.Duration
}

// ControlHandler answers control requests addressed to the pad interface.
type ControlHandler interface {
	// HandleSetup processes one control request. For device-to-host
	// requests the response is written to resp and its length returned.
	// For host-to-device requests data holds the OUT stage payload.
	// A returned pkg.ErrStall makes the transport stall the request.
	HandleSetup(setup *SetupPacket, data []byte, resp []byte) (int, error)
}

// Transport moves control requests and input reports between the pad and
// the host.
//
// The pad runs a single-threaded super-loop: Task is called once per
// iteration and delivers any pending control request to the registered
// handler on the calling goroutine.
type Transport interface {
	// SetControlHandler registers the handler for control requests.
	SetControlHandler(h ControlHandler)

	// Task services pending transport work without blocking.
	Task(ctx context.Context) error

	// Ready returns true when an input report can be queued.
	Ready() bool

	// SendReport queues one input report, report ID first.
	SendReport(ctx context.Context, data []byte) error
}

// Identity is what the pad reports about itself during enumeration and what
// host tools filter on.
type Identity struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
	UsagePage    uint16 // Top-level usage page of the configuration collection
	Usage        uint16 // Top-level usage of the configuration collection
}

// WithInterruptsDisabled runs fn with interrupts masked. The previous
// interrupt state is restored on every return path, including a panic
// inside fn.
func WithInterruptsDisabled(irq Interrupts, fn func() error) error {
	state := irq.Disable()
	defer irq.Restore(state)
	return fn()
}
