package pkg

import "errors"

// Control transfer errors.
var (
	// ErrStall indicates the device refused a control request.
	ErrStall = errors.New("endpoint stalled")

	// ErrNAK indicates the device was not ready to answer.
	ErrNAK = errors.New("NAK received")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrCancelled indicates a cancelled transfer.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrProtocol indicates a malformed message on the wire.
	ErrProtocol = errors.New("protocol error")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")
)

// Device and transport errors.
var (
	// ErrNoDevice indicates no matching pad is present.
	ErrNoDevice = errors.New("device not present")

	// ErrNotConfigured indicates a transport or HAL used before Init.
	ErrNotConfigured = errors.New("not configured")

	// ErrNotReady indicates the transport cannot accept an input report yet.
	ErrNotReady = errors.New("transport not ready")

	// ErrAlreadyRunning indicates Init was called twice.
	ErrAlreadyRunning = errors.New("already running")

	// ErrInvalidRequest indicates an invalid or unsupported request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")
)

// Calibration data errors.
var (
	// ErrInvalidGeometry indicates a flash sector/page layout the
	// calibration log cannot use.
	ErrInvalidGeometry = errors.New("invalid flash geometry")

	// ErrOutOfRange indicates a flash access outside the calibration sector.
	ErrOutOfRange = errors.New("flash access out of range")

	// ErrNotErased indicates a sector erase did not leave the erased pattern.
	ErrNotErased = errors.New("flash not erased")

	// ErrShortReport indicates a feature report shorter than its payload.
	ErrShortReport = errors.New("short report")

	// ErrInvalidChannel indicates a channel index outside 0..3.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrInvalidProfile indicates a missing profile name or a profile file of
	// the wrong size.
	ErrInvalidProfile = errors.New("invalid profile")
)

// ControlStatus is the completion status of a control request as seen by
// the host.
type ControlStatus int

// Control status values.
const (
	ControlStatusAck   ControlStatus = iota // Status stage completed, no data
	ControlStatusData                       // Data stage completed
	ControlStatusStall                      // Request refused
	ControlStatusNAK                        // Device busy
	ControlStatusError                      // Anything else
)

// String returns a string representation of the control status.
func (s ControlStatus) String() string {
	switch s {
	case ControlStatusAck:
		return "ack"
	case ControlStatusData:
		return "data"
	case ControlStatusStall:
		return "stall"
	case ControlStatusNAK:
		return "nak"
	case ControlStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the control status.
func (s ControlStatus) Error() error {
	switch s {
	case ControlStatusAck, ControlStatusData:
		return nil
	case ControlStatusStall:
		return ErrStall
	case ControlStatusNAK:
		return ErrNAK
	default:
		return ErrProtocol
	}
}
