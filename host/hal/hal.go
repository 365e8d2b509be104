package hal

import (
	"context"
	"fmt"
)

// DeviceInfo describes one HID interface found during enumeration.
type DeviceInfo struct {
	Path         string // Backend-specific handle passed to Open
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
	UsagePage    uint16 // Top-level usage page, 0 if the backend cannot tell
	Usage        uint16 // Top-level usage, 0 if the backend cannot tell
	Interface    int    // Interface number, -1 if unknown
}

// String returns a short human-readable description.
func (d DeviceInfo) String() string {
	name := d.Product
	if name == "" {
		name = "HID device"
	}
	return fmt.Sprintf("%s [%04x:%04x] %s", name, d.VendorID, d.ProductID, d.Path)
}

// HostHAL discovers and opens HID devices.
//
// Implementations wrap a platform HID API: hidapi, Linux hidraw, or the
// named-pipe bus used to talk to a simulated pad.
type HostHAL interface {
	// Init prepares the backend. It must be called before Enumerate.
	Init(ctx context.Context) error

	// Enumerate lists HID interfaces. A zero vendorID or productID matches
	// any value.
	Enumerate(vendorID, productID uint16) ([]DeviceInfo, error)

	// Open opens the device at path (DeviceInfo.Path).
	Open(path string) (Device, error)

	// Close releases backend resources. Devices already opened stay usable
	// until closed.
	Close() error
}

// Device is an open HID device.
//
// Report buffers follow the hidapi convention: byte 0 is the report ID and
// the payload follows.
type Device interface {
	// GetFeatureReport reads the feature report whose ID is in buf[0].
	// Returns the number of bytes written to buf, report ID included.
	GetFeatureReport(buf []byte) (int, error)

	// SendFeatureReport writes a feature report, report ID in data[0].
	// Returns the number of bytes sent.
	SendFeatureReport(data []byte) (int, error)

	// Close closes the device.
	Close() error
}

// SetupPacket is a USB SETUP packet, used by backends that issue class
// requests themselves.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// HID class request values used for feature reports.
const (
	RequestGetReport  = 0x01
	RequestSetReport  = 0x09
	ReportTypeFeature = 0x03
)

// Request type bytes for interface-directed class requests.
const (
	requestTypeClassIn  = 0xA1 // Device-to-host, class, interface
	requestTypeClassOut = 0x21 // Host-to-device, class, interface
)

// GetFeatureRequest builds a GET_REPORT(Feature) request for interface
// iface. length includes the report ID byte.
func GetFeatureRequest(reportID uint8, iface uint16, length uint16) SetupPacket {
	return SetupPacket{
		RequestType: requestTypeClassIn,
		Request:     RequestGetReport,
		Value:       ReportTypeFeature<<8 | uint16(reportID),
		Index:       iface,
		Length:      length,
	}
}

// SetFeatureRequest builds a SET_REPORT(Feature) request for interface
// iface. length includes the report ID byte.
func SetFeatureRequest(reportID uint8, iface uint16, length uint16) SetupPacket {
	return SetupPacket{
		RequestType: requestTypeClassOut,
		Request:     RequestSetReport,
		Value:       ReportTypeFeature<<8 | uint16(reportID),
		Index:       iface,
		Length:      length,
	}
}

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// MarshalTo writes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	buf[2] = byte(s.Value)
	buf[3] = byte(s.Value >> 8)
	buf[4] = byte(s.Index)
	buf[5] = byte(s.Index >> 8)
	buf[6] = byte(s.Length)
	buf[7] = byte(s.Length >> 8)
	return SetupPacketSize
}

// IsDeviceToHost returns true for IN requests.
func (s *SetupPacket) IsDeviceToHost() bool {
	return s.RequestType&0x80 != 0
}
