package hid

import (
	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg/report"
)

// HID class code.
const (
	ClassHID = 0x03 // Human Interface Device Class
)

// HID subclass codes.
const (
	SubclassNone = 0x00 // No subclass
	SubclassBoot = 0x01 // Boot Interface Subclass
)

// HID descriptor types.
const (
	DescriptorTypeHID      = 0x21 // HID descriptor
	DescriptorTypeReport   = 0x22 // Report descriptor
	DescriptorTypePhysical = 0x23 // Physical descriptor
)

// HID class-specific requests.
const (
	RequestGetReport   = 0x01
	RequestGetIdle     = 0x02
	RequestGetProtocol = 0x03
	RequestSetReport   = 0x09
	RequestSetIdle     = 0x0A
	RequestSetProtocol = 0x0B
)

// HID report types (wValue high byte of GET_REPORT/SET_REPORT).
const (
	ReportTypeInput   = 0x01
	ReportTypeOutput  = 0x02
	ReportTypeFeature = 0x03
)

// Protocol values for GET_PROTOCOL/SET_PROTOCOL.
const (
	ProtocolBoot   = 0x00 // Boot protocol
	ProtocolReport = 0x01 // Report protocol
)

// CountryNone is the country code of a device without localized hardware.
const CountryNone = 0x00

// HIDDescriptor is the HID class descriptor.
type HIDDescriptor struct {
	Length         uint8  // Size of this descriptor (9)
	DescriptorType uint8  // HID (0x21)
	HIDVersion     uint16 // HID specification release number (0x0111 for 1.11)
	CountryCode    uint8  // Country code
	NumDescriptors uint8  // Number of class descriptors (at least 1)
	ReportDescType uint8  // Report descriptor type (0x22)
	ReportDescLen  uint16 // Total size of report descriptor
}

// HIDDescriptorSize is the size of the HID descriptor.
const HIDDescriptorSize = 9

// MarshalTo writes the HID descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *HIDDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < HIDDescriptorSize {
		return 0
	}
	buf[0] = HIDDescriptorSize
	buf[1] = DescriptorTypeHID
	buf[2] = byte(d.HIDVersion)
	buf[3] = byte(d.HIDVersion >> 8)
	buf[4] = d.CountryCode
	buf[5] = d.NumDescriptors
	buf[6] = DescriptorTypeReport
	buf[7] = byte(d.ReportDescLen)
	buf[8] = byte(d.ReportDescLen >> 8)
	return HIDDescriptorSize
}

// Pad identity values.
const (
	PadVendorID     = 0x16C0
	PadProductID    = 0x27D9
	PadManufacturer = "http://pubby.games"
	PadProduct      = "FSR Pad"
	PadUsagePage    = 0xFF00
	PadUsage        = 0xA0
)

// PadIdentity returns the identity the pad enumerates with.
func PadIdentity(serial string) hal.Identity {
	return hal.Identity{
		VendorID:     PadVendorID,
		ProductID:    PadProductID,
		Manufacturer: PadManufacturer,
		Product:      PadProduct,
		Serial:       serial,
		UsagePage:    PadUsagePage,
		Usage:        PadUsage,
	}
}

// PadReportDescriptor describes two top-level collections: a four-button
// gamepad sending input report 1, and a vendor collection (usage 0xA0)
// holding feature report 2 (sensors, read-only) and feature report 3
// (thresholds, read/write).
var PadReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x05, // Usage (Game Pad)
	0xA1, 0x01, // Collection (Application)
	0x85, report.IDButtons, //   Report ID (1)
	0x05, 0x09, //   Usage Page (Button)
	0x19, 0x01, //   Usage Minimum (Button 1)
	0x29, report.NumChannels, //   Usage Maximum (Button 4)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x95, report.NumChannels, //   Report Count (4)
	0x75, 0x01, //   Report Size (1)
	0x81, 0x02, //   Input (Data, Variable, Absolute) - Button bits
	0x95, 0x01, //   Report Count (1)
	0x75, 0x08 - report.NumChannels, //   Report Size (4)
	0x81, 0x01, //   Input (Constant) - Padding
	0xC0, // End Collection

	0x06, 0x00, 0xFF, // Usage Page (Vendor Defined 0xFF00)
	0x09, PadUsage, // Usage (0xA0)
	0xA1, 0x01, // Collection (Application)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xFF, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //   Report Size (8)
	0x95, report.Size, //   Report Count (4)
	0x85, report.IDSensors, //   Report ID (2)
	0x09, 0x01, //   Usage (Sensors)
	0xB1, 0x03, //   Feature (Constant, Variable, Absolute)
	0x85, report.IDThresholds, //   Report ID (3)
	0x09, 0x02, //   Usage (Thresholds)
	0xB1, 0x02, //   Feature (Data, Variable, Absolute)
	0xC0, // End Collection
}

// GetReportRequest builds the SETUP packet of a GET_REPORT request for
// interface 0. length includes the report ID byte.
func GetReportRequest(reportType, reportID uint8, length uint16) hal.SetupPacket {
	return hal.SetupPacket{
		RequestType: hal.RequestDirectionDeviceToHost | hal.RequestTypeClass | hal.RequestRecipientInterface,
		Request:     RequestGetReport,
		Value:       uint16(reportType)<<8 | uint16(reportID),
		Length:      length,
	}
}

// SetReportRequest builds the SETUP packet of a SET_REPORT request for
// interface 0. length includes the report ID byte.
func SetReportRequest(reportType, reportID uint8, length uint16) hal.SetupPacket {
	return hal.SetupPacket{
		RequestType: hal.RequestDirectionHostToDevice | hal.RequestTypeClass | hal.RequestRecipientInterface,
		Request:     RequestSetReport,
		Value:       uint16(reportType)<<8 | uint16(reportID),
		Length:      length,
	}
}
