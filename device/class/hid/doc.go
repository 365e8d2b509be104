// Package hid implements the USB Human Interface Device (HID) class
// requests the pad answers on its control endpoint.
//
// The driver sits between a [hal.Transport] and a [ReportHandler]:
//
//   - GET_REPORT responses start with the report ID byte, followed by the
//     handler's payload; a zero-length payload stalls the request
//   - SET_REPORT strips a leading report ID byte before the handler sees
//     the payload, so hosts that include the ID and hosts that omit it
//     both work
//   - GET_IDLE, SET_IDLE, GET_PROTOCOL and SET_PROTOCOL keep local state
//   - standard GET_DESCRIPTOR returns the HID and report descriptors
//
// # Zero-Allocation Design
//
//   - Fixed-size buffer for input reports
//   - Responses are written into the transport's buffer
//   - Report descriptors are stored by reference, not copied
//
// # Usage
//
//	class := hid.New(hid.PadReportDescriptor, handler)
//	class.Attach(transport)
//
//	for {
//	    transport.Task(ctx) // delivers control requests to class
//	    if changed {
//	        class.SendButtons(ctx, state)
//	    }
//	}
//
// # Report Descriptor
//
// [PadReportDescriptor] declares a four-button gamepad (input report 1)
// and a vendor collection with usage 0xA0 carrying the sensors (2) and
// thresholds (3) feature reports. Host tools select the pad by that usage
// together with [PadVendorID], [PadProductID] and [PadManufacturer].
package hid
