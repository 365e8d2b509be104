// Package fifo implements the host HAL over the named-pipe bus served by
// device/hal/fifo, so the host tools can drive a simulated pad with no USB
// hardware.
//
// # Discovery
//
// Every device-* subdirectory of the bus directory that holds an identity
// file is a device:
//
//	/tmp/fsrpad/
//	├── device-a1b2c3d4/
//	│   ├── identity          # vendor_id=16c0, product_id=27d9, ...
//	│   ├── host_to_device    # Host → pad SETUP messages
//	│   └── device_to_host    # Pad → host DATA/ACK/STALL
//	└── device-e5f6a7b8/
//	    └── ...
//
// # Feature reports
//
// GetFeatureReport and SendFeatureReport become GET_REPORT and SET_REPORT
// class requests. Each request is one message [0x01, len_lo, len_hi,
// address, setup(8), data...] and the pad answers with exactly one DATA,
// ACK or STALL message. A STALL surfaces as pkg.ErrStall.
package fifo
