// Package fifo implements the pad transport over named pipes.
//
// It lets the pad firmware run as an ordinary process and be driven by the
// host tools through the host-side FIFO backend, with no USB hardware.
//
// # Layout
//
// Each pad creates a unique subdirectory under a shared bus directory:
//
//	/tmp/fsrpad/                     # Bus directory (shared with host)
//	└── device-{uuid}/
//	    ├── identity                 # key=value enumeration data
//	    ├── connection               # Connection signaling (pad → host)
//	    ├── host_to_device           # SETUP messages from host
//	    ├── device_to_host           # DATA/ACK/STALL responses
//	    └── interrupts               # Input reports (pad → host)
//
// # Messages
//
// Every message is [type, len_lo, len_hi, payload...]. A SETUP payload is
// [address, setup(8), data...], where data carries the OUT stage of a
// host-to-device request. The pad answers each SETUP with exactly one
// DATA (device-to-host), ACK (host-to-device) or STALL message.
//
// The connection FIFO carries 0x01 when the pad starts and 0x00 when it
// stops.
//
// # Usage
//
//	tr := fifo.New("/tmp/fsrpad", hid.PadIdentity("0001"))
//	if err := tr.Init(ctx); err != nil {
//	    return err
//	}
//	defer tr.Stop()
//
//	engine, err := pad.New(cfg, pad.Hardware{Transport: tr, ...})
//	tr.Start()
//	engine.Run(ctx)
//
// Input reports written to interrupts must be drained by the host; once the
// pipe is full SendReport fails with pkg.ErrTimeout.
package fifo
