// Package hal defines the host-side boundary to HID devices.
//
// Host tools only need three things from a platform: list HID interfaces,
// open one, and exchange feature reports with it. [HostHAL] and [Device]
// capture exactly that, so the pad client runs unchanged over hidapi
// (host/hal/hidapi), Linux hidraw (host/hal/linux) or the named-pipe bus of
// a simulated pad (host/hal/fifo).
//
// Report buffers carry the report ID in byte 0, as hidapi and hidraw do.
//
// # Example
//
//	backend := hidapi.New()
//	if err := backend.Init(ctx); err != nil {
//	    return err
//	}
//	defer backend.Close()
//
//	infos, err := backend.Enumerate(0x16C0, 0x27D9)
//	dev, err := backend.Open(infos[0].Path)
//	buf := []byte{2, 0, 0, 0, 0}
//	n, err := dev.GetFeatureReport(buf)
package hal
