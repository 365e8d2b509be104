// Package host is the companion side of an FSR pad: it finds pads through
// a [hal.HostHAL] backend and reads and writes their feature reports.
//
// The backend is chosen by the caller (hidapi, Linux hidraw, or the named
// pipe bus of a simulated pad), so the same code drives real hardware and
// simulations.
//
// # Discovery
//
// A [Filter] narrows enumeration to pad collections. Pads expose two
// top-level collections on one interface, a gamepad and a vendor-defined
// collection with usage 0xA0; only the latter carries the feature reports,
// so [PadFilter] matches on usage as well as vendor, product and
// manufacturer.
//
// [Selector] walks the matching devices one at a time. When the list is
// exhausted it enumerates again once before giving up, so pads plugged in
// after startup are picked up on the next switch.
//
// # Reports
//
// [Pad] wraps an open device:
//
//   - ReadSensors reads the smoothed sensor values (feature report 2)
//   - ReadThresholds reads the thresholds (feature report 3)
//   - WriteThresholds replaces the thresholds; the pad persists them
//
// Responses shorter than a full report fail with [pkg.ErrShortReport].
//
// # Example
//
//	backend := hidapi.NewHAL()
//	if err := backend.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	sel := host.NewSelector(backend, host.PadFilter())
//	defer sel.Close()
//
//	pad, err := sel.Next()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sensors, err := pad.ReadSensors()
package host
