// Package sim provides an in-memory [hal.HostHAL] whose devices behave like
// FSR pads at the feature report level.
//
// A [Pad] holds one payload per feature report ID. GET returns the stored
// payload behind the report ID; SET replaces it when the ID is writable.
// Unknown IDs stall, as the firmware does. Counters record opens, writes
// and closes so tests can assert what the companion did to the device.
package sim
