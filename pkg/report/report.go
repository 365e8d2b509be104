// Package report defines the pad's data model and the byte layout of its
// HID reports.
//
// Feature report payloads are exactly [NumChannels] bytes, one per channel,
// with channel 0 first. The buttons input report is a single bitmask byte.
// The report ID is not part of the payload; it is carried by the transport
// (wValue low byte on the device, buffer index 0 on the host).
package report

// NumChannels is the number of force sensors and buttons on a pad.
const NumChannels = 4

// Size is the payload size of the sensors and thresholds feature reports.
const Size = NumChannels

// ButtonsSize is the payload size of the buttons input report.
const ButtonsSize = 1

// Report IDs.
const (
	IDButtons    uint8 = 1 // Input report: pressed buttons
	IDSensors    uint8 = 2 // Feature report: smoothed sensor values (read-only)
	IDThresholds uint8 = 3 // Feature report: thresholds (read/write)
)

// DefaultThreshold is the threshold used when no calibration was stored.
const DefaultThreshold uint8 = 127

// ButtonMask covers the meaningful bits of a ButtonState.
const ButtonMask ButtonState = 1<<NumChannels - 1

// SensorReading holds the smoothed force per channel. Higher means more
// pressure.
type SensorReading [NumChannels]uint8

// ThresholdVector holds the press/release boundary per channel.
type ThresholdVector [NumChannels]uint8

// ButtonState holds one bit per channel in the low four bits. A set bit is
// a pressed button.
type ButtonState uint8

// DefaultThresholds returns a vector with every channel at DefaultThreshold.
func DefaultThresholds() ThresholdVector {
	var v ThresholdVector
	for i := range v {
		v[i] = DefaultThreshold
	}
	return v
}

// Pressed reports whether channel ch is pressed.
func (b ButtonState) Pressed(ch int) bool {
	if ch < 0 || ch >= NumChannels {
		return false
	}
	return b&(1<<ch) != 0
}

// With returns b with channel ch set or cleared.
func (b ButtonState) With(ch int, pressed bool) ButtonState {
	if ch < 0 || ch >= NumChannels {
		return b
	}
	if pressed {
		return b | 1<<ch
	}
	return b &^ (1 << ch)
}

// String renders the state as four characters, channel 0 first, 'X' for
// pressed and '.' for released.
func (b ButtonState) String() string {
	var s [NumChannels]byte
	for i := range s {
		if b.Pressed(i) {
			s[i] = 'X'
		} else {
			s[i] = '.'
		}
	}
	return string(s[:])
}
