package report

// SensorsReport is the payload of feature report IDSensors.
type SensorsReport struct {
	Sensors SensorReading
}

// MarshalTo writes the report payload to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *SensorsReport) MarshalTo(buf []byte) int {
	if len(buf) < Size {
		return 0
	}
	return copy(buf, r.Sensors[:])
}

// UnmarshalSensors parses a SensorsReport payload.
// Returns false if data is too short.
func UnmarshalSensors(data []byte) (SensorsReport, bool) {
	var r SensorsReport
	if len(data) < Size {
		return r, false
	}
	copy(r.Sensors[:], data[:Size])
	return r, true
}

// ThresholdsReport is the payload of feature report IDThresholds.
type ThresholdsReport struct {
	Thresholds ThresholdVector
}

// MarshalTo writes the report payload to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *ThresholdsReport) MarshalTo(buf []byte) int {
	if len(buf) < Size {
		return 0
	}
	return copy(buf, r.Thresholds[:])
}

// UnmarshalThresholds parses a ThresholdsReport payload. Bytes past the
// fourth are ignored.
// Returns false if data is too short.
func UnmarshalThresholds(data []byte) (ThresholdsReport, bool) {
	var r ThresholdsReport
	if len(data) < Size {
		return r, false
	}
	copy(r.Thresholds[:], data[:Size])
	return r, true
}

// ButtonsReport is the payload of input report IDButtons: a single byte
// holding the button bitmask, upper four bits zero.
type ButtonsReport struct {
	Buttons ButtonState
}

// MarshalTo writes the report payload to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *ButtonsReport) MarshalTo(buf []byte) int {
	if len(buf) < ButtonsSize {
		return 0
	}
	buf[0] = byte(r.Buttons & ButtonMask)
	return ButtonsSize
}

// UnmarshalButtons parses a ButtonsReport payload. Bits above the fourth
// channel are discarded.
// Returns false if data is empty.
func UnmarshalButtons(data []byte) (ButtonsReport, bool) {
	if len(data) < ButtonsSize {
		return ButtonsReport{}, false
	}
	return ButtonsReport{Buttons: ButtonState(data[0]) & ButtonMask}, true
}
