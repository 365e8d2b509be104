// Package protocol answers the pad's feature report requests.
//
// Two feature reports exist: sensors (read-only) and thresholds
// (read/write). Everything else is refused on GET and ignored on SET, and
// no failure is ever reported back to the host beyond a stall.
package protocol

import (
	"github.com/ardnew/fsrpad/device/class/hid"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// State is the pad state the protocol reads and writes.
type State interface {
	Sensors() report.SensorReading
	Thresholds() report.ThresholdVector

	// ApplyThresholds replaces the thresholds and persists them.
	ApplyThresholds(v report.ThresholdVector) error
}

// Handler implements hid.ReportHandler for the pad's reports.
type Handler struct {
	state State
}

// New creates a handler over state.
func New(state State) *Handler {
	return &Handler{state: state}
}

// GetReport writes the payload of a feature report to buf.
// Returns 0 for any report it does not serve or when buf is too small.
func (h *Handler) GetReport(reportType, reportID uint8, buf []byte) int {
	if reportType != hid.ReportTypeFeature {
		return 0
	}

	switch reportID {
	case report.IDSensors:
		r := report.SensorsReport{Sensors: h.state.Sensors()}
		return r.MarshalTo(buf)

	case report.IDThresholds:
		r := report.ThresholdsReport{Thresholds: h.state.Thresholds()}
		return r.MarshalTo(buf)

	default:
		return 0
	}
}

// SetReport accepts a thresholds feature report. Short payloads and
// payloads equal to the current thresholds are dropped, so flash is only
// written when a value actually changes.
func (h *Handler) SetReport(reportType, reportID uint8, data []byte) {
	if reportType != hid.ReportTypeFeature || reportID != report.IDThresholds {
		return
	}

	r, ok := report.UnmarshalThresholds(data)
	if !ok {
		pkg.LogDebug(pkg.ComponentProtocol, "short thresholds report dropped", "len", len(data))
		return
	}
	if r.Thresholds == h.state.Thresholds() {
		return
	}

	if err := h.state.ApplyThresholds(r.Thresholds); err != nil {
		pkg.LogError(pkg.ComponentProtocol, "failed to persist thresholds",
			"thresholds", r.Thresholds[:],
			"error", err)
		return
	}
	pkg.LogInfo(pkg.ComponentProtocol, "thresholds updated", "thresholds", r.Thresholds[:])
}

// Compile-time interface check
var _ hid.ReportHandler = (*Handler)(nil)
