package hid

import (
	"context"
	"sync"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// MaxReportSize is the maximum HID report size.
const MaxReportSize = 64

// ReportHandler supplies and consumes report payloads. Report IDs are
// handled by the class driver; the handler sees payloads only.
type ReportHandler interface {
	// GetReport writes the payload of the requested report to buf and
	// returns its length. Zero means the request is refused.
	GetReport(reportType, reportID uint8, buf []byte) int

	// SetReport consumes a report sent by the host.
	SetReport(reportType, reportID uint8, data []byte)
}

// HID implements the HID class on top of a hal.Transport.
type HID struct {
	transport hal.Transport
	handler   ReportHandler

	// Report descriptor (stored by reference)
	reportDescriptor []byte

	// HID descriptor
	hidDescriptor HIDDescriptor

	// State
	protocol uint8 // 0 = boot, 1 = report
	idleRate uint8 // Idle rate in 4ms units (0 = infinite)

	// Callbacks
	onSetProtocol func(protocol uint8)
	onSetIdle     func(rate uint8, reportID uint8)

	// Buffers (zero-allocation)
	reportBuf [MaxReportSize]byte

	mutex sync.RWMutex
}

// New creates a new HID class driver with the given report descriptor.
// The report descriptor is stored by reference.
func New(reportDescriptor []byte, handler ReportHandler) *HID {
	return &HID{
		handler:          handler,
		reportDescriptor: reportDescriptor,
		hidDescriptor: HIDDescriptor{
			Length:         HIDDescriptorSize,
			DescriptorType: DescriptorTypeHID,
			HIDVersion:     0x0111, // HID 1.11
			CountryCode:    CountryNone,
			NumDescriptors: 1,
			ReportDescType: DescriptorTypeReport,
			ReportDescLen:  uint16(len(reportDescriptor)),
		},
		protocol: ProtocolReport,
	}
}

// Attach registers the driver as the control handler of t and uses t for
// input reports.
func (h *HID) Attach(t hal.Transport) {
	h.mutex.Lock()
	h.transport = t
	h.mutex.Unlock()
	t.SetControlHandler(h)
}

// SetOnSetProtocol sets the callback for protocol changes.
func (h *HID) SetOnSetProtocol(cb func(protocol uint8)) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.onSetProtocol = cb
}

// SetOnSetIdle sets the callback for idle rate changes.
func (h *HID) SetOnSetIdle(cb func(rate uint8, reportID uint8)) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.onSetIdle = cb
}

// Protocol returns the current protocol (boot or report).
func (h *HID) Protocol() uint8 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.protocol
}

// IdleRate returns the current idle rate.
func (h *HID) IdleRate() uint8 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.idleRate
}

// ReportDescriptor returns the report descriptor.
func (h *HID) ReportDescriptor() []byte {
	return h.reportDescriptor
}

// HandleSetup processes a control request. Requests the driver does not
// understand are stalled.
func (h *HID) HandleSetup(setup *hal.SetupPacket, data []byte, resp []byte) (int, error) {
	// Handle standard requests for HID descriptors
	if setup.IsStandard() && setup.Request == hal.RequestGetDescriptor {
		return h.handleGetDescriptor(setup, resp)
	}

	if !setup.IsClass() {
		return 0, pkg.ErrStall
	}

	switch setup.Request {
	case RequestGetReport:
		return h.handleGetReport(setup, resp)

	case RequestSetReport:
		return h.handleSetReport(setup, data)

	case RequestGetIdle:
		return h.handleGetIdle(resp)

	case RequestSetIdle:
		return h.handleSetIdle(setup)

	case RequestGetProtocol:
		return h.handleGetProtocol(resp)

	case RequestSetProtocol:
		return h.handleSetProtocol(setup)

	default:
		return 0, pkg.ErrStall
	}
}

// handleGetDescriptor handles GET_DESCRIPTOR for HID and Report descriptors.
func (h *HID) handleGetDescriptor(setup *hal.SetupPacket, resp []byte) (int, error) {
	switch setup.ValueHigh() {
	case DescriptorTypeHID:
		var buf [HIDDescriptorSize]byte
		h.mutex.RLock()
		h.hidDescriptor.MarshalTo(buf[:])
		h.mutex.RUnlock()
		return copy(resp, buf[:]), nil

	case DescriptorTypeReport:
		return copy(resp, h.reportDescriptor), nil

	default:
		return 0, pkg.ErrStall
	}
}

// handleGetReport handles GET_REPORT request. The response carries the
// report ID first, followed by the handler's payload.
func (h *HID) handleGetReport(setup *hal.SetupPacket, resp []byte) (int, error) {
	reportType := setup.ValueHigh()
	reportID := setup.ValueLow()

	pkg.LogDebug(pkg.ComponentProtocol, "GET_REPORT",
		"type", reportType,
		"id", reportID,
		"length", setup.Length)

	if len(resp) < 1 || h.handler == nil {
		return 0, pkg.ErrStall
	}
	resp[0] = reportID
	n := h.handler.GetReport(reportType, reportID, resp[1:])
	if n == 0 {
		return 0, pkg.ErrStall
	}
	return 1 + n, nil
}

// handleSetReport handles SET_REPORT request. A leading byte equal to the
// report ID is stripped before the payload reaches the handler.
func (h *HID) handleSetReport(setup *hal.SetupPacket, data []byte) (int, error) {
	reportType := setup.ValueHigh()
	reportID := setup.ValueLow()

	pkg.LogDebug(pkg.ComponentProtocol, "SET_REPORT",
		"type", reportType,
		"id", reportID,
		"len", len(data))

	if reportID != 0 && len(data) > 0 && data[0] == reportID {
		data = data[1:]
	}
	if h.handler != nil {
		h.handler.SetReport(reportType, reportID, data)
	}
	return 0, nil
}

// handleGetIdle handles GET_IDLE request.
func (h *HID) handleGetIdle(resp []byte) (int, error) {
	if len(resp) < 1 {
		return 0, pkg.ErrStall
	}
	h.mutex.RLock()
	resp[0] = h.idleRate
	h.mutex.RUnlock()
	return 1, nil
}

// handleSetIdle handles SET_IDLE request.
func (h *HID) handleSetIdle(setup *hal.SetupPacket) (int, error) {
	rate := setup.ValueHigh()
	reportID := setup.ValueLow()

	h.mutex.Lock()
	h.idleRate = rate
	cb := h.onSetIdle
	h.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentProtocol, "SET_IDLE",
		"rate", rate,
		"reportID", reportID)

	if cb != nil {
		cb(rate, reportID)
	}
	return 0, nil
}

// handleGetProtocol handles GET_PROTOCOL request.
func (h *HID) handleGetProtocol(resp []byte) (int, error) {
	if len(resp) < 1 {
		return 0, pkg.ErrStall
	}
	h.mutex.RLock()
	resp[0] = h.protocol
	h.mutex.RUnlock()
	return 1, nil
}

// handleSetProtocol handles SET_PROTOCOL request.
func (h *HID) handleSetProtocol(setup *hal.SetupPacket) (int, error) {
	protocol := setup.ValueLow()

	h.mutex.Lock()
	h.protocol = protocol
	cb := h.onSetProtocol
	h.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentProtocol, "SET_PROTOCOL",
		"protocol", protocol)

	if cb != nil {
		cb(protocol)
	}
	return 0, nil
}

// Ready returns true when the transport accepts input reports.
func (h *HID) Ready() bool {
	h.mutex.RLock()
	t := h.transport
	h.mutex.RUnlock()
	return t != nil && t.Ready()
}

// SendReport sends input report id with the given payload.
func (h *HID) SendReport(ctx context.Context, id uint8, payload []byte) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.transport == nil {
		return pkg.ErrNotConfigured
	}
	if 1+len(payload) > len(h.reportBuf) {
		return pkg.ErrBufferTooSmall
	}
	h.reportBuf[0] = id
	n := copy(h.reportBuf[1:], payload)
	return h.transport.SendReport(ctx, h.reportBuf[:1+n])
}

// SendButtons sends the buttons input report.
func (h *HID) SendButtons(ctx context.Context, state report.ButtonState) error {
	var buf [report.ButtonsSize]byte
	r := report.ButtonsReport{Buttons: state}
	n := r.MarshalTo(buf[:])
	if n == 0 {
		return pkg.ErrBufferTooSmall
	}
	return h.SendReport(ctx, report.IDButtons, buf[:n])
}

// Compile-time interface check
var _ hal.ControlHandler = (*HID)(nil)
