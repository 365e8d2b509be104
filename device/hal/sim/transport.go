package sim

import (
	"context"
	"errors"
	"sync"

	"github.com/ardnew/fsrpad/device/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// maxControlSize bounds a single control transfer.
const maxControlSize = 64

// Response is the outcome of a control request delivered by Transport.
type Response struct {
	Data  []byte // IN stage data, nil for OUT requests
	Stall bool
	Err   error // Non-stall handler error
}

type pendingRequest struct {
	setup hal.SetupPacket
	data  []byte
	done  chan Response
}

// Transport is an in-process stand-in for the USB device controller.
//
// Control requests submitted with Control are queued and delivered to the
// handler from Task, on the caller's goroutine, just like a hardware
// controller's interrupt callbacks deferred to the main loop.
type Transport struct {
	mutex   sync.Mutex
	handler hal.ControlHandler
	ready   bool
	queue   []pendingRequest
	reports [][]byte
	resp    [maxControlSize]byte
}

// NewTransport creates a transport in the ready state.
func NewTransport() *Transport {
	return &Transport{ready: true}
}

// SetControlHandler registers the control request handler.
func (t *Transport) SetControlHandler(h hal.ControlHandler) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.handler = h
}

// SetReady sets the value reported by Ready.
func (t *Transport) SetReady(ready bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.ready = ready
}

// Ready returns true when input reports are accepted.
func (t *Transport) Ready() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.ready
}

// Submit queues a control request and returns a channel that receives its
// response once Task has delivered it.
func (t *Transport) Submit(setup hal.SetupPacket, data []byte) <-chan Response {
	done := make(chan Response, 1)
	t.mutex.Lock()
	t.queue = append(t.queue, pendingRequest{
		setup: setup,
		data:  append([]byte(nil), data...),
		done:  done,
	})
	t.mutex.Unlock()
	return done
}

// Task delivers every queued control request to the handler.
func (t *Transport) Task(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mutex.Lock()
	queue := t.queue
	t.queue = nil
	handler := t.handler
	t.mutex.Unlock()

	for _, req := range queue {
		if handler == nil {
			req.done <- Response{Err: pkg.ErrNotConfigured}
			continue
		}
		n, err := handler.HandleSetup(&req.setup, req.data, t.resp[:min(int(req.setup.Length), maxControlSize)])
		switch {
		case errors.Is(err, pkg.ErrStall):
			req.done <- Response{Stall: true}
		case err != nil:
			req.done <- Response{Err: err}
		case req.setup.IsDeviceToHost():
			req.done <- Response{Data: append([]byte(nil), t.resp[:n]...)}
		default:
			req.done <- Response{}
		}
	}
	return nil
}

// SendReport records an input report.
func (t *Transport) SendReport(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !t.ready {
		return pkg.ErrNotReady
	}
	t.reports = append(t.reports, append([]byte(nil), data...))
	return nil
}

// Reports returns and clears the input reports sent so far.
func (t *Transport) Reports() [][]byte {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	r := t.reports
	t.reports = nil
	return r
}

// Compile-time interface check
var _ hal.Transport = (*Transport)(nil)
