package host

import (
	"fmt"
	"sync"

	"github.com/ardnew/fsrpad/host/hal"
	"github.com/ardnew/fsrpad/pkg"
)

// Selector cycles through the pads matching a filter and owns the one
// currently open.
type Selector struct {
	mutex   sync.Mutex
	backend hal.HostHAL
	filter  Filter

	entries []hal.DeviceInfo
	index   int // Position of current in entries, -1 before the first Next
	current *Pad
}

// NewSelector creates a selector. No device is opened until Next.
func NewSelector(backend hal.HostHAL, filter Filter) *Selector {
	return &Selector{backend: backend, filter: filter, index: -1}
}

// Next opens the next matching pad after the current one and closes the
// current one. At the end of the list it enumerates again and continues
// from the start, once. If nothing else can be opened, or enumeration
// fails, the current pad is kept; with no current pad Next fails.
func (s *Selector) Next() (*Pad, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := s.index + 1
	for pass := 0; pass < 2; pass++ {
		for i := start; i < len(s.entries); i++ {
			info := s.entries[i]
			if !s.filter.Match(info) {
				continue
			}
			if s.current != nil && s.current.info.Path == info.Path {
				s.index = i
				return s.current, nil
			}
			pad, err := Open(s.backend, info)
			if err != nil {
				pkg.LogWarn(pkg.ComponentHost, "skipping device", "device", info.String(), "error", err)
				continue
			}
			if s.current != nil {
				s.current.Close()
			}
			s.current = pad
			s.index = i
			return pad, nil
		}
		if pass == 0 {
			if err := s.refresh(); err != nil {
				if s.current == nil {
					return nil, err
				}
				pkg.LogWarn(pkg.ComponentHost, "keeping current device", "device", s.current.info.String(), "error", err)
				return s.current, nil
			}
			start = 0
		}
	}

	if s.current != nil {
		return s.current, nil
	}
	return nil, fmt.Errorf("%+v: %w", s.filter, pkg.ErrNoDevice)
}

// refresh re-enumerates. Caller holds the mutex.
func (s *Selector) refresh() error {
	entries, err := s.backend.Enumerate(s.filter.VendorID, s.filter.ProductID)
	if err != nil {
		return fmt.Errorf("enumerate: %w", err)
	}
	s.entries = entries
	s.index = -1
	pkg.LogDebug(pkg.ComponentHost, "enumerated", "count", len(entries))
	return nil
}

// Current returns the open pad, or nil.
func (s *Selector) Current() *Pad {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.current
}

// Close closes the current pad.
func (s *Selector) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	s.index = -1
	return err
}
