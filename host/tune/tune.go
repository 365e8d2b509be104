// Package tune holds the threshold editing session of the companion tool:
// the selected line, step adjustments, calibration against live readings,
// and threshold profiles on disk.
//
// Edits are made to a local copy. They reach the pad on Flush, which the
// caller runs before switching pads and before quitting.
package tune

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardnew/fsrpad/host"
	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/config"
	"github.com/ardnew/fsrpad/pkg/report"
)

// ProfileExt is appended to every profile name.
const ProfileExt = ".fsr"

// Options configures a Session.
type Options struct {
	FineStep   int
	CoarseStep int
	ProfileDir string
}

// OptionsFrom extracts session options from normalized host configuration.
func OptionsFrom(cfg config.HostConfig) Options {
	return Options{
		FineStep:   cfg.FineStep,
		CoarseStep: cfg.CoarseStep,
		ProfileDir: cfg.ProfileDir,
	}
}

// Session edits the thresholds of one pad at a time.
type Session struct {
	mutex sync.Mutex
	opts  Options
	pad   *host.Pad

	line       int
	sensors    report.SensorReading
	thresholds report.ThresholdVector
}

// New creates a session. pad may be nil; operations that talk to the
// device are then no-ops until Switch finds one.
func New(pad *host.Pad, opts Options) (*Session, error) {
	if opts.FineStep <= 0 {
		opts.FineStep = config.DefaultFineStep
	}
	if opts.CoarseStep <= 0 {
		opts.CoarseStep = config.DefaultCoarseStep
	}
	if opts.ProfileDir == "" {
		opts.ProfileDir = "."
	}
	s := &Session{opts: opts}
	if err := s.attach(pad); err != nil {
		return nil, err
	}
	return s, nil
}

// attach makes pad current and loads its thresholds and sensors.
func (s *Session) attach(pad *host.Pad) error {
	s.pad = pad
	if pad == nil {
		return nil
	}
	th, err := pad.ReadThresholds()
	if err != nil {
		return err
	}
	s.thresholds = th
	if sensors, err := pad.ReadSensors(); err == nil {
		s.sensors = sensors
	}
	return nil
}

// Pad returns the current pad, or nil.
func (s *Session) Pad() *host.Pad {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pad
}

// Line returns the selected channel.
func (s *Session) Line() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.line
}

// MoveLine moves the selection by delta, wrapping within 0..3.
func (s *Session) MoveLine(delta int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.line = ((s.line+delta)%report.NumChannels + report.NumChannels) % report.NumChannels
}

// SetLine selects channel ch.
func (s *Session) SetLine(ch int) error {
	if ch < 0 || ch >= report.NumChannels {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidChannel, ch)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.line = ch
	return nil
}

// Sensors returns the readings from the last Refresh.
func (s *Session) Sensors() report.SensorReading {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sensors
}

// Thresholds returns the edited thresholds.
func (s *Session) Thresholds() report.ThresholdVector {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.thresholds
}

// Refresh reads the pad's current sensor values.
func (s *Session) Refresh() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.pad == nil {
		return nil
	}
	sensors, err := s.pad.ReadSensors()
	if err != nil {
		return err
	}
	s.sensors = sensors
	return nil
}

// Adjust adds delta to the selected threshold, saturating at 0 and 255.
func (s *Session) Adjust(delta int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.thresholds[s.line] = clamp(int(s.thresholds[s.line]) + delta)
}

// Step adjusts the selected threshold by one fine or coarse step.
func (s *Session) Step(up, coarse bool) {
	delta := s.opts.FineStep
	if coarse {
		delta = s.opts.CoarseStep
	}
	if !up {
		delta = -delta
	}
	s.Adjust(delta)
}

// Calibrate sets the threshold of channel ch to its last sensor reading.
func (s *Session) Calibrate(ch int) error {
	if ch < 0 || ch >= report.NumChannels {
		return fmt.Errorf("%w: %d", pkg.ErrInvalidChannel, ch)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.thresholds[ch] = s.sensors[ch]
	return nil
}

// CalibrateAll sets every threshold to its last sensor reading.
func (s *Session) CalibrateAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.thresholds = report.ThresholdVector(s.sensors)
}

// SetValue sets the selected threshold from typed text. Text that does not
// start with a digit is ignored. The leading digits are read as a decimal
// number and clamped to 0..255. Reports whether the threshold was set.
func (s *Session) SetValue(text string) bool {
	if text == "" || text[0] < '0' || text[0] > '9' {
		return false
	}
	v := 0
	for i := 0; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		v = v*10 + int(text[i]-'0')
		if v > 255 {
			v = 256
		}
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.thresholds[s.line] = clamp(v)
	return true
}

// Set replaces the edited thresholds.
func (s *Session) Set(v report.ThresholdVector) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.thresholds = v
}

// Flush writes the edited thresholds to the pad.
func (s *Session) Flush() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.flush()
}

func (s *Session) flush() error {
	if s.pad == nil {
		return nil
	}
	return s.pad.WriteThresholds(s.thresholds)
}

// Switch flushes the current pad, moves to the next one sel offers and
// loads its thresholds. A failed flush is logged and does not stop the
// switch.
func (s *Session) Switch(sel *host.Selector) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.flush(); err != nil {
		pkg.LogWarn(pkg.ComponentHost, "flush before switch failed", "error", err)
	}
	pad, err := sel.Next()
	if err != nil {
		s.pad = nil
		return err
	}
	return s.attach(pad)
}

// ProfilePath returns the file a profile name maps to.
func (s *Session) ProfilePath(name string) string {
	return filepath.Join(s.opts.ProfileDir, name+ProfileExt)
}

// SaveProfile writes the edited thresholds to the named profile as four
// raw bytes.
func (s *Session) SaveProfile(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", pkg.ErrInvalidProfile)
	}
	v := s.Thresholds()
	path := s.ProfilePath(name)
	if err := os.WriteFile(path, v[:], 0o644); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	pkg.LogInfo(pkg.ComponentHost, "profile saved", "path", path, "thresholds", v[:])
	return nil
}

// LoadProfile replaces the edited thresholds with the named profile. The
// pad is not written until Flush.
func (s *Session) LoadProfile(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", pkg.ErrInvalidProfile)
	}
	v, err := ReadProfile(s.ProfilePath(name))
	if err != nil {
		return err
	}
	s.Set(v)
	return nil
}

// ReadProfile reads a profile file.
func ReadProfile(path string) (report.ThresholdVector, error) {
	var v report.ThresholdVector
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("load profile: %w", err)
	}
	if len(data) != report.Size {
		return v, fmt.Errorf("%w: %s is %d bytes", pkg.ErrInvalidProfile, path, len(data))
	}
	copy(v[:], data)
	return v, nil
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
