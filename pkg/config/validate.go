package config

import (
	"fmt"

	"github.com/ardnew/fsrpad/pkg"
	"github.com/ardnew/fsrpad/pkg/report"
)

// slotSize is the size of one calibration record in flash.
const slotSize = report.NumChannels

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Log.Level != "" {
		if _, ok := pkg.ParseLogLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log.level %q: must be debug, info, warn or error", cfg.Log.Level)
		}
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", cfg.Log.Format)
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device
	if d.Padding != nil && (*d.Padding < 0 || *d.Padding > 127) {
		return fmt.Errorf("device.padding %d: must be within 0..127", *d.Padding)
	}
	if d.SampleIntervalUs < 0 {
		return fmt.Errorf("device.sample_interval_us %d: must not be negative", d.SampleIntervalUs)
	}
	if d.DecisionIntervalMs < 0 {
		return fmt.Errorf("device.decision_interval_ms %d: must not be negative", d.DecisionIntervalMs)
	}
	if d.IdleUs < 0 {
		return fmt.Errorf("device.idle_us %d: must not be negative", d.IdleUs)
	}
	if n := len(d.InitialSensors); n != 0 && n != report.NumChannels {
		return fmt.Errorf("device.initial_sensors: want %d values, got %d", report.NumChannels, n)
	}
	if err := ValidateGeometry(d.Flash.SectorSize, d.Flash.PageSize); err != nil {
		return fmt.Errorf("device.flash: %w", err)
	}

	// ------------------------------------------------------------
	// HOST
	// ------------------------------------------------------------

	h := cfg.Host
	switch h.Backend {
	case "", "hidapi", "hidraw", "fifo":
	default:
		return fmt.Errorf("host.backend %q: must be hidapi, hidraw or fifo", h.Backend)
	}
	if h.FineStep < 0 || h.FineStep > 255 {
		return fmt.Errorf("host.fine_step %d: must be within 1..255", h.FineStep)
	}
	if h.CoarseStep < 0 || h.CoarseStep > 255 {
		return fmt.Errorf("host.coarse_step %d: must be within 1..255", h.CoarseStep)
	}
	if h.PollIntervalMs < 0 {
		return fmt.Errorf("host.poll_interval_ms %d: must not be negative", h.PollIntervalMs)
	}
	if h.MQTT.QoS > 2 {
		return fmt.Errorf("host.mqtt.qos %d: must be 0, 1 or 2", h.MQTT.QoS)
	}

	return nil
}

// ValidateGeometry checks a calibration sector layout. Zero sizes are
// accepted as "default". The page size must be a power of two holding a
// whole number of slots, and the sector must hold a whole number of pages.
func ValidateGeometry(sectorSize, pageSize int) error {
	if sectorSize == 0 && pageSize == 0 {
		return nil
	}
	if sectorSize < 0 || pageSize < 0 {
		return fmt.Errorf("%w: negative size", pkg.ErrInvalidGeometry)
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	if pageSize&(pageSize-1) != 0 {
		return fmt.Errorf("%w: page size %d is not a power of two", pkg.ErrInvalidGeometry, pageSize)
	}
	if pageSize%slotSize != 0 {
		return fmt.Errorf("%w: page size %d is not a multiple of %d", pkg.ErrInvalidGeometry, pageSize, slotSize)
	}
	if sectorSize%pageSize != 0 {
		return fmt.Errorf("%w: sector size %d is not a multiple of page size %d",
			pkg.ErrInvalidGeometry, sectorSize, pageSize)
	}
	return nil
}
