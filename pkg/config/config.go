// Package config loads the YAML configuration shared by the pad firmware
// simulators and the host companion tools.
//
// The lifecycle is Load, then Validate (declarative, no mutation), then
// Normalize (fills defaults). Zero values mean "use the default" throughout.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Device DeviceConfig `yaml:"device"`
	Host   HostConfig   `yaml:"host"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// ---- DEVICE ----

type DeviceConfig struct {
	// Hysteresis band half-width around each threshold.
	Padding *int `yaml:"padding"`

	SampleIntervalUs   int     `yaml:"sample_interval_us"`
	DecisionIntervalMs int     `yaml:"decision_interval_ms"`
	InitialSensors     []uint8 `yaml:"initial_sensors"`

	Flash FlashConfig `yaml:"flash"`

	// FIFO transport bus directory (simulators only).
	BusDir string `yaml:"bus_dir"`

	// Delay between loop iterations (simulators only).
	IdleUs int `yaml:"idle_us"`
}

type FlashConfig struct {
	Image      string `yaml:"image"` // empty = in-memory
	SectorSize int    `yaml:"sector_size"`
	PageSize   int    `yaml:"page_size"`
}

// ---- HOST ----

type HostConfig struct {
	Backend      string `yaml:"backend"` // hidapi, hidraw, fifo
	BusDir       string `yaml:"bus_dir"` // fifo backend only
	VendorID     uint16 `yaml:"vendor_id"`
	ProductID    uint16 `yaml:"product_id"`
	Manufacturer string `yaml:"manufacturer"`
	Usage        uint16 `yaml:"usage"`

	FineStep   int `yaml:"fine_step"`
	CoarseStep int `yaml:"coarse_step"`

	PollIntervalMs int    `yaml:"poll_interval_ms"`
	ProfileDir     string `yaml:"profile_dir"`

	MQTT MQTTConfig `yaml:"mqtt"`
	Web  WebConfig  `yaml:"web"`
}

type MQTTConfig struct {
	Broker       string `yaml:"broker"` // empty = disabled
	ClientID     string `yaml:"client_id"`
	Topic        string `yaml:"topic"`
	QoS          byte   `yaml:"qos"`
	AcceptWrites bool   `yaml:"accept_writes"`
}

type WebConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// Load reads and decodes the YAML file at path. Unknown keys are rejected.
// The result is neither validated nor normalized.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns a normalized configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// SampleInterval returns the sensor sampling gate.
func (d *DeviceConfig) SampleInterval() time.Duration {
	return time.Duration(d.SampleIntervalUs) * time.Microsecond
}

// DecisionInterval returns the button decision tick.
func (d *DeviceConfig) DecisionInterval() time.Duration {
	return time.Duration(d.DecisionIntervalMs) * time.Millisecond
}

// Idle returns the per-iteration loop delay.
func (d *DeviceConfig) Idle() time.Duration {
	return time.Duration(d.IdleUs) * time.Microsecond
}

// PollInterval returns the host sensor polling period.
func (h *HostConfig) PollInterval() time.Duration {
	return time.Duration(h.PollIntervalMs) * time.Millisecond
}
