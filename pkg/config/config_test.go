package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/fsrpad/pkg"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fsrpad.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func intPtr(v int) *int { return &v }

// ---- tests ----

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
device:
  padding: 0
  sample_interval_us: 500
  initial_sensors: [10, 20, 30, 40]
  flash:
    image: pad.bin
    sector_size: 1024
    page_size: 64
host:
  backend: fifo
  vendor_id: 0x1234
  coarse_step: 16
  mqtt:
    broker: tcp://localhost:1883
    accept_writes: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	Normalize(cfg)

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if *cfg.Device.Padding != 0 {
		t.Errorf("Padding = %d, want explicit 0 preserved", *cfg.Device.Padding)
	}
	if got := cfg.Device.SampleInterval(); got != 500*time.Microsecond {
		t.Errorf("SampleInterval() = %v, want 500µs", got)
	}
	if got := cfg.Device.DecisionInterval(); got != time.Millisecond {
		t.Errorf("DecisionInterval() = %v, want 1ms", got)
	}
	if cfg.Device.Flash.SectorSize != 1024 || cfg.Device.Flash.PageSize != 64 {
		t.Errorf("Flash = %+v", cfg.Device.Flash)
	}
	if cfg.Host.VendorID != 0x1234 {
		t.Errorf("VendorID = %#x, want 0x1234", cfg.Host.VendorID)
	}
	if cfg.Host.ProductID != DefaultProductID {
		t.Errorf("ProductID = %#x, want default", cfg.Host.ProductID)
	}
	if cfg.Host.FineStep != 1 || cfg.Host.CoarseStep != 16 {
		t.Errorf("steps = %d/%d, want 1/16", cfg.Host.FineStep, cfg.Host.CoarseStep)
	}
	if !cfg.Host.MQTT.AcceptWrites || cfg.Host.MQTT.Topic != DefaultMQTTTopic {
		t.Errorf("MQTT = %+v", cfg.Host.MQTT)
	}
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "device:\n  paddding: 3\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for unknown field")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
	if *cfg.Device.Padding != DefaultPadding {
		t.Errorf("Padding = %d, want %d", *cfg.Device.Padding, DefaultPadding)
	}
	if cfg.Device.SampleInterval() != 250*time.Microsecond {
		t.Errorf("SampleInterval() = %v", cfg.Device.SampleInterval())
	}
	want := []uint8{1, 2, 3, 4}
	for i, v := range want {
		if cfg.Device.InitialSensors[i] != v {
			t.Errorf("InitialSensors[%d] = %d, want %d", i, cfg.Device.InitialSensors[i], v)
		}
	}
	if cfg.Host.Manufacturer != "http://pubby.games" || cfg.Host.Usage != 0xA0 {
		t.Errorf("Host identity = %q/%#x", cfg.Host.Manufacturer, cfg.Host.Usage)
	}

	// Normalize must not alias the package-level default slice.
	cfg.Device.InitialSensors[0] = 99
	if DefaultInitialSensors[0] != 1 {
		t.Error("Normalize() aliased DefaultInitialSensors")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty ok", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative padding", func(c *Config) { c.Device.Padding = intPtr(-1) }, "device.padding"},
		{"huge padding", func(c *Config) { c.Device.Padding = intPtr(200) }, "device.padding"},
		{"three sensors", func(c *Config) { c.Device.InitialSensors = []uint8{1, 2, 3} }, "initial_sensors"},
		{"bad backend", func(c *Config) { c.Host.Backend = "serial" }, "host.backend"},
		{"bad fine step", func(c *Config) { c.Host.FineStep = 300 }, "fine_step"},
		{"bad qos", func(c *Config) { c.Host.MQTT.QoS = 3 }, "qos"},
		{"bad page size", func(c *Config) { c.Device.Flash.PageSize = 100 }, "device.flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name   string
		sector int
		page   int
		ok     bool
	}{
		{"defaults", 0, 0, true},
		{"rp2040", 4096, 256, true},
		{"single page", 256, 256, true},
		{"tiny", 16, 4, true},
		{"page not power of two", 4096, 96, false},
		{"page smaller than slot", 4096, 2, false},
		{"sector not page multiple", 1000, 256, false},
		{"negative", -4096, 256, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.sector, tt.page)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, pkg.ErrInvalidGeometry) {
				t.Fatalf("error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}
