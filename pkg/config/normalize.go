package config

// Defaults.
const (
	DefaultPadding            = 2
	DefaultSampleIntervalUs   = 250
	DefaultDecisionIntervalMs = 1
	DefaultSectorSize         = 4096
	DefaultPageSize           = 256
	DefaultBusDir             = "/tmp/fsrpad"

	DefaultBackend      = "hidapi"
	DefaultVendorID     = 0x16C0
	DefaultProductID    = 0x27D9
	DefaultManufacturer = "http://pubby.games"
	DefaultUsage        = 0xA0
	DefaultFineStep     = 1
	DefaultCoarseStep   = 8
	DefaultPollInterval = 50
	DefaultMQTTClientID = "fsrctl"
	DefaultMQTTTopic    = "fsrpad"
)

// DefaultInitialSensors is the filter state a pad powers up with.
var DefaultInitialSensors = []uint8{1, 2, 3, 4}

// Normalize fills every unset field with its default.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// ---- device ----

	d := &cfg.Device
	if d.Padding == nil {
		p := DefaultPadding
		d.Padding = &p
	}
	if d.SampleIntervalUs == 0 {
		d.SampleIntervalUs = DefaultSampleIntervalUs
	}
	if d.DecisionIntervalMs == 0 {
		d.DecisionIntervalMs = DefaultDecisionIntervalMs
	}
	if len(d.InitialSensors) == 0 {
		d.InitialSensors = append([]uint8(nil), DefaultInitialSensors...)
	}
	if d.Flash.SectorSize == 0 {
		d.Flash.SectorSize = DefaultSectorSize
	}
	if d.Flash.PageSize == 0 {
		d.Flash.PageSize = DefaultPageSize
	}
	if d.BusDir == "" {
		d.BusDir = DefaultBusDir
	}

	// ---- host ----

	h := &cfg.Host
	if h.Backend == "" {
		h.Backend = DefaultBackend
	}
	if h.BusDir == "" {
		h.BusDir = DefaultBusDir
	}
	if h.VendorID == 0 {
		h.VendorID = DefaultVendorID
	}
	if h.ProductID == 0 {
		h.ProductID = DefaultProductID
	}
	if h.Manufacturer == "" {
		h.Manufacturer = DefaultManufacturer
	}
	if h.Usage == 0 {
		h.Usage = DefaultUsage
	}
	if h.FineStep == 0 {
		h.FineStep = DefaultFineStep
	}
	if h.CoarseStep == 0 {
		h.CoarseStep = DefaultCoarseStep
	}
	if h.PollIntervalMs == 0 {
		h.PollIntervalMs = DefaultPollInterval
	}
	if h.ProfileDir == "" {
		h.ProfileDir = "."
	}
	if h.MQTT.ClientID == "" {
		h.MQTT.ClientID = DefaultMQTTClientID
	}
	if h.MQTT.Topic == "" {
		h.MQTT.Topic = DefaultMQTTTopic
	}
}
