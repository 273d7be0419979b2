package config

import (
	"strings"
	"time"
)

// DefaultConfig returns a Config populated with sensible defaults. Load
// starts from this and overlays whatever a config file provides.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":9090",
		Share: ShareConfig{
			Path:    ".",
			Backend: ShareBackendFilesystem,
		},
		RecvBufferCap: 64 * 1024,
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9091",
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 1.0,
			Profiling: ProfilingConfig{
				Enabled:      false,
				Endpoint:     "http://localhost:4040",
				ProfileTypes: []string{"cpu", "alloc_objects", "inuse_objects"},
			},
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "",
			TTL:     30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "",
		},
	}
}

// ApplyDefaults fills zero-valued fields of cfg with DefaultConfig's values.
// Used after unmarshalling a partial config file so omitted sections still
// get a usable value.
func ApplyDefaults(cfg *Config) {
	def := DefaultConfig()

	if cfg.Listen == "" {
		cfg.Listen = def.Listen
	}
	if cfg.Share.Backend == "" {
		cfg.Share.Backend = def.Share.Backend
	}
	if cfg.Share.Backend == ShareBackendFilesystem && cfg.Share.Path == "" {
		cfg.Share.Path = def.Share.Path
	}
	if cfg.RecvBufferCap <= 0 {
		cfg.RecvBufferCap = def.RecvBufferCap
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = def.Telemetry.Endpoint
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = def.Telemetry.SampleRate
	}

	if cfg.Cache.Enabled && cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = def.Cache.TTL
	}
}
