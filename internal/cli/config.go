package cli

import (
	"github.com/kbukum/apikit/config"
	"github.com/kbukum/apikit/httpclient/rest"
	"github.com/kbukum/apikit/observability"
	"github.com/kbukum/apikit/version"
)

const serviceName = "apikit"

// Config is the configuration of the apikit binary.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API       rest.Config     `yaml:"api" mapstructure:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// TelemetryConfig enables OTLP export of call spans and metrics.
type TelemetryConfig struct {
	Enabled bool                       `yaml:"enabled" mapstructure:"enabled"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills in zero-value fields. The CLI logs warnings and
// above unless a level is configured, so output stays readable.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Short()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Telemetry.applyDefaults(c.Name, c.Version, c.Environment)
}

func (t *TelemetryConfig) applyDefaults(name, ver, env string) {
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = name
	}
	t.Tracing.ServiceVersion, t.Tracing.Environment = ver, env
	t.Tracing.ApplyDefaults()

	if t.Metrics.ServiceName == "" {
		t.Metrics.ServiceName = name
	}
	t.Metrics.ServiceVersion, t.Metrics.Environment = ver, env
	t.Metrics.ApplyDefaults()
}
