package rest

import (
	"time"

	"github.com/kbukum/apikit/httpclient"
	"github.com/kbukum/apikit/validation"
)

const (
	// DefaultDeviceType is the device_type value sent with every call.
	DefaultDeviceType = "iOS"

	defaultName    = "api"
	defaultTimeout = 30 * time.Second
)

// Config configures a Client. It is copied into the client by New and
// never changes afterwards.
type Config struct {
	// Name identifies the client in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is joined with every endpoint. Absolute endpoints bypass it.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as the api-key header when set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Version is sent as the version header when set.
	Version string `yaml:"version" mapstructure:"version"`

	// Token is sent as the access-token header on authorized calls.
	Token string `yaml:"token" mapstructure:"token"`

	// Language is sent as the X-localization header when set.
	Language string `yaml:"language" mapstructure:"language"`

	// DeviceType is added to every call as the device_type parameter.
	DeviceType string `yaml:"device_type" mapstructure:"device_type"`

	// Timeout bounds a whole exchange. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures the transport's TLS settings.
	TLS *httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// StrictPayload rejects payload keys the target type does not declare.
	StrictPayload bool `yaml:"strict_payload" mapstructure:"strict_payload"`

	// Headers are extra static headers. The envelope headers win on conflict.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.DeviceType == "" {
		c.DeviceType = DefaultDeviceType
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	v := validation.New().
		Required("base_url", c.BaseURL).
		HTTPURL("base_url", c.BaseURL).
		Required("device_type", c.DeviceType).
		Custom(c.Timeout > 0, "timeout", "must be positive")
	if err := c.TLS.Validate(); err != nil {
		v.AddError("tls", err.Error())
	}
	return v.Err()
}

// transport returns the adapter configuration for this client.
func (c *Config) transport() httpclient.Config {
	return httpclient.Config{
		Name:    c.Name,
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
		TLS:     c.TLS,
		Headers: c.Headers,
	}
}
