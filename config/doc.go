// Package config loads apikit configuration from YAML files, .env files and
// environment variables.
//
// LoadConfig looks for config.yml and .env next to the binary's cmd
// directory, in ./config and in the working directory. Environment
// variables override file values; API_BASE_URL sets api.base_url:
//
//	var cfg struct {
//	    config.ServiceConfig `mapstructure:",squash"`
//	    API rest.Config      `mapstructure:"api"`
//	}
//	err := config.LoadConfig("apikit", &cfg)
package config
