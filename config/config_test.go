package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/apikit/httpclient/rest"
	"github.com/kbukum/apikit/logger"
)

type appConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	API           rest.Config `yaml:"api" mapstructure:"api"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("development turns on debug logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "apikit"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" || !cfg.Debug {
			t.Errorf("unexpected defaults %+v", cfg)
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "apikit" {
			t.Errorf("expected logging service name apikit, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps info logging", func(t *testing.T) {
		cfg := ServiceConfig{Name: "apikit", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("configured level wins", func(t *testing.T) {
		cfg := ServiceConfig{Name: "apikit"}
		cfg.Logging.Level = "warn"
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "warn" {
			t.Errorf("expected warn level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "apikit", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "name"},
		{"invalid environment", ServiceConfig{Name: "apikit", Environment: "qa"}, "environment"},
		{"invalid logging", ServiceConfig{Name: "apikit", Environment: "production", Logging: loggingWithLevel("loud")}, "logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.cfg.Logging.Level == "" {
				tc.cfg.Logging.ApplyDefaults()
			}
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: apikit
environment: staging
api:
  name: backend
  base_url: https://api.example.com/
  api_key: key-1
  timeout: 5s
  strict_payload: true
  headers:
    X-Team: mobile
  tls:
    server_name: api.example.com
`)

	var cfg appConfig
	if err := LoadConfig("apikit", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "apikit" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	api := cfg.API
	if api.Name != "backend" || api.BaseURL != "https://api.example.com/" || api.APIKey != "key-1" {
		t.Errorf("unexpected api config %+v", api)
	}
	if api.Timeout != 5*time.Second || !api.StrictPayload {
		t.Errorf("timeout=%v strict=%v", api.Timeout, api.StrictPayload)
	}
	if api.TLS == nil || api.TLS.ServerName != "api.example.com" {
		t.Errorf("unexpected tls config %+v", api.TLS)
	}
	if len(api.Headers) != 1 {
		t.Errorf("unexpected headers %v", api.Headers)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: apikit\napi:\n  base_url: https://file.example.com/\n  token: from-file\n")
	t.Setenv("API_TOKEN", "from-env")
	t.Setenv("API_DEVICE_TYPE", "Android")

	var cfg appConfig
	if err := LoadConfig("apikit", &cfg, WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env"))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.Token != "from-env" {
		t.Errorf("expected env token, got %q", cfg.API.Token)
	}
	if cfg.API.DeviceType != "Android" {
		t.Errorf("expected env device type, got %q", cfg.API.DeviceType)
	}
	if cfg.API.BaseURL != "https://file.example.com/" {
		t.Errorf("file value lost: %q", cfg.API.BaseURL)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "API_LANGUAGE=tr\nAPI_BASE_URL=https://dotenv.example.com/\n")

	for _, key := range []string{"API_LANGUAGE", "API_BASE_URL"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}

	var cfg appConfig
	if err := LoadConfig("apikit", &cfg, WithConfigFile(filepath.Join(dir, "missing.yml")), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.Language != "tr" || cfg.API.BaseURL != "https://dotenv.example.com/" {
		t.Errorf(".env values not applied: %+v", cfg.API)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg appConfig
	err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigBrokenFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "api: [unclosed\n")

	var cfg appConfig
	if err := LoadConfig("apikit", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected an error for an unparseable config file")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/apikit/config.yml": true,
		"./config/.env":           true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("apikit", LoaderConfig{})
	if files.ConfigFile != "./cmd/apikit/config.yml" {
		t.Errorf("expected config file at ./cmd/apikit/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./config/.env" {
		t.Errorf("expected env file at ./config/.env, got %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("apikit", LoaderConfig{ConfigFile: "a.yml", EnvFile: "b.env"})
	if explicit.ConfigFile != "a.yml" || explicit.EnvFile != "b.env" {
		t.Errorf("explicit paths not kept: %+v", explicit)
	}
}

func TestResolverShortName(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"../cmd/cli/config.yml": true}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("apikit-cli", LoaderConfig{})
	if files.ConfigFile != "../cmd/cli/config.yml" {
		t.Errorf("expected short-name lookup, got %q", files.ConfigFile)
	}
	if files.EnvFile != "" {
		t.Errorf("expected no env file, got %q", files.EnvFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }
func (m *mockFS) Getwd() (string, error)    { return "/mock", nil }

func TestGenerateEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"DEBUG", []string{"debug"}},
		{"API_TOKEN", []string{"api_token", "api.token"}},
		{"API_BASE_URL", []string{"api_base_url", "api.base.url", "api.base_url"}},
		{"API_TLS_CA_FILE", []string{"api_tls_ca_file", "api.tls.ca.file", "api.tls_ca_file", "api.tls.ca_file"}},
	}
	for _, tt := range tests {
		if got := generateEnvKeyVariants(tt.key); !slices.Equal(got, tt.want) {
			t.Errorf("generateEnvKeyVariants(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem != fs || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("options not applied: %+v", lc)
	}
}

func loggingWithLevel(level string) (c logger.Config) {
	c.Level = level
	c.Format = "json"
	return c
}
