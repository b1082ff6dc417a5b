package rest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/apikit/httpclient"
	"github.com/kbukum/apikit/observability"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "https://api.example.com/", DeviceType: "iOS", Timeout: time.Second}, false},
		{"no base url", Config{DeviceType: "iOS", Timeout: time.Second}, true},
		{"no device type", Config{BaseURL: "https://api.example.com", Timeout: time.Second}, true},
		{"no timeout", Config{BaseURL: "https://api.example.com", DeviceType: "iOS"}, true},
		{"half tls", Config{
			BaseURL: "https://api.example.com", DeviceType: "iOS", Timeout: time.Second,
			TLS: &httpclient.TLSConfig{CertFile: "client.pem"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{Name: "backend", DeviceType: "Android", Timeout: 5 * time.Second}
	cfg.ApplyDefaults()
	if cfg.Name != "backend" || cfg.DeviceType != "Android" || cfg.Timeout != 5*time.Second {
		t.Errorf("ApplyDefaults overwrote values: %+v", cfg)
	}
}

func TestConfig_Transport(t *testing.T) {
	cfg := Config{Name: "backend", BaseURL: "https://api.example.com", Timeout: 3 * time.Second, Headers: map[string]string{"X-A": "1"}}
	tc := cfg.transport()
	if tc.Name != "backend" || tc.BaseURL != cfg.BaseURL || tc.Timeout != 3*time.Second || tc.Headers["X-A"] != "1" {
		t.Errorf("unexpected transport config %+v", tc)
	}
}

func TestConfig_Headers(t *testing.T) {
	cfg := Config{APIKey: "k", Version: "1.0", Token: "t", Language: "en"}

	h := cfg.headers(true)
	if len(h) != 5 || h[HeaderAccessToken] != "t" || h[HeaderAccept] != "application/json" {
		t.Errorf("authorized headers = %v", h)
	}
	if _, ok := cfg.headers(false)[HeaderAccessToken]; ok {
		t.Error("unauthorized headers must not carry the token")
	}

	empty := Config{}
	if h := empty.headers(true); len(h) != 1 {
		t.Errorf("only Accept expected without configuration, got %v", h)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  *Error
		kind ErrorKind
		name string
		is   func(error) bool
	}{
		{NewBadRequestError("bad"), KindBadRequest, "bad_request", IsBadRequest},
		{NewNetworkError("down"), KindNetwork, "network", IsNetwork},
		{NewParsingError(MessageUnparseable), KindParsing, "parsing", IsParsing},
		{NewUnknownError(MessageUnknown), KindUnknown, "unknown", IsUnknown},
	}
	for _, tt := range tests {
		if tt.err.Kind != tt.kind || tt.kind.String() != tt.name {
			t.Errorf("%v: kind %s", tt.err, tt.err.Kind)
		}
		wrapped := fmt.Errorf("call: %w", tt.err)
		if !tt.is(wrapped) {
			t.Errorf("%s helper should match wrapped error", tt.name)
		}
		if k, ok := KindOf(wrapped); !ok || k != tt.kind {
			t.Errorf("KindOf() = %s, %v", k, ok)
		}
	}

	if got := NewNetworkError("down").Error(); got != "rest: network: down" {
		t.Errorf("Error() = %q", got)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should not match foreign errors")
	}
	if IsNetwork(NewParsingError("x")) {
		t.Error("IsNetwork matched a parsing error")
	}
	if ErrorKind(42).String() != "unknown" {
		t.Error("unknown kinds should render as unknown")
	}
}

func TestResult(t *testing.T) {
	fail := failure[appSetting](NewParsingError(MessageUnparseable))
	if fail.OK() {
		t.Error("failure reported OK")
	}
	if _, ok := fail.Payload(); ok {
		t.Error("failure has no payload")
	}
	if env, err := fail.Unwrap(); env != nil || !IsParsing(err) {
		t.Errorf("Unwrap() = %v, %v", env, err)
	}
	if fail.outcome() != observability.OutcomeParsing {
		t.Errorf("outcome = %q", fail.outcome())
	}

	ok := success(&Envelope[appSetting]{Status: 200})
	if !ok.OK() || ok.outcome() != observability.OutcomeSuccess {
		t.Errorf("success result = %+v", ok)
	}
	if _, has := ok.Payload(); has {
		t.Error("envelope without data has no payload")
	}
}
