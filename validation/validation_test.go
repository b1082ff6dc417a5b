package validation

import (
	"errors"
	"strings"
	"testing"
)

type setting struct {
	IOSVersion string `json:"ios_version" validate:"required"`
	AdURL      string `json:"ad_url" validate:"omitempty,url"`
	Level      int    `json:"level" validate:"max=3"`
}

type untagged struct {
	Name string `json:"name"`
}

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "John").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "").HasErrors() {
		t.Error("expected error for empty required field")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorHTTPURL(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://api.example.com/", false},
		{"http://localhost:8080/api/", false},
		{"", false},
		{"ftp://example.com", true},
		{"/relative/path", true},
		{"https://", true},
		{"http://[::1", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := New().HTTPURL("base_url", tt.value).HasErrors()
			if got != tt.wantErr {
				t.Errorf("HTTPURL(%q) hasErrors = %v, want %v", tt.value, got, tt.wantErr)
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"iOS", "android"}
	if New().OneOf("device_type", "iOS", allowed).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if !New().OneOf("device_type", "web", allowed).HasErrors() {
		t.Error("expected error for disallowed value")
	}
}

func TestValidatorErr(t *testing.T) {
	v := New()
	if v.Err() != nil {
		t.Fatal("expected nil error without failures")
	}

	v.Required("base_url", "").Custom(false, "timeout", "must be positive")
	err := v.Err()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(verr.Fields))
	}
	if !verr.Has("base_url") || !verr.Has("timeout") {
		t.Errorf("missing field in %v", verr.Fields)
	}
	if !strings.Contains(err.Error(), "base_url: is required") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidateStructValid(t *testing.T) {
	if err := Validate(&setting{IOSVersion: "2.0", AdURL: "https://ads.example.com"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateStructMissingRequired(t *testing.T) {
	err := Validate(setting{})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !verr.Has("ios_version") {
		t.Errorf("expected ios_version failure, got %v", verr.Fields)
	}
}

func TestValidateStructMax(t *testing.T) {
	err := Validate(&setting{IOSVersion: "1", Level: 9})
	var verr *Error
	if !errors.As(err, &verr) || !verr.Has("level") {
		t.Fatalf("expected level failure, got %v", err)
	}
	if verr.Fields[0].Message != "must be at most 3" {
		t.Errorf("message = %q", verr.Fields[0].Message)
	}
}

func TestValidateWalksCollections(t *testing.T) {
	items := []setting{{IOSVersion: "1"}, {}}
	if err := Validate(items); err == nil {
		t.Error("expected error for invalid slice element")
	}

	byName := map[string]*setting{"ok": {IOSVersion: "1"}, "bad": {}}
	if err := Validate(byName); err == nil {
		t.Error("expected error for invalid map value")
	}

	if err := Validate([]setting{{IOSVersion: "1"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateNonStructKinds(t *testing.T) {
	for _, v := range []any{nil, 42, "text", []string{"a"}, (*setting)(nil), untagged{}} {
		if err := Validate(v); err != nil {
			t.Errorf("Validate(%#v) = %v, want nil", v, err)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"IOSVersion": "i_o_s_version",
		"Name":       "name",
		"adURL":      "ad_u_r_l",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
