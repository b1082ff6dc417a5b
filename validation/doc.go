// Package validation checks decoded payloads and configuration values.
//
// Struct tag validation (validator/v10) is what makes a payload decode strict:
// a field tagged `validate:"required"` that is missing from the JSON fails
// validation even though encoding/json accepted the document.
//
//	type AppSetting struct {
//	    IOSVersion string `json:"ios_version" validate:"required"`
//	}
//	err := validation.Validate(&setting)
//
// Programmatic checks collect errors the same way:
//
//	v := validation.New()
//	v.Required("base_url", cfg.BaseURL).HTTPURL("base_url", cfg.BaseURL)
//	err := v.Err()
package validation
