package rest

import "encoding/json"

// StatusSuccess is the envelope status that marks a successful call.
const StatusSuccess = 200

// Envelope is the outer JSON shape of every backend response.
type Envelope[T any] struct {
	// Status is the application status; only 200 means success.
	Status int64 `json:"status"`
	// Message is the server message. Empty when absent or null.
	Message string `json:"message,omitempty"`
	// Data is the payload. Nil when responseData is absent or null.
	Data *T `json:"responseData,omitempty"`
}

// Success reports whether the envelope carries the success status.
func (e *Envelope[T]) Success() bool {
	return e.Status == StatusSuccess
}

// Empty is a payload type that accepts any JSON value. Envelope[Empty]
// checks status and message while ignoring the payload's shape.
type Empty struct{}

// UnmarshalJSON implements json.Unmarshaler. The decoder validates the
// whole document before calling it, so there is nothing left to check.
func (*Empty) UnmarshalJSON([]byte) error {
	return nil
}

var _ json.Unmarshaler = (*Empty)(nil)
