package httpclient

import (
	"net/url"
)

// ProgressFunc receives the number of body bytes written so far and the total.
// It is called from the transport's goroutine.
type ProgressFunc func(sent, total int64)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the adapter's BaseURL. Can be a full URL.
	Path string
	// Headers are request-specific headers (merged over adapter defaults).
	Headers map[string]string
	// Query holds URL query parameters.
	Query url.Values
	// Body is the request body. Accepts *MultipartBody, url.Values (form),
	// io.Reader, []byte, string, or any value that will be JSON-encoded.
	Body any
	// Progress, when set, observes the body upload.
	Progress ProgressFunc
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
