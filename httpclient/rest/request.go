package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/kbukum/apikit/httpclient"
	"github.com/kbukum/apikit/observability"
)

// ParamDeviceType is the parameter every call carries.
const ParamDeviceType = "device_type"

// Encoding selects where request parameters go.
type Encoding int

const (
	// EncodingJSON sends parameters as a JSON body, for every method.
	EncodingJSON Encoding = iota
	// EncodingURL uses the query string for GET, HEAD and DELETE and a
	// form body otherwise.
	EncodingURL
	// EncodingQuery always uses the query string.
	EncodingQuery
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingURL:
		return "url"
	case EncodingQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ParseEncoding parses "json", "url" or "query".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "json", "":
		return EncodingJSON, nil
	case "url", "form":
		return EncodingURL, nil
	case "query":
		return EncodingQuery, nil
	default:
		return 0, fmt.Errorf("rest: unknown encoding %q", s)
	}
}

// CallOption configures a single request or upload.
type CallOption func(*callOptions)

type callOptions struct {
	method    string
	params    map[string]any
	authorize bool
	encoding  Encoding
	progress  []func(float64)
}

func newCallOptions(opts []CallOption) callOptions {
	o := callOptions{
		method:    http.MethodPost,
		authorize: true,
		encoding:  EncodingJSON,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMethod sets the HTTP method. Defaults to POST. Uploads ignore it.
func WithMethod(method string) CallOption {
	return func(o *callOptions) {
		o.method = method
	}
}

// WithParams sets the request parameters. The map is not modified.
func WithParams(params map[string]any) CallOption {
	return func(o *callOptions) {
		o.params = params
	}
}

// WithoutAuthorization omits the access token from the call.
func WithoutAuthorization() CallOption {
	return func(o *callOptions) {
		o.authorize = false
	}
}

// WithEncoding sets the parameter encoding. Defaults to EncodingJSON.
// Uploads ignore it.
func WithEncoding(e Encoding) CallOption {
	return func(o *callOptions) {
		o.encoding = e
	}
}

// WithProgress observes upload progress as a fraction in [0, 1]. fn is
// called from the transport's goroutine. Requests ignore it.
func WithProgress(fn func(float64)) CallOption {
	return func(o *callOptions) {
		if fn != nil {
			o.progress = append(o.progress, fn)
		}
	}
}

// Request sends a call to endpoint and decodes the envelope into T.
//
// It panics with ErrNotConfigured when c is nil or has no base URL.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts ...CallOption) Result[T] {
	c.mustBeConfigured()
	o := newCallOptions(opts)

	k := c.begin(ctx, "request", observability.SpanRequest, endpoint, o.method)
	var res Result[T]
	if req, err := c.buildRequest(endpoint, o); err != nil {
		res = failure[T](err)
	} else {
		res = exchange[T](k, c, req)
	}
	k.end(res.outcome(), res.Err)
	return res
}

// RequestAsync runs Request in a new goroutine. The returned channel
// yields exactly one Result and is then closed.
//
// It panics with ErrNotConfigured before starting when c is not usable.
func RequestAsync[T any](ctx context.Context, c *Client, endpoint string, opts ...CallOption) <-chan Result[T] {
	c.mustBeConfigured()
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		ch <- Request[T](ctx, c, endpoint, opts...)
	}()
	return ch
}

// buildRequest turns the options into a transport request.
func (c *Client) buildRequest(endpoint string, o callOptions) (httpclient.Request, *Error) {
	params := c.withDeviceType(o.params)
	req := httpclient.Request{
		Method:  o.method,
		Path:    endpoint,
		Headers: c.config.headers(o.authorize),
	}

	switch {
	case o.encoding == EncodingQuery || (o.encoding == EncodingURL && usesQuery(o.method)):
		q, err := encodeForm(params)
		if err != nil {
			return req, NewBadRequestError(err.Error())
		}
		req.Query = q
	case o.encoding == EncodingURL:
		form, err := encodeForm(params)
		if err != nil {
			return req, NewBadRequestError(err.Error())
		}
		req.Body = form
	default:
		body, err := json.Marshal(params)
		if err != nil {
			return req, NewBadRequestError(fmt.Sprintf("encode parameters: %v", err))
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

// withDeviceType returns a copy of params with device_type set from the
// config, overriding any caller value.
func (c *Client) withDeviceType(params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+1)
	maps.Copy(out, params)
	out[ParamDeviceType] = c.config.DeviceType
	return out
}

func usesQuery(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

// encodeForm flattens params into form values. Nested maps become
// key[sub], slices and arrays key[], booleans 1 or 0.
func encodeForm(params map[string]any) (url.Values, error) {
	out := url.Values{}
	for k, v := range params {
		if err := flatten(out, k, reflect.ValueOf(v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flatten(out url.Values, key string, rv reflect.Value) error {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			out.Add(key, "")
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		out.Add(key, "")
		return nil
	}

	if s, ok := rv.Interface().(fmt.Stringer); ok {
		out.Add(key, s.String())
		return nil
	}

	switch rv.Kind() {
	case reflect.String:
		out.Add(key, rv.String())
	case reflect.Bool:
		if rv.Bool() {
			out.Add(key, "1")
		} else {
			out.Add(key, "0")
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.Add(key, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		out.Add(key, strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		out.Add(key, strconv.FormatFloat(rv.Float(), 'f', -1, 32))
	case reflect.Float64:
		out.Add(key, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("parameter %q: map keys must be strings", key)
		}
		iter := rv.MapRange()
		for iter.Next() {
			if err := flatten(out, key+"["+iter.Key().String()+"]", iter.Value()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := flatten(out, key+"[]", rv.Index(i)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("parameter %q: cannot encode %s", key, rv.Type())
	}
	return nil
}
