package rest

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kbukum/apikit/httpclient"
	"github.com/kbukum/apikit/observability"
)

// progressBuffer is the capacity of UploadTask.Progress.
const progressBuffer = 16

// Fields are the parts of a multipart upload. Values may be a string, any
// Go integer, or a MediaField (value or pointer).
type Fields map[string]any

// Upload sends fields as multipart/form-data with POST and decodes the
// envelope into T.
//
// It panics with ErrNotConfigured when c is nil or has no base URL.
func Upload[T any](ctx context.Context, c *Client, endpoint string, fields Fields, opts ...CallOption) Result[T] {
	c.mustBeConfigured()
	o := newCallOptions(opts)

	k := c.begin(ctx, "upload", observability.SpanUpload, endpoint, http.MethodPost)
	var res Result[T]
	body, err := c.multipartBody(fields)
	if err != nil {
		res = failure[T](err)
	} else {
		tracker := &progressTracker{observers: o.progress}
		res = exchange[T](k, c, httpclient.Request{
			Method:   http.MethodPost,
			Path:     endpoint,
			Headers:  c.config.headers(o.authorize),
			Body:     body,
			Progress: tracker.update,
		})
		if c.metrics != nil {
			c.metrics.RecordUploadBytes(k.ctx, c.config.Name, tracker.sent.Load())
		}
	}
	k.end(res.outcome(), res.Err)
	return res
}

// multipartBody converts fields into a transport body. device_type is
// added as a text part, overriding any caller value.
func (c *Client) multipartBody(fields Fields) (*httpclient.MultipartBody, *Error) {
	body := &httpclient.MultipartBody{Fields: map[string]string{}}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if key == ParamDeviceType {
			continue
		}
		switch v := fields[key].(type) {
		case string:
			body.Fields[key] = v
		case MediaField:
			body.Files = append(body.Files, filePart(key, v))
		case *MediaField:
			if v == nil {
				return nil, NewBadRequestError(fmt.Sprintf("upload field %q is a nil media field", key))
			}
			body.Files = append(body.Files, filePart(key, *v))
		default:
			s, ok := integerText(v)
			if !ok {
				return nil, NewBadRequestError(fmt.Sprintf("upload field %q has unsupported type %T", key, v))
			}
			body.Fields[key] = s
		}
	}
	body.Fields[ParamDeviceType] = c.config.DeviceType
	return body, nil
}

func filePart(name string, m MediaField) httpclient.FileField {
	return httpclient.FileField{
		FieldName:   name,
		FileName:    m.Filename,
		ContentType: m.MIMEType(),
		Data:        m.Data,
	}
}

func integerText(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	default:
		return "", false
	}
}

// progressTracker converts byte counts into fractions that never go back.
type progressTracker struct {
	observers []func(float64)

	mu   sync.Mutex
	last float64
	sent atomic.Int64
}

func (p *progressTracker) update(sent, total int64) {
	p.sent.Store(sent)
	if total <= 0 {
		return
	}
	fraction := min(float64(sent)/float64(total), 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if fraction <= p.last {
		return
	}
	p.last = fraction
	for _, fn := range p.observers {
		fn(fraction)
	}
}

// UploadTask is an upload running in its own goroutine.
type UploadTask[T any] struct {
	progress chan float64
	done     chan Result[T]
	finished chan struct{}
	result   Result[T]

	mu     sync.Mutex
	closed bool
}

// UploadAsync starts Upload in a new goroutine.
//
// It panics with ErrNotConfigured before starting when c is not usable.
func UploadAsync[T any](ctx context.Context, c *Client, endpoint string, fields Fields, opts ...CallOption) *UploadTask[T] {
	c.mustBeConfigured()
	t := &UploadTask[T]{
		progress: make(chan float64, progressBuffer),
		done:     make(chan Result[T], 1),
		finished: make(chan struct{}),
	}

	opts = append(slices.Clone(opts), WithProgress(t.report))
	go func() {
		res := Upload[T](ctx, c, endpoint, fields, opts...)
		t.closeProgress()
		t.result = res
		close(t.finished)
		t.done <- res
		close(t.done)
	}()
	return t
}

// Progress yields upload fractions. Intermediate values are dropped when
// the reader falls behind; the final 1.0 is kept. The channel is closed
// before Done yields.
func (t *UploadTask[T]) Progress() <-chan float64 {
	return t.progress
}

// Done yields the result exactly once and is then closed.
func (t *UploadTask[T]) Done() <-chan Result[T] {
	return t.done
}

// Wait blocks until the upload finishes and returns its result. It may be
// called any number of times, with or without Done.
func (t *UploadTask[T]) Wait() Result[T] {
	<-t.finished
	return t.result
}

func (t *UploadTask[T]) report(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	select {
	case t.progress <- fraction:
		return
	default:
	}
	if fraction < 1 {
		return
	}
	// Make room for the final value.
	select {
	case <-t.progress:
	default:
	}
	select {
	case t.progress <- fraction:
	default:
	}
}

func (t *UploadTask[T]) closeProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.progress)
	}
}
