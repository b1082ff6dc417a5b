package rest

import "github.com/kbukum/apikit/observability"

// Result is the outcome of a call: exactly one of Envelope and Err is set.
type Result[T any] struct {
	Envelope *Envelope[T]
	Err      *Error
}

func success[T any](env *Envelope[T]) Result[T] {
	return Result[T]{Envelope: env}
}

func failure[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the envelope or the error in the usual Go shape.
func (r Result[T]) Unwrap() (*Envelope[T], error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Envelope, nil
}

// Payload returns the decoded payload. It reports false for failures and
// for successful envelopes without responseData.
func (r Result[T]) Payload() (T, bool) {
	var zero T
	if r.Err != nil || r.Envelope == nil || r.Envelope.Data == nil {
		return zero, false
	}
	return *r.Envelope.Data, true
}

// outcome labels the result for logs, spans and metrics.
func (r Result[T]) outcome() string {
	if r.Err == nil {
		return observability.OutcomeSuccess
	}
	return r.Err.Kind.String()
}
