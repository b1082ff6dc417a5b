package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/validation"
)

// Strict decode failure categories, as logged.
const (
	reasonSyntax       = "syntax"
	reasonTypeMismatch = "type_mismatch"
	reasonUnknownKey   = "unknown_key"
	reasonMissingValue = "missing_value"
	reasonInvalid      = "invalid"
)

// Wire names of the envelope keys. They are matched exactly.
const (
	keyStatus  = "status"
	keyMessage = "message"
	keyData    = "responseData"
)

var errNotObject = errors.New("rest: response body is not a JSON object")

// envelopeHead is the envelope with the payload left undecoded.
type envelopeHead struct {
	Status  int64
	Message string
	Data    json.RawMessage
}

// readHead decodes the envelope keys of body, which must be a JSON object.
func readHead(body []byte) (envelopeHead, error) {
	var (
		head   envelopeHead
		fields map[string]json.RawMessage
	)
	if err := json.Unmarshal(body, &fields); err != nil {
		return head, err
	}
	if fields == nil {
		return head, errNotObject
	}
	if raw, ok := fields[keyStatus]; ok {
		if err := json.Unmarshal(raw, &head.Status); err != nil {
			return head, err
		}
	}
	if raw, ok := fields[keyMessage]; ok {
		if err := json.Unmarshal(raw, &head.Message); err != nil {
			return head, err
		}
	}
	head.Data = fields[keyData]
	return head, nil
}

// validator is implemented by payload types with their own checks.
type validator interface {
	Validate() error
}

// decoder turns response bodies into results. It holds no state that
// changes between calls.
type decoder struct {
	strict bool
	log    *logger.Logger
}

// decode resolves body into a Result.
func decode[T any](d decoder, body []byte) Result[T] {
	env, err := decodeStrict[T](body, d.strict)
	if err == nil {
		if !env.Success() {
			return failure[T](NewUnknownError(messageOr(env.Message)))
		}
		return success(env)
	}

	d.log.Warn("response does not match the expected payload", logger.Fields(
		logger.FieldReason, strictReason(err),
		logger.FieldError, err.Error(),
	))
	return probe[T](body)
}

// decodeStrict decodes the envelope and, for a success status, its payload
// into T and runs the payload's validation. The payload of an error
// envelope is not looked at.
func decodeStrict[T any](body []byte, strict bool) (*Envelope[T], error) {
	head, err := readHead(body)
	if err != nil {
		return nil, err
	}

	env := &Envelope[T]{Status: head.Status, Message: head.Message}
	if !env.Success() || len(head.Data) == 0 || bytes.Equal(head.Data, []byte("null")) {
		return env, nil
	}

	var data T
	dec := json.NewDecoder(bytes.NewReader(head.Data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if err := validation.Validate(&data); err != nil {
		return nil, err
	}
	if v, ok := any(&data).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	env.Data = &data
	return env, nil
}

// probe decodes body as a bare envelope to classify a strict failure.
func probe[T any](body []byte) Result[T] {
	env, err := decodeStrict[Empty](body, false)
	if err != nil {
		return failure[T](NewParsingError(MessageUnparseable))
	}
	if !env.Success() {
		return failure[T](NewUnknownError(messageOr(env.Message)))
	}
	return failure[T](NewUnknownError(MessageUnexpectedFormat))
}

func messageOr(msg string) string {
	if msg == "" {
		return MessageUnknown
	}
	return msg
}

func strictReason(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		valErr    *validation.Error
	)
	switch {
	case errors.As(err, &syntaxErr):
		return reasonSyntax
	case errors.As(err, &typeErr):
		return reasonTypeMismatch
	case errors.As(err, &valErr):
		return reasonMissingValue
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return reasonUnknownKey
	default:
		return reasonInvalid
	}
}
