package rest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/testutil"
)

// appSetting mirrors the backend's app settings payload.
type appSetting struct {
	IOSVersion                string `json:"ios_version" validate:"required"`
	IOSVersionForceUpdate     int    `json:"ios_version_force_update"`
	AndroidVersion            string `json:"android_version"`
	AndroidVersionForceUpdate int    `json:"android_version_force_update"`
	AdEnable                  int    `json:"ad_enable"`
	AdURL                     string `json:"ad_url"`
}

type profile struct {
	ID     int64  `json:"id" validate:"required"`
	Avatar string `json:"avatar"`
}

// versioned rejects payloads without a positive revision.
type versioned struct {
	Revision int `json:"revision"`
}

func (v versioned) Validate() error {
	if v.Revision <= 0 {
		return errors.New("revision must be positive")
	}
	return nil
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// entries returns the JSON log lines written so far.
func (b *syncBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(strings.NewReader(b.buf.String()))
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("log line is not JSON: %v (%q)", err, sc.Text())
		}
		out = append(out, e)
	}
	return out
}

func newTestLogger(level string) (*logger.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logger.NewWithWriter(&logger.Config{Level: level, Format: logger.FormatJSON}, "rest-test", buf), buf
}

// newTestClient starts a fake backend and a client configured against it.
func newTestClient(t *testing.T, cfg Config, opts ...Option) (*Client, *testutil.EnvelopeServer) {
	t.Helper()
	srv := testutil.NewEnvelopeServer()
	testutil.T(t).Setup(srv)

	cfg.BaseURL = srv.BaseURL()
	if len(opts) == 0 {
		opts = []Option{WithLogger(logger.Nop())}
	}
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, srv
}

func assertFailure[T any](t *testing.T, res Result[T], kind ErrorKind, msg string) {
	t.Helper()
	if res.OK() {
		t.Fatalf("expected %s failure %q, got success %+v", kind, msg, res.Envelope)
	}
	if res.Envelope != nil {
		t.Errorf("failure must not carry an envelope")
	}
	if res.Err.Kind != kind {
		t.Errorf("kind = %s, want %s (message %q)", res.Err.Kind, kind, res.Err.Message)
	}
	if msg != "" && res.Err.Message != msg {
		t.Errorf("message = %q, want %q", res.Err.Message, msg)
	}
}
