package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

func get(t *testing.T, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestEnvelopeServer_Lifecycle(t *testing.T) {
	srv := NewEnvelopeServer()
	ctx := context.Background()

	if srv.BaseURL() != "" {
		t.Error("BaseURL() should be empty before Start")
	}
	cleanup, err := Setup(ctx, srv)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if !strings.HasSuffix(srv.BaseURL(), "/") {
		t.Errorf("BaseURL() should end with a slash, got %q", srv.BaseURL())
	}
	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if srv.BaseURL() != "" {
		t.Error("BaseURL() should be empty after Stop")
	}
}

func TestEnvelopeServer_EnvelopeReply(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodGet, "/appSetting", EnvelopeReply(200, "ok", map[string]any{"ios_version": "2.0"}))
	T(t).Setup(srv)

	resp, body := get(t, srv.BaseURL()+"appSetting?device_type=iOS")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	want := `{"message":"ok","responseData":{"ios_version":"2.0"},"status":200}`
	if string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}

	hit := srv.LastHit()
	if hit.Method != http.MethodGet || hit.Path != "/appSetting" {
		t.Errorf("unexpected hit %s %s", hit.Method, hit.Path)
	}
	if hit.Query.Get("device_type") != "iOS" {
		t.Errorf("query not recorded: %v", hit.Query)
	}
}

func TestEnvelopeServer_NoRoute(t *testing.T) {
	srv := NewEnvelopeServer()
	T(t).Setup(srv)

	resp, body := get(t, srv.BaseURL()+"missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":404`) {
		t.Errorf("expected envelope body, got %s", body)
	}
	if len(srv.Hits()) != 1 {
		t.Errorf("expected unrouted hit to be recorded, got %d", len(srv.Hits()))
	}
}

func TestEnvelopeServer_RecordsForm(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodPost, "/login", RawReply(`{"status":200}`).WithStatusCode(201))
	T(t).Setup(srv)

	resp, err := http.PostForm(srv.BaseURL()+"login", url.Values{"email": {"a@b.c"}})
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}

	hit := srv.LastHit()
	if hit.Form.Get("email") != "a@b.c" {
		t.Errorf("form not recorded: %v", hit.Form)
	}
	if string(hit.Body) != "email=a%40b.c" {
		t.Errorf("raw body not recorded: %q", hit.Body)
	}
}

func TestEnvelopeServer_RecordsMultipart(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodPost, "/upload", EnvelopeReply(200, "", nil))
	T(t).Setup(srv)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("user_id", "42")
	part, _ := w.CreateFormFile("avatar", "face.jpg")
	_, _ = part.Write([]byte("jpeg"))
	_ = w.Close()

	resp, err := http.Post(srv.BaseURL()+"upload", w.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	hit := srv.LastHit()
	if hit.Form.Get("user_id") != "42" {
		t.Errorf("field not recorded: %v", hit.Form)
	}
	f, ok := hit.Files["avatar"]
	if !ok {
		t.Fatalf("file not recorded: %v", hit.Files)
	}
	if f.Filename != "face.jpg" || string(f.Data) != "jpeg" {
		t.Errorf("unexpected file %+v", f)
	}
}

func TestEnvelopeServer_JSONBody(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodPost, "/echo", JSONReply(map[string]int{"status": 200}))
	T(t).Setup(srv)

	resp, err := http.Post(srv.BaseURL()+"echo", "application/json", strings.NewReader(`{"device_type":"iOS"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	var got map[string]string
	if err := srv.LastHit().JSON(&got); err != nil {
		t.Fatalf("decode hit: %v", err)
	}
	if got["device_type"] != "iOS" {
		t.Errorf("unexpected body %v", got)
	}
}

func TestEnvelopeServer_Drop(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodGet, "/drop", Reply{Drop: true})
	T(t).Setup(srv)

	if _, err := http.Get(srv.BaseURL() + "drop"); err == nil {
		t.Fatal("expected transport error for dropped connection")
	}
}

func TestEnvelopeServer_HoldAndAwait(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodGet, "/hold", Reply{Hold: true})
	T(t).Setup(srv)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.BaseURL()+"hold", http.NoBody)
		_, err := http.DefaultClient.Do(req)
		errc <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := srv.AwaitHits(waitCtx, 1); err != nil {
		t.Fatalf("AwaitHits: %v", err)
	}
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled request, got %v", err)
	}
}

func TestEnvelopeServer_AwaitHitsTimeout(t *testing.T) {
	srv := NewEnvelopeServer()
	T(t).Setup(srv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := srv.AwaitHits(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestEnvelopeServer_ResetSnapshotRestore(t *testing.T) {
	srv := NewEnvelopeServer()
	srv.Handle(http.MethodGet, "/ping", EnvelopeReply(200, "pong", nil))
	h := T(t)
	h.Setup(srv)

	get(t, srv.BaseURL()+"ping")
	snap := h.Snapshot(srv)

	h.Reset(srv)
	if n := len(srv.Hits()); n != 0 {
		t.Fatalf("expected no hits after Reset, got %d", n)
	}

	get(t, srv.BaseURL()+"ping")
	if n := len(srv.Hits()); n != 1 {
		t.Fatalf("routes should survive Reset, got %d hits", n)
	}

	h.Restore(srv, snap)
	if n := len(srv.Hits()); n != 1 {
		t.Errorf("expected restored snapshot with 1 hit, got %d", n)
	}
	if err := srv.Restore(context.Background(), "bogus"); err == nil {
		t.Error("expected error for a foreign snapshot")
	}
}

func TestEnvelopeReply_NullData(t *testing.T) {
	r := EnvelopeReply(500, "server error", nil)
	want := `{"message":"server error","responseData":null,"status":500}`
	if string(r.Body) != want {
		t.Errorf("body = %s, want %s", r.Body, want)
	}
}
