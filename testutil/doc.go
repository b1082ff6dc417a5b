// Package testutil provides a fake envelope backend for tests of apikit
// clients.
//
// EnvelopeServer is a Gin engine behind an httptest.Server. Routes answer
// with canned envelopes or raw bodies, and every hit is recorded with its
// headers, query, form fields and uploaded files:
//
//	func TestAppSettings(t *testing.T) {
//	    srv := testutil.NewEnvelopeServer()
//	    srv.Handle(http.MethodGet, "/appSetting",
//	        testutil.EnvelopeReply(200, "ok", map[string]any{"ios_version": "2.0"}))
//	    testutil.T(t).Setup(srv)
//
//	    client, _ := rest.New(rest.Config{BaseURL: srv.BaseURL()})
//	    ...
//	    hit := srv.LastHit()
//	}
//
// EnvelopeServer implements TestComponent, so Reset clears the recorded
// hits and Snapshot/Restore save and restore them.
package testutil
