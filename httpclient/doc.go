// Package httpclient provides the HTTP transport used by apikit: a
// configurable adapter with default headers, TLS, upload progress and
// cancel-all support.
//
// The adapter handles all HTTP protocol concerns. The rest subpackage
// layers the envelope protocol on top of it.
//
// # Basic Usage
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 30 * time.Second,
//	})
//
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "/app-settings",
//	})
//
// A non-2xx response is returned together with a classified *Error so the
// body stays available to the caller. Transport failures return a nil
// response.
//
// # Cancel All
//
// CancelAll aborts every request in flight at the time of the call:
//
//	adapter.CancelAll()
package httpclient
