// Package rest is an envelope-aware client for a single JSON backend.
//
// Every response is expected to be wrapped in the same envelope:
//
//	{"status": 200, "message": "ok", "responseData": {...}}
//
// A status of 200 is the only success signal. Calls never return a plain
// error; they return a Result holding either the decoded Envelope or an
// *Error of one of four kinds (bad request, network, parsing, unknown).
//
// When the response does not decode into the expected payload type, the
// body is probed for the bare envelope shape to tell a server-side error
// from a schema mismatch from an unparseable body.
//
//	client, err := rest.New(rest.Config{
//	    BaseURL: "https://api.example.com/v1/",
//	    APIKey:  "key",
//	    Token:   token,
//	})
//
//	res := rest.Request[AppSetting](ctx, client, "appSetting",
//	    rest.WithMethod(http.MethodGet),
//	    rest.WithoutAuthorization(),
//	    rest.WithEncoding(rest.EncodingURL),
//	)
//	if setting, ok := res.Payload(); ok {
//	    ...
//	}
//
// Uploads send multipart/form-data with optional progress reporting:
//
//	task := rest.UploadAsync[Profile](ctx, client, "profile/avatar", rest.Fields{
//	    "user_id": 42,
//	    "avatar":  rest.NewMediaField(jpeg, rest.MediaImage, ""),
//	})
//	for p := range task.Progress() {
//	    fmt.Printf("%.0f%%\n", p*100)
//	}
//	res := task.Wait()
package rest
