package rest

// Header names understood by the backend.
const (
	HeaderAccept       = "Accept"
	HeaderAPIKey       = "api-key"
	HeaderVersion      = "version"
	HeaderLocalization = "X-localization"
	HeaderAccessToken  = "access-token"
)

// headers composes the per-call header set. The access token is only
// attached when the call requires authorization and a token is configured.
func (c *Config) headers(authorize bool) map[string]string {
	h := map[string]string{HeaderAccept: "application/json"}
	if c.APIKey != "" {
		h[HeaderAPIKey] = c.APIKey
	}
	if c.Version != "" {
		h[HeaderVersion] = c.Version
	}
	if c.Language != "" {
		h[HeaderLocalization] = c.Language
	}
	if authorize && c.Token != "" {
		h[HeaderAccessToken] = c.Token
	}
	return h
}
