package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/apikit/httpclient/rest"
)

func newRequestCmd(o *rootOptions) *cobra.Command {
	var (
		method   string
		encoding string
		params   []string
		noAuth   bool
	)

	cmd := &cobra.Command{
		Use:   "request <endpoint>",
		Short: "Send a call and print the response envelope",
		Example: `  # POST with a JSON body
  apikit request profile -p name=ada -p 'tags=["a","b"]'

  # GET with query parameters, without the access token
  apikit request feed -X GET --encoding url -p page=2 --no-auth

  # Print only the payload
  apikit request profile --jq .responseData`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := rest.ParseEncoding(encoding)
			if err != nil {
				return err
			}
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}

			opts := []rest.CallOption{
				rest.WithMethod(strings.ToUpper(method)),
				rest.WithEncoding(enc),
				rest.WithParams(values),
			}
			if noAuth {
				opts = append(opts, rest.WithoutAuthorization())
			}

			res := rest.Request[json.RawMessage](cmd.Context(), c, args[0], opts...)
			if res.Err != nil {
				return res.Err
			}
			return writeJSON(cmd.OutOrStdout(), res.Envelope, o.jq)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&method, "method", "X", http.MethodPost, "HTTP method")
	f.StringVar(&encoding, "encoding", "json", "parameter encoding: json, url or query")
	f.StringArrayVarP(&params, "param", "p", nil, "parameter as key=value; JSON values are decoded")
	f.BoolVar(&noAuth, "no-auth", false, "omit the access token")
	return cmd
}

// parseParams turns key=value pairs into call parameters. Values that are
// valid JSON other than a bare string keep their JSON type.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q must be key=value", pair)
		}
		params[key] = paramValue(raw)
	}
	return params, nil
}

func paramValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	if _, isString := v.(string); isString {
		return raw
	}
	return v
}
