package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

// writeJSON prints v as indented JSON. When expr is set, v is run through
// the jq expression and every result is printed on its own.
func writeJSON(w io.Writer, v any, expr string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if expr == "" {
		return enc.Encode(v)
	}

	results, err := applyJQ(v, expr)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// applyJQ runs expr against the JSON form of v.
func applyJQ(v any, expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid --jq expression: %w", err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}

	var results []any
	iter := query.Run(data)
	for {
		r, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := r.(error); ok {
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
