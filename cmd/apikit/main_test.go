package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/apikit/httpclient/rest"
	"github.com/kbukum/apikit/internal/cli"
)

func TestRun(t *testing.T) {
	prev := execute
	t.Cleanup(func() { execute = prev })

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, cli.ExitOK},
		{"network failure", rest.NewNetworkError("connection refused"), cli.ExitNetwork},
		{"server error", rest.NewUnknownError("maintenance"), cli.ExitUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execute = func(context.Context, []string, io.Writer, io.Writer) error { return tt.err }

			var stderr bytes.Buffer
			if got := run(nil, io.Discard, &stderr); got != tt.want {
				t.Errorf("run() = %d, want %d", got, tt.want)
			}
			if tt.err != nil && !strings.Contains(stderr.String(), tt.err.Error()) {
				t.Errorf("stderr = %q, want the error", stderr.String())
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if got := run([]string{"version"}, &stdout, io.Discard); got != cli.ExitOK {
		t.Fatalf("run(version) = %d", got)
	}
	if stdout.Len() == 0 {
		t.Error("version printed nothing")
	}
}
