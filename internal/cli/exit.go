package cli

import "github.com/kbukum/apikit/httpclient/rest"

// Exit codes of the apikit binary.
const (
	ExitOK         = 0
	ExitGeneric    = 1
	ExitBadRequest = 3
	ExitNetwork    = 4
	ExitParsing    = 5
	ExitUnknown    = 6
)

// ExitCode maps an Execute error to the process exit code. Call failures
// get a code per error kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	kind, ok := rest.KindOf(err)
	if !ok {
		return ExitGeneric
	}
	switch kind {
	case rest.KindBadRequest:
		return ExitBadRequest
	case rest.KindNetwork:
		return ExitNetwork
	case rest.KindParsing:
		return ExitParsing
	default:
		return ExitUnknown
	}
}
