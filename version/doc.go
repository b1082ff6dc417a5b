// Package version reports the build version of apikit binaries and the
// User-Agent the HTTP transport sends.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/apikit/version.Version=1.0.0"
//
// Without ldflags, module and VCS data from debug.ReadBuildInfo is used.
package version
