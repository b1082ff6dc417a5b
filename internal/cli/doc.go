// Package cli implements the apikit command line: typed calls against an
// envelope API configured through config.yml, .env files, environment
// variables or flags.
package cli
