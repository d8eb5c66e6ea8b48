// Package version holds the CLI version, overridden at release build time
// via -ldflags.
package version

var Version = "dev"
