// Package version provides build information stamped into each binary
package version

import "fmt"

// BuildInfo holds version information about a build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set via -ldflags "-X 'chatminer/internal/core/version.version=v0.1.0'
// -X 'chatminer/internal/core/version.commit=abcd' -X 'chatminer/internal/core/version.date=2024-06-01'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information for the named binary
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders "service version (commit, date)"
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (%s, %s)", b.Service, b.Version, b.Commit, b.Date)
}
