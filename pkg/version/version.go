// Package version carries build identification injected at link time.
package version

// Set with -ldflags "-X github.com/Sumatoshi-tech/despecter/pkg/version.Version=…".
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = "<unknown>"
)
