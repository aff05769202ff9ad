// SPDX-License-Identifier: MIT
package build

// Build metadata injected at link time via -ldflags, e.g.
//
//	go build -ldflags "-X github.com/tkm427/spectrum-analyzer/pkg/build.Version=v0.2.0"
var (
	Name        = "specan"
	Description = "Real-time audio spectrum analyzer and pitch monitor"
	Version     = "dev"
	Commit      = "unknown"
	BuildTime   = "unknown"
)

// Info bundles the build identity for display by the CLI.
type Info struct {
	Name        string
	Description string
	Version     string
	Commit      string
	BuildTime   string
}

// GetInfo returns the current build identity.
func GetInfo() Info {
	return Info{
		Name:        Name,
		Description: Description,
		Version:     Version,
		Commit:      Commit,
		BuildTime:   BuildTime,
	}
}
