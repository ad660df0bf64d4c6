// Package build holds metadata stamped at link time.
package build

// Set via -ldflags "-X github.com/sequor-org/sequor/internal/build.Version=..."
var (
	AppName = "sequor"
	Version = "dev"
)
