// Package version exposes the mosaic build version.
//
// The version value is injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/rshade/mosaic/pkg/version.Version=v1.2.3"
//
// When built without ldflags (go run, tests), the version reports "dev".
package version

// Version is the build version, overridden at link time.
//
//nolint:gochecknoglobals // Set via ldflags at build time.
var Version = "dev"

// GetVersion returns the current build version string.
func GetVersion() string {
	return Version
}
