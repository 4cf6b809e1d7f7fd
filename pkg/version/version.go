// Package version exposes the build version of the notekit binary.
package version

// version is overridden at link time via
// -ldflags "-X github.com/kmoran/notekit/pkg/version.version=...".
var version = "dev"

// GetVersion returns the notekit build version.
func GetVersion() string {
	return version
}
