// Package utils provides helper functions, including version retrieval and logger construction.
package utils

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersion = "unknown"
	develVersion   = "(devel)"
)

// Version is the application version, set via ldflags.
var Version = EmptyString

// GetApplicationVersion returns the ldflags version when present, then the module version from
// the embedded build information, and "unknown" otherwise.
func GetApplicationVersion() string {
	if trimmed := strings.TrimSpace(Version); trimmed != EmptyString {
		return trimmed
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != EmptyString && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	return unknownVersion
}
