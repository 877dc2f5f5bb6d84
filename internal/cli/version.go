package cli

import (
	"runtime/debug"
	"strings"
)

// UnknownVersion is reported by local builds that carry no release tag.
const UnknownVersion = "unknown"

// version is set with -ldflags at release time.
var version string

// GetVersion falls back to the module version from the build info, without
// a leading "v".
func GetVersion() string {
	v := version
	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			v = info.Main.Version
		}
	}
	return normalizeVersion(v)
}

func normalizeVersion(v string) string {
	// go build inside a checkout stamps "(devel)".
	if v == "" || v == "(devel)" {
		return UnknownVersion
	}
	return strings.TrimPrefix(v, "v")
}
