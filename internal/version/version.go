// Package version reports build information. The variables are set at link
// time, for example:
//
//	-ldflags "-X github.com/anime-shed/lesion-inspector-go/internal/version.version=v1.2.0"
package version

import "runtime/debug"

var (
	version = ""
	commit  = ""
	date    = ""
)

// Version returns ldflags, then module build info, then "(devel)"
func Version() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// Commit returns the short VCS revision, or "unknown"
func Commit() string {
	if commit != "" {
		return commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		if len(rev) > 7 {
			return rev[:7]
		}
		return rev
	}
	return "unknown"
}

// Date returns the VCS commit time, or "unknown"
func Date() string {
	if date != "" {
		return date
	}
	if t := buildSetting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
