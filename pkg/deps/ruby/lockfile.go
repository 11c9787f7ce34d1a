package ruby

import (
	"regexp"
	"strings"
)

// LockSuffix is appended to a manifest path to locate its lock file.
const LockSuffix = ".lock"

// Versions maps a gem name to the raw version string recorded in a lock file.
type Versions map[string]string

// Lookup returns the locked version of name.
func (v Versions) Lookup(name string) (string, bool) {
	version, ok := v[name]
	return version, ok
}

var lockEntryPattern = regexp.MustCompile(`(\S+)\s\((\S+)\)`)

// ParseLockfile extracts every `name (version)` entry from lock-file text.
// A trailing "!" on the name (non-registry sources) is dropped. When a name
// appears more than once the last entry wins.
func ParseLockfile(text string) Versions {
	versions := make(Versions)
	for _, line := range strings.Split(text, "\n") {
		match := lockEntryPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		versions[stripSourceMarker(match[1])] = match[2]
	}
	return versions
}

// LockfilePath returns the lock file that belongs to path. A path that is
// already a lock file is returned unchanged.
func LockfilePath(path string) string {
	if strings.HasSuffix(path, LockSuffix) {
		return path
	}
	return path + LockSuffix
}

func stripSourceMarker(name string) string {
	return strings.TrimSuffix(name, "!")
}
