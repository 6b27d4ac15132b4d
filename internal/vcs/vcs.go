package vcs

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version string for the running binary, derived from the
// embedded VCS build settings: the commit revision, plus a -dirty suffix when
// the binary was built from a modified working tree.
func Version() string {
	var (
		revision string
		modified bool
	)

	bi, ok := debug.ReadBuildInfo()
	if ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					modified = true
				}
			}
		}
	}

	if revision == "" {
		return "unavailable"
	}
	if modified {
		return fmt.Sprintf("%s-dirty", revision)
	}
	return revision
}
