// Package version reports the build of the running binary.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is set at link time with -ldflags "-X ...version.Version=v1.2.3".
var Version = ""

// Short returns the module version, or "dev" for local builds.
func Short() string {
	if Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "dev"
}

// Long adds the VCS revision and toolchain to Short.
func Long() string {
	parts := []string{Short()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		var rev, modified string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					modified = "-dirty"
				}
			}
		}
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if rev != "" {
			parts = append(parts, rev+modified)
		}
	}
	parts = append(parts, runtime.Version(), runtime.GOOS+"/"+runtime.GOARCH)
	return strings.Join(parts, " ")
}

// Print writes the version banner.
func Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "wasmserve %s\n", Long())
}
