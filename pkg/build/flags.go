// SPDX-License-Identifier: MIT
//
// Package build exposes the metadata stamped into the binary with linker
// flags:
//
//	go build -ldflags "-X chords/pkg/build.buildName=chords \
//	    -X chords/pkg/build.buildVersion=0.3.0 \
//	    -X chords/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X chords/pkg/build.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Development builds run without them and report "dev"/"unknown".
package build

import (
	"errors"
	"fmt"
)

// ErrMissingFlag is wrapped by Initialize for each flag not set at link time.
var ErrMissingFlag = errors.New("build flag not set")

// Info describes the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String renders the info for --version and the startup log.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:    "chords",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize copies the linker-provided values over the defaults. Flags
// that were not set keep their default and are reported together in the
// returned error; the info is usable either way.
func Initialize() error {
	var errs []error
	set := func(dst *string, v, name string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFlag, name))
			return
		}
		*dst = v
	}

	set(&buildFlags.Name, buildName, "buildName")
	set(&buildFlags.Time, buildTime, "buildTime")
	set(&buildFlags.Commit, buildCommit, "buildCommit")
	set(&buildFlags.Version, buildVersion, "buildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Info {
	return buildFlags
}
