// SPDX-License-Identifier: MIT
//
// Package build holds build metadata embedded at link time, for example:
//
//	go build -ldflags "-X audioviz/pkg/build.buildName=audioviz \
//	  -X audioviz/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds run without ldflags. Initialize reports which values are
// missing and leaves the development defaults in place so the binary still
// starts.
package build

import (
	"errors"
	"fmt"
)

const (
	defaultName        = "audioviz"
	defaultDescription = "Real-time audio analysis for music visualizers"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information, populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     "dev",
	}
}

// Initialize copies whatever build information was linked in into the
// build flags. It returns an error naming every missing value; the flags for
// those keep their development defaults.
func Initialize() error {
	var errs []error

	set := func(dst *string, val, name string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			return
		}
		*dst = val
	}

	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString renders the version line printed by --version.
func VersionString() string {
	f := buildFlags
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
