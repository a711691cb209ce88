// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded at link time: the application name,
// build timestamp, Git commit hash and semantic version. For example:
//
//	go build -ldflags "-X pelohub/pkg/build.buildVersion=0.3.0"
//
// Development builds run without the flags and keep the defaults below.
package build

import (
	"errors"
	"fmt"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        "pelohub",
		Description: "Dysarthria detection workbench: decode, visualize, play and classify speech recordings",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies every linker-provided value into the build flags. Values
// that were not provided keep their defaults; the returned error lists them so
// the caller can warn. The flags are usable either way.
func Initialize() error {
	var missing []error
	set := func(dst *string, src, name string) {
		if src == "" {
			missing = append(missing, fmt.Errorf("%s is not set", name))
			return
		}
		*dst = src
	}

	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(missing...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString renders the version line printed by --version.
func (f *ldFlags) VersionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
