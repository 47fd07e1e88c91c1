/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package version provides version information for the sassinject CLI.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v0.3.0")
	GitCommit = "unknown" // Git commit hash
	GitTag    = "unknown" // Git tag
	BuildTime = "unknown" // Build timestamp
	GitDirty  = ""        // "dirty" if working directory has uncommitted changes
)

// engineModules are the compiler bindings reported by GetBuildInfo.
var engineModules = map[string]string{
	"github.com/bep/godartsass/v2": "dartsass",
	"github.com/bep/golibsass":     "libsass",
}

// GetVersion returns the version string for the application
func GetVersion() string {
	if Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	if GitTag != "unknown" && GitCommit != "unknown" {
		return fromGit(GitTag, GitCommit, GitDirty == "dirty")
	}

	return "dev"
}

// fromGit builds tag-commit[-dirty], leaving out the commit when the tag
// already ends with it.
func fromGit(tag, commit string, dirty bool) string {
	version := tag
	if commit != "" {
		short := commit
		if len(commit) > 7 {
			short = commit[:7]
		}
		if !strings.HasSuffix(tag, short) {
			version = fmt.Sprintf("%s-%s", tag, short)
		}
	}
	if dirty {
		version += "-dirty"
	}
	return version
}

// EngineVersions returns the versions of the compiler bindings linked into
// the binary, keyed by engine name.
func EngineVersions() map[string]string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return map[string]string{}
	}
	return engineVersions(info.Deps)
}

func engineVersions(deps []*debug.Module) map[string]string {
	versions := make(map[string]string)
	for _, dep := range deps {
		name, ok := engineModules[dep.Path]
		if !ok {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		versions[name] = dep.Version
	}
	return versions
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() map[string]string {
	info := map[string]string{
		"version":   GetVersion(),
		"gitCommit": GitCommit,
		"gitTag":    GitTag,
		"buildTime": BuildTime,
		"gitDirty":  GitDirty,
	}
	for name, v := range EngineVersions() {
		info[name] = v
	}
	return info
}
