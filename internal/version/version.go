// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package version holds the build information of the commander binary. The
// values can be overridden with -ldflags "-X".
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	// Name is the name of the binary.
	Name = "commander"

	// Version is the main module version, or "source" for local builds.
	Version = moduleVersion()

	// Commit is the VCS revision, or "HEAD" if none was recorded.
	Commit = vcsRevision()

	// OSArch is the target platform, e.g. "linux/amd64".
	OSArch = runtime.GOOS + "/" + runtime.GOARCH

	// HumanVersion is the version string shown by -version.
	HumanVersion = Name + " " + Version + " (" + Commit + ", " + OSArch + ")"
)

func moduleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "source"
}

func vcsRevision() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}
	return "HEAD"
}
