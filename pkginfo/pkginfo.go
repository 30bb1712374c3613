// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package pkginfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	BuildDate  string
	CommitHash string
	Version    string
)

// Info bundles the build metadata injected with -ldflags
type Info struct {
	Version    string
	CommitHash string
	BuildDate  string
	OSArch     string
	GoVersion  string
}

func Current() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
		OSArch:     runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:  runtime.Version(),
	}
}

func (info Info) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Version", info.Version)
	e.Str("Commit", info.CommitHash)
}

// BuildVersionString returns a version info string suitable for printing on the command line
func BuildVersionString() string {
	info := Current()
	return fmt.Sprintf(`pvfeatures %s %s

Build Date: %s
Commit: %s
Built with: %s`, info.Version, info.OSArch, info.BuildDate, info.CommitHash, info.GoVersion)
}

// GetDependencyList returns every linked module as `path="version"`, sorted
func GetDependencyList() []string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		log.Error().Msg("could not get package build info")
		return nil
	}

	deps := make([]string, 0, len(buildInfo.Deps))
	for _, dep := range buildInfo.Deps {
		deps = append(deps, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}

	sort.Strings(deps)
	return deps
}
