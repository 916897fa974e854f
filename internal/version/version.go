// Copyright 2022 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package version implements reading of build version information.
package version

import (
	"fmt"
	"runtime"

	"github.com/kkrt-labs/kakarot-playground/version"
)

const ourPath = "github.com/kkrt-labs/kakarot-playground" // Path to our module

// Family holds the textual version string for major.minor
var Family = fmt.Sprintf("%d.%d", version.Major, version.Minor)

// Semantic holds the textual version string for major.minor.patch.
var Semantic = fmt.Sprintf("%d.%d.%d", version.Major, version.Minor, version.Patch)

// WithMeta holds the textual version string including the metadata.
var WithMeta = func() string {
	v := Semantic
	if version.Meta != "" {
		v += "-" + version.Meta
	}
	return v
}()

// WithCommit appends the short commit hash and, for unstable builds, the
// commit date.
func WithCommit(gitCommit, gitDate string) string {
	vsn := WithMeta
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if (version.Meta != "stable") && (gitDate != "") {
		vsn += "-" + gitDate
	}
	return vsn
}

// ClientName creates a software name/version identifier like
// playground/v0.3.0-unstable-1a2b3c4d/linux-amd64/go1.22.
// ClientName 生成形如 playground/v0.3.0/linux-amd64/go1.22 的软件标识。
func ClientName(clientIdentifier string) string {
	vsn := WithMeta
	if info, ok := VCS(); ok {
		vsn = WithCommit(info.Commit, info.Date)
	}
	return fmt.Sprintf("%s/v%v/%v-%v/%v",
		clientIdentifier,
		vsn,
		runtime.GOOS,
		runtime.GOARCH,
		runtime.Version(),
	)
}
