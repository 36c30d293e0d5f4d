// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version extraction patterns, tried in priority order. First match wins.
var versionPatterns = []*regexp.Regexp{
	// Explicit v-marker: "v2.0.1", "Game.v1.04"
	regexp.MustCompile(`(?i)(?:^|[^a-z0-9])v(\d+(?:\.\d+)*)`),
	// "version" keyword: "Version 1.2", "version.2.0"
	regexp.MustCompile(`(?i)version[ ._-]*(\d+(?:\.\d+)*)`),
	// Bare semantic-version-shaped run with three or more components
	regexp.MustCompile(`(?:^|[^\d])(\d+(?:\.\d+){2,})(?:[^\d]|$)`),
	// "build 12345"
	regexp.MustCompile(`(?i)\bbuild[ ._-]*(\d+)\b`),
	// "update 3" / "update 1.5"
	regexp.MustCompile(`(?i)\bupdate[ ._-]*(\d+(?:\.\d+)*)\b`),
}

// ParseVersion extracts a version token from a release title. Returns ""
// when no pattern matches; malformed or exotic version markers are treated
// as absent, never as an error.
func ParseVersion(title string) string {
	for _, re := range versionPatterns {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1]
		}
	}
	return ""
}

// CompareVersions compares two dot-separated version strings and returns
// -1, 0 or 1. Strict semver strings take the semver fast path; everything
// else (four-component game versions, build numbers) is compared
// component-wise with non-numeric components treated as 0 and the shorter
// side zero-padded, so "1.0" equals "1.0.0".
func CompareVersions(a, b string) int {
	if av, err := semver.StrictNewVersion(strings.TrimSpace(a)); err == nil {
		if bv, err := semver.StrictNewVersion(strings.TrimSpace(b)); err == nil {
			return av.Compare(bv)
		}
	}

	as := strings.Split(strings.TrimSpace(a), ".")
	bs := strings.Split(strings.TrimSpace(b), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		var ai, bi int
		if i < len(as) {
			ai, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bi, _ = strconv.Atoi(bs[i])
		}

		if ai < bi {
			return -1
		}
		if ai > bi {
			return 1
		}
	}

	return 0
}
