// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{name: "v_marker_dotted", title: "Game.Name.v2.0.1.GOG", expected: "2.0.1"},
		{name: "v_marker_spaced", title: "Game Name v1.04", expected: "1.04"},
		{name: "v_marker_four_components", title: "Baldurs.Gate.3.v4.1.1.418", expected: "4.1.1.418"},
		{name: "version_keyword", title: "Game Name Version 1.2", expected: "1.2"},
		{name: "version_keyword_dotted", title: "Game.Name.version.2.0", expected: "2.0"},
		{name: "bare_semver_shape", title: "Game Name 1.5.2 Repack", expected: "1.5.2"},
		{name: "build_marker", title: "Game Name Build 12345", expected: "12345"},
		{name: "update_marker", title: "Game Name Update 3", expected: "3"},
		{name: "v_marker_wins_over_bare", title: "Game 1.2.3 v2.0.0", expected: "2.0.0"},
		{name: "no_version", title: "Game Name GOG", expected: ""},
		{name: "word_ending_in_v_not_marker", title: "Kiev Chronicles", expected: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseVersion(tt.title))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "equal", a: "1.0", b: "1.0", expected: 0},
		{name: "zero_padding_equal", a: "1.0", b: "1.0.0", expected: 0},
		{name: "simple_greater", a: "1.1", b: "1.0", expected: 1},
		{name: "simple_less", a: "1.0", b: "1.1", expected: -1},
		{name: "four_components", a: "4.1.1.418", b: "4.0.0", expected: 1},
		{name: "numeric_not_lexical", a: "1.10", b: "1.9", expected: 1},
		{name: "non_numeric_component_is_zero", a: "1.x", b: "1.0", expected: 0},
		{name: "semver_fast_path", a: "2.3.4", b: "2.3.5", expected: -1},
		{name: "longer_wins", a: "1.0.0.1", b: "1.0", expected: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareVersions(tt.a, tt.b))

			// Antisymmetry
			assert.Equal(t, -tt.expected, CompareVersions(tt.b, tt.a))
		})
	}
}

func TestCompareVersionsSelf(t *testing.T) {
	for _, v := range []string{"1.0", "1.0.0", "4.1.1.418", "0", "10.2"} {
		assert.Zero(t, CompareVersions(v, v), "compare(%q, %q)", v, v)
	}
}
