// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdditionalContent(t *testing.T) {
	tests := []struct {
		name         string
		releaseTitle string
		catalogTitle string
		expected     bool
	}{
		{
			name:         "explicit_dlc_phrase",
			releaseTitle: "Game Name DLC Pack",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "expansion_phrase",
			releaseTitle: "Game.Name.Expansion",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "season_pass",
			releaseTitle: "Game Name Season Pass",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "trailing_dash_content",
			releaseTitle: "Game Name - Blood and Wine",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "trailing_plus",
			releaseTitle: "Game Name + Artpack Bundle",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "trailing_and",
			releaseTitle: "Game Name and the Lost Kingdom",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "trailing_with",
			releaseTitle: "Game Name with Bonus Pack",
			catalogTitle: "Game Name",
			expected:     true,
		},
		{
			name:         "base_game_plain",
			releaseTitle: "Game Name",
			catalogTitle: "Game Name",
			expected:     false,
		},
		{
			name:         "short_remainder_ignored",
			releaseTitle: "Game Name v2",
			catalogTitle: "Game Name",
			expected:     false,
		},
		{
			name:         "unrelated_title",
			releaseTitle: "Other Game Entirely",
			catalogTitle: "Game Name",
			expected:     false,
		},
		{
			// Known imprecision: a scene tag after an exact title match
			// looks like trailing content. Costs a delayed grab at most.
			name:         "hyphenated_group_tag_false_positive",
			releaseTitle: "Game Name-RAZOR1911",
			catalogTitle: "Game Name",
			expected:     true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAdditionalContent(tt.releaseTitle, tt.catalogTitle))
		})
	}
}
