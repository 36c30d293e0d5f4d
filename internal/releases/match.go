// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "strings"

// Match confidence tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

const (
	containmentScore = 100
	perWordScore     = 15
)

// MatchScore is the raw output of Score.
type MatchScore struct {
	Score          int
	WordMatchRatio float64
}

// MatchResult is the full evaluation of one release against one catalog
// title. Derived and immutable; never persisted.
type MatchResult struct {
	ReleaseTitle   string  `json:"releaseTitle"`
	CatalogTitle   string  `json:"catalogTitle"`
	Score          int     `json:"score"`
	WordMatchRatio float64 `json:"wordMatchRatio"`
	Confidence     string  `json:"confidence"`
	Version        string  `json:"version,omitempty"`
	Quality        string  `json:"quality,omitempty"`
	Additional     bool    `json:"additional"`
}

// Score computes the match score between a normalized release title and a
// normalized catalog title. Substring containment carries most of the
// weight; each catalog word found in the release adds a smaller amount.
func Score(releaseNorm, catalogNorm string) MatchScore {
	catalogWords := strings.Fields(catalogNorm)
	if len(catalogWords) == 0 {
		return MatchScore{}
	}

	releaseWords := make(map[string]struct{})
	for _, w := range strings.Fields(releaseNorm) {
		releaseWords[w] = struct{}{}
	}

	matched := 0
	for _, w := range catalogWords {
		if _, ok := releaseWords[w]; ok {
			matched++
		}
	}

	score := matched * perWordScore
	if strings.Contains(releaseNorm, catalogNorm) {
		score += containmentScore
	}

	return MatchScore{
		Score:          score,
		WordMatchRatio: float64(matched) / float64(len(catalogWords)),
	}
}

// Confidence classifies a match score. Pure function of score and ratio.
func Confidence(score int, wordMatchRatio float64) string {
	switch {
	case score >= 150:
		return ConfidenceHigh
	case wordMatchRatio >= 0.8 && score > 100:
		return ConfidenceHigh
	case score < 80:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}

// Evaluate runs the full release-versus-catalog pipeline: normalize both
// titles, score, classify quality, extract a version and flag DLC.
func Evaluate(releaseTitle, catalogTitle string) MatchResult {
	releaseNorm := NormalizeTitle(releaseTitle)
	catalogNorm := NormalizeTitle(catalogTitle)

	ms := Score(releaseNorm, catalogNorm)

	return MatchResult{
		ReleaseTitle:   releaseNorm,
		CatalogTitle:   catalogNorm,
		Score:          ms.Score,
		WordMatchRatio: ms.WordMatchRatio,
		Confidence:     Confidence(ms.Score, ms.WordMatchRatio),
		Version:        ParseVersion(releaseTitle),
		Quality:        ClassifyQuality(releaseTitle),
		Additional:     IsAdditionalContent(releaseTitle, catalogTitle),
	}
}
