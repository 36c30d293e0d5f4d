// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import "strings"

// Quality tiers, worst to best. ClassifyQuality returns one of these or ""
// when no trigger matches.
const (
	QualityScene   = "scene"
	QualityDRMFree = "drmfree"
	QualityRepack  = "repack"
	QualityGOG     = "gog"
)

// qualityTriggers is consulted in order; the first title substring match
// wins. Higher-value tiers are listed first so "GOG Repack" classifies as GOG.
var qualityTriggers = []struct {
	tier     string
	patterns []string
}{
	{QualityGOG, []string{"gog", "definitive edition", "game of the year"}},
	{QualityRepack, []string{"repack", "fitgirl", "dodi"}},
	{QualityDRMFree, []string{"drm free", "drm-free", "drmfree"}},
	{QualityScene, []string{"codex", "skidrow", "plaza", "razor1911", "tenoke", "rune", "scene"}},
}

var qualityRank = map[string]int{
	QualityScene:   0,
	QualityDRMFree: 1,
	QualityRepack:  2,
	QualityGOG:     3,
}

// ClassifyQuality maps a release title to a quality tier, or "" if nothing
// in the title gives its provenance away.
func ClassifyQuality(title string) string {
	lower := strings.ToLower(title)
	for _, t := range qualityTriggers {
		for _, p := range t.patterns {
			if strings.Contains(lower, p) {
				return t.tier
			}
		}
	}
	return ""
}

// IsBetterQuality reports whether newTier is an upgrade over currentTier.
// An unrecognized non-empty tier ranks below every known tier, so it never
// beats a known current value but does beat an absent one.
func IsBetterQuality(newTier, currentTier string) bool {
	if newTier == "" {
		return false
	}
	if currentTier == "" {
		return true
	}

	newRank, newKnown := qualityRank[strings.ToLower(newTier)]
	curRank, curKnown := qualityRank[strings.ToLower(currentTier)]

	if !newKnown {
		newRank = -1
	}
	if !curKnown {
		curRank = -1
	}

	return newRank > curRank
}
