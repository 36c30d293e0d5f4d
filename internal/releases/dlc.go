// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"regexp"
	"strings"
)

// Explicit add-on and edition-upgrade phrases, word-boundary anchored.
var dlcPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdlc\b`),
	regexp.MustCompile(`(?i)\bexpansion\b`),
	regexp.MustCompile(`(?i)\bseason pass\b`),
	regexp.MustCompile(`(?i)\badd[ -]?on\b`),
	regexp.MustCompile(`(?i)\bsoundtrack\b`),
	regexp.MustCompile(`(?i)\bost\b`),
	regexp.MustCompile(`(?i)\bartbook\b`),
	regexp.MustCompile(`(?i)\bbonus content\b`),
	regexp.MustCompile(`(?i)\bupgrade pack\b`),
	regexp.MustCompile(`(?i)\bcontent pack\b`),
}

// trailingContentThreshold is the minimum remainder length after the catalog
// title before the trailing text is considered bundled extra content.
const trailingContentThreshold = 5

// IsAdditionalContent reports whether a release looks like DLC or an edition
// upgrade for the catalog title rather than the base game.
//
// The trailing-content rule is a heuristic: a remainder starting with a
// dash, colon, plus sign or the words "and"/"with" is treated as bundled
// content. Hyphen-prefixed release-group tags directly after an exact title
// match can trip it; callers gate auto-grab with it, where a false positive
// only delays a grab.
func IsAdditionalContent(releaseTitle, catalogTitle string) bool {
	for _, re := range dlcPhrases {
		if re.MatchString(releaseTitle) {
			return true
		}
	}

	lowerRelease := strings.ToLower(releaseTitle)
	lowerCatalog := strings.ToLower(strings.TrimSpace(catalogTitle))
	if lowerCatalog == "" {
		return false
	}

	idx := strings.Index(lowerRelease, lowerCatalog)
	if idx < 0 {
		return false
	}

	remainder := lowerRelease[idx+len(lowerCatalog):]
	if len(remainder) <= trailingContentThreshold {
		return false
	}

	trimmed := strings.TrimLeft(remainder, " .")
	if trimmed == "" {
		return false
	}

	switch trimmed[0] {
	case '+':
		return true
	case '-', ':':
		// Dash or colon followed by a word
		rest := strings.TrimLeft(trimmed[1:], " .")
		return rest != ""
	}

	word := trimmed
	if i := strings.IndexAny(word, " ."); i >= 0 {
		word = word[:i]
	}
	return word == "and" || word == "with"
}
