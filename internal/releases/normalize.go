// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strings"
	"unicode"
)

// NormalizeTitle canonicalizes a release or catalog title for comparison.
// Lower-cases, strips apostrophes (straight and curly variants), replaces
// every other non-alphanumeric character with a space, and collapses
// whitespace. Idempotent.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))

	// Apostrophes disappear entirely so "Baldur's" matches "Baldurs"
	title = strings.ReplaceAll(title, "'", "")
	title = strings.ReplaceAll(title, "’", "") // right single quote
	title = strings.ReplaceAll(title, "‘", "") // left single quote
	title = strings.ReplaceAll(title, "`", "")

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
