// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"time"

	"github.com/moistari/rls"
)

// Candidate is one observed release from a feed poll. Ephemeral, never
// persisted by the engine.
type Candidate struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Size        int64     `json:"size"`
	Seeders     int       `json:"seeders"`
	Peers       int       `json:"peers"`
	Indexer     string    `json:"indexer"`
	PublishDate time.Time `json:"publishDate"`
	DownloadURL string    `json:"downloadUrl"`

	// Enriched from the release name, zero-valued until Enrich runs.
	Group string `json:"group,omitempty"`
	Year  int    `json:"year,omitempty"`
}

// Enrich parses the release name and fills in the derived fields.
func (c *Candidate) Enrich() {
	r := rls.ParseString(c.Title)
	c.Group = r.Group
	c.Year = r.Year
}
