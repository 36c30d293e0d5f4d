// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/buildinfo"
)

var ErrNotConfigured = errors.New("metadata service not configured")

const searchCacheTTL = 30 * time.Minute

// GameInfo is one metadata search hit.
type GameInfo struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Platform      string `json:"platform,omitempty"`
	ReleaseYear   int    `json:"releaseYear,omitempty"`
	LatestVersion string `json:"latestVersion,omitempty"`
}

// BatchProgress reports progress during a bulk search. One-shot per batch
// run, not restartable.
type BatchProgress struct {
	Done  int
	Total int
	Query string
}

// Client queries an external game metadata service, used by the update
// check to confirm that a parsed version bump is a real release. Search
// responses are cached for a short window since bulk update checks repeat
// queries across games.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	cache *ttlcache.Cache[string, []GameInfo]
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache: ttlcache.New(ttlcache.Options[string, []GameInfo]{}.
			SetDefaultTTL(searchCacheTTL)),
	}
}

// Configured reports whether the client can be used.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Search queries the metadata service for a title.
func (c *Client) Search(ctx context.Context, query string) ([]GameInfo, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if cached, found := c.cache.Get(query); found {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", query)

	reqURL := fmt.Sprintf("%s/api/games/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "metadata search failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata response")
	}

	var results []GameInfo
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, errors.Wrap(err, "failed to parse metadata response")
	}

	c.cache.Set(query, results, ttlcache.DefaultTTL)

	return results, nil
}

// SearchBatch runs a search per query, invoking progress after each one.
// Per-query failures are collected and returned at the end; one bad query
// never aborts the batch.
func (c *Client) SearchBatch(ctx context.Context, queries []string, progress func(BatchProgress)) (map[string][]GameInfo, []error) {
	if !c.Configured() {
		return nil, []error{ErrNotConfigured}
	}

	results := make(map[string][]GameInfo, len(queries))
	var errs []error

	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		hits, err := c.Search(ctx, query)
		if err != nil {
			errs = append(errs, fmt.Errorf("query %q: %w", query, err))
		} else {
			results[query] = hits
		}

		if progress != nil {
			progress(BatchProgress{Done: i + 1, Total: len(queries), Query: query})
		}
	}

	log.Debug().
		Int("queries", len(queries)).
		Int("failed", len(errs)).
		Msg("Metadata batch search completed")

	return results, errs
}
