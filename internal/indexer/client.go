// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/buildinfo"
	"github.com/ForbesGRyan/gamearr-sub004/internal/releases"
)

var ErrNotConfigured = errors.New("indexer not configured")

const maxTorrentDownloadBytes int64 = 16 << 20 // safety limit for torrent blobs

const (
	fetchAttempts   = 3
	fetchRetryDelay = 2 * time.Second
)

// Client talks to a Torznab-compatible release indexer (Jackett, Prowlarr
// or a native torznab endpoint).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeoutSeconds int) *Client {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

// Configured reports whether the client has enough settings to be used.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// torznab feed shape; only the fields the engine consumes.
type torznabFeed struct {
	Channel struct {
		Items []torznabItem `xml:"item"`
	} `xml:"channel"`
}

type torznabItem struct {
	Title   string        `xml:"title"`
	GUID    string        `xml:"guid"`
	Link    string        `xml:"link"`
	Size    int64         `xml:"size"`
	PubDate string        `xml:"pubDate"`
	Attrs   []torznabAttr `xml:"attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// FetchRecent returns releases published after since, in feed order. A zero
// since returns the whole current feed window.
func (c *Client) FetchRecent(ctx context.Context, since time.Time) ([]releases.Candidate, error) {
	candidates, err := c.search(ctx, "")
	if err != nil {
		return nil, err
	}

	if since.IsZero() {
		return candidates, nil
	}

	recent := candidates[:0]
	for _, cand := range candidates {
		if cand.PublishDate.After(since) {
			recent = append(recent, cand)
		}
	}
	return recent, nil
}

// Search queries the indexer for a specific title.
func (c *Client) Search(ctx context.Context, query string) ([]releases.Candidate, error) {
	return c.search(ctx, query)
}

func (c *Client) search(ctx context.Context, query string) ([]releases.Candidate, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("t", "search")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	if query != "" {
		params.Set("q", query)
	}

	reqURL := fmt.Sprintf("%s/api?%s", c.baseURL, params.Encode())

	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.get(ctx, reqURL)
			return err
		},
		retry.Attempts(fetchAttempts),
		retry.Delay(fetchRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch releases")
	}

	var feed torznabFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, errors.Wrap(err, "failed to parse torznab response")
	}

	candidates := make([]releases.Candidate, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		cand := releases.Candidate{
			GUID:        item.GUID,
			Title:       item.Title,
			Size:        item.Size,
			Indexer:     c.indexerName(),
			DownloadURL: item.Link,
		}

		if t, err := parsePubDate(item.PubDate); err == nil {
			cand.PublishDate = t
		}

		for _, attr := range item.Attrs {
			switch attr.Name {
			case "seeders":
				cand.Seeders, _ = strconv.Atoi(attr.Value)
			case "peers", "leechers":
				cand.Peers, _ = strconv.Atoi(attr.Value)
			case "size":
				if cand.Size == 0 {
					cand.Size, _ = strconv.ParseInt(attr.Value, 10, 64)
				}
			}
		}

		cand.Enrich()
		candidates = append(candidates, cand)
	}

	log.Debug().
		Str("query", query).
		Int("results", len(candidates)).
		Msg("Indexer search completed")

	return candidates, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// DownloadTorrent fetches the torrent blob behind a candidate's download
// locator.
func (c *Client) DownloadTorrent(ctx context.Context, downloadURL string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download torrent")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torrent download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTorrentDownloadBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read torrent body")
	}
	if int64(len(data)) > maxTorrentDownloadBytes {
		return nil, fmt.Errorf("torrent exceeds %d byte limit", maxTorrentDownloadBytes)
	}

	return data, nil
}

func (c *Client) indexerName() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Host
}

// parsePubDate accepts the RFC1123 variants indexers emit.
func parsePubDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate %q", value)
}
