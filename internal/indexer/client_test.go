// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const torznabFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:torznab="http://torznab.com/schemas/2015/feed">
  <channel>
    <item>
      <title>Baldurs.Gate.3.v4.1.1.418-RUNE</title>
      <guid>guid-1</guid>
      <link>http://indexer.local/dl/1.torrent</link>
      <size>104857600</size>
      <pubDate>Mon, 10 Aug 2026 10:00:00 +0000</pubDate>
      <torznab:attr name="seeders" value="42" />
      <torznab:attr name="peers" value="7" />
    </item>
    <item>
      <title>Old.Game.v1.0.GOG</title>
      <guid>guid-2</guid>
      <link>http://indexer.local/dl/2.torrent</link>
      <size>52428800</size>
      <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
      <torznab:attr name="seeders" value="3" />
    </item>
  </channel>
</rss>`

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "search", r.URL.Query().Get("t"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(torznabFixture))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestSearchParsesTorznabFeed(t *testing.T) {
	srv := newFixtureServer(t)
	client := NewClient(srv.URL, "test-key", 5)

	candidates, err := client.Search(context.Background(), "baldurs gate")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "guid-1", first.GUID)
	assert.Equal(t, "Baldurs.Gate.3.v4.1.1.418-RUNE", first.Title)
	assert.Equal(t, int64(104857600), first.Size)
	assert.Equal(t, 42, first.Seeders)
	assert.Equal(t, 7, first.Peers)
	assert.Equal(t, "http://indexer.local/dl/1.torrent", first.DownloadURL)
	assert.Equal(t, 2026, first.PublishDate.Year())
	assert.Equal(t, "RUNE", first.Group)
}

func TestFetchRecentFiltersBySince(t *testing.T) {
	srv := newFixtureServer(t)
	client := NewClient(srv.URL, "test-key", 5)

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates, err := client.FetchRecent(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "guid-1", candidates[0].GUID)

	// Zero since returns the whole feed window
	candidates, err = client.FetchRecent(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestSearchNotConfigured(t *testing.T) {
	client := NewClient("", "", 5)

	_, err := client.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = client.FetchRecent(context.Background(), time.Time{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParsePubDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "rfc1123z", value: "Mon, 10 Aug 2026 10:00:00 +0000"},
		{name: "rfc1123", value: "Mon, 10 Aug 2026 10:00:00 UTC"},
		{name: "rfc3339", value: "2026-08-10T10:00:00Z"},
		{name: "garbage", value: "not a date", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePubDate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
