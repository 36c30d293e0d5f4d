// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package downloads

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/anacrolix/torrent/metainfo"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConfigured    = errors.New("download client not configured")
	ErrTorrentNotFound  = errors.New("torrent not found")
	ErrConnectionFailed = errors.New("failed to connect to download client")
)

// Download states the engine cares about.
const (
	StateDownloading = "downloading"
	StateCompleted   = "completed"
	StateStalled     = "stalled"
	StateErrored     = "errored"
	StateUnknown     = "unknown"
)

// Status is the engine's view of one submitted download.
type Status struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
}

// SubmitResult acknowledges a submitted torrent.
type SubmitResult struct {
	Hash string
	Name string
}

// Client wraps a qBittorrent instance as the engine's acquisition backend.
// Login is lazy and re-attempted on demand so an unreachable client at
// startup does not wedge the service.
type Client struct {
	host     string
	username string
	password string
	category string

	mu       sync.Mutex
	qbt      *qbt.Client
	loggedIn bool
}

func NewClient(host, username, password, category string) *Client {
	if category == "" {
		category = "gamearr"
	}

	c := &Client{
		host:     host,
		username: username,
		password: password,
		category: category,
	}

	if host != "" {
		c.qbt = qbt.NewClient(qbt.Config{
			Host:     host,
			Username: username,
			Password: password,
			Timeout:  30,
		})
	}

	return c
}

// Configured reports whether a host was provided.
func (c *Client) Configured() bool {
	return c.host != ""
}

func (c *Client) login(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn {
		return nil
	}

	if err := c.qbt.LoginCtx(ctx); err != nil {
		return errors.Wrap(ErrConnectionFailed, err.Error())
	}
	c.loggedIn = true
	return nil
}

// resetLogin forces a fresh login on the next call, used after a request
// fails in a way that suggests an expired session.
func (c *Client) resetLogin() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

// Submit hands a torrent blob to qBittorrent and returns the infohash and
// name parsed from it.
func (c *Client) Submit(ctx context.Context, torrentData []byte) (*SubmitResult, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	mi, err := metainfo.Load(bytes.NewReader(torrentData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse torrent")
	}

	info, err := mi.UnmarshalInfo()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse torrent info")
	}

	hash := mi.HashInfoBytes().HexString()

	options := map[string]string{
		"category": c.category,
		"paused":   "false",
	}

	if err := c.qbt.AddTorrentFromMemoryCtx(ctx, torrentData, options); err != nil {
		c.resetLogin()
		return nil, errors.Wrap(ErrConnectionFailed, err.Error())
	}

	log.Info().
		Str("hash", hash).
		Str("name", info.Name).
		Msg("Torrent submitted to download client")

	return &SubmitResult{Hash: hash, Name: info.Name}, nil
}

// SubmitMagnet hands a magnet link to qBittorrent and returns the infohash
// parsed from the link.
func (c *Client) SubmitMagnet(ctx context.Context, magnetURI string) (*SubmitResult, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	hash, err := hashFromMagnet(magnetURI)
	if err != nil {
		return nil, err
	}

	options := map[string]string{
		"category": c.category,
		"paused":   "false",
	}

	if err := c.qbt.AddTorrentFromUrlCtx(ctx, magnetURI, options); err != nil {
		c.resetLogin()
		return nil, errors.Wrap(ErrConnectionFailed, err.Error())
	}

	return &SubmitResult{Hash: hash}, nil
}

// PollStatus returns the engine-level state of one submitted download.
func (c *Client) PollStatus(ctx context.Context, hash string) (*Status, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	torrents, err := c.qbt.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{hash}})
	if err != nil {
		c.resetLogin()
		return nil, errors.Wrap(ErrConnectionFailed, err.Error())
	}

	if len(torrents) == 0 {
		return nil, ErrTorrentNotFound
	}

	t := torrents[0]
	return &Status{
		Hash:     hash,
		Name:     t.Name,
		State:    mapState(t.State, t.Progress),
		Progress: t.Progress,
	}, nil
}

func mapState(state qbt.TorrentState, progress float64) string {
	switch state {
	case qbt.TorrentStateError, qbt.TorrentStateMissingFiles:
		return StateErrored
	case qbt.TorrentStateStalledDl:
		return StateStalled
	case qbt.TorrentStateDownloading,
		qbt.TorrentStateMetaDl,
		qbt.TorrentStatePausedDl,
		qbt.TorrentStateStoppedDl,
		qbt.TorrentStateQueuedDl,
		qbt.TorrentStateCheckingDl,
		qbt.TorrentStateForcedDl,
		qbt.TorrentStateCheckingResumeData,
		qbt.TorrentStateAllocating,
		qbt.TorrentStateMoving:
		return StateDownloading
	case qbt.TorrentStateUnknown:
		return StateUnknown
	default:
		// Seeding/paused-up states mean the payload is on disk
		if progress >= 1 {
			return StateCompleted
		}
		return StateDownloading
	}
}

// hashFromMagnet extracts the btih infohash from a magnet link.
func hashFromMagnet(magnetURI string) (string, error) {
	u, err := url.Parse(magnetURI)
	if err != nil || u.Scheme != "magnet" {
		return "", fmt.Errorf("invalid magnet URI")
	}

	for _, xt := range u.Query()["xt"] {
		if strings.HasPrefix(xt, "urn:btih:") {
			return strings.ToLower(strings.TrimPrefix(xt, "urn:btih:")), nil
		}
	}
	return "", fmt.Errorf("magnet URI has no btih hash")
}
