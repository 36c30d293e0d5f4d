// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "time"

// Config is the unmarshaled application configuration. Field names map to
// the camelCase keys in config.toml.
type Config struct {
	Version string `mapstructure:"-"`

	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	LogLevel      string `mapstructure:"logLevel"`
	LogPath       string `mapstructure:"logPath"`
	LogMaxSize    int    `mapstructure:"logMaxSize"`
	LogMaxBackups int    `mapstructure:"logMaxBackups"`
	DataDir       string `mapstructure:"dataDir"`
	PprofEnabled  bool   `mapstructure:"pprofEnabled"`

	MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	MetricsHost    string `mapstructure:"metricsHost"`
	MetricsPort    int    `mapstructure:"metricsPort"`

	// Release indexer (Torznab-compatible).
	IndexerURL            string `mapstructure:"indexerUrl"`
	IndexerAPIKey         string `mapstructure:"indexerApiKey"`
	IndexerTimeoutSeconds int    `mapstructure:"indexerTimeoutSeconds"`

	// Download client (qBittorrent).
	QbittorrentHost     string `mapstructure:"qbittorrentHost"`
	QbittorrentUsername string `mapstructure:"qbittorrentUsername"`
	QbittorrentPassword string `mapstructure:"qbittorrentPassword"`
	QbittorrentCategory string `mapstructure:"qbittorrentCategory"`

	// Metadata lookup service.
	MetadataURL    string `mapstructure:"metadataUrl"`
	MetadataAPIKey string `mapstructure:"metadataApiKey"`

	// Auto-grab policy. GrabFilter is an optional expr-lang expression
	// evaluated against each candidate on top of the score/seeder thresholds.
	MinScore   int    `mapstructure:"minScore"`
	MinSeeders int    `mapstructure:"minSeeders"`
	GrabFilter string `mapstructure:"grabFilter"`

	// Job scheduling. Intervals accept Go duration strings ("15m", "6h").
	FeedSyncInterval     time.Duration `mapstructure:"feedSyncInterval"`
	UpdateCheckInterval  time.Duration `mapstructure:"updateCheckInterval"`
	DownloadSyncInterval time.Duration `mapstructure:"downloadSyncInterval"`
	FeedSyncEnabled      bool          `mapstructure:"feedSyncEnabled"`
	UpdateCheckEnabled   bool          `mapstructure:"updateCheckEnabled"`
	DownloadSyncEnabled  bool          `mapstructure:"downloadSyncEnabled"`

	// Dedup cache bounds for processed release GUIDs.
	DedupMaxProcessed int           `mapstructure:"dedupMaxProcessed"`
	DedupMaxAge       time.Duration `mapstructure:"dedupMaxAge"`
}
