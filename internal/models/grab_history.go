// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ForbesGRyan/gamearr-sub004/internal/dbinterface"
)

// GrabRecord is one auto-grab decision, kept for audit and for the API.
type GrabRecord struct {
	ID           int64     `json:"id"`
	GameID       int       `json:"gameId"`
	ReleaseGUID  string    `json:"releaseGuid"`
	ReleaseTitle string    `json:"releaseTitle"`
	Indexer      string    `json:"indexer,omitempty"`
	Quality      string    `json:"quality,omitempty"`
	Version      string    `json:"version,omitempty"`
	Score        int       `json:"score"`
	Seeders      int       `json:"seeders"`
	SizeBytes    int64     `json:"sizeBytes"`
	DownloadHash string    `json:"downloadHash,omitempty"`
	GrabbedAt    time.Time `json:"grabbedAt"`
}

type GrabHistoryStore struct {
	db dbinterface.Querier
}

func NewGrabHistoryStore(db dbinterface.Querier) *GrabHistoryStore {
	return &GrabHistoryStore{db: db}
}

func (s *GrabHistoryStore) Record(ctx context.Context, rec *GrabRecord) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO grab_history (game_id, release_guid, release_title, indexer, quality, version, score, seeders, size_bytes, download_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, grabbed_at`,
		rec.GameID, rec.ReleaseGUID, rec.ReleaseTitle, rec.Indexer, rec.Quality,
		rec.Version, rec.Score, rec.Seeders, rec.SizeBytes, rec.DownloadHash,
	).Scan(&rec.ID, &rec.GrabbedAt)
	if err != nil {
		return fmt.Errorf("failed to record grab: %w", err)
	}
	return nil
}

// ListForGame returns the grab history for one game, newest first.
func (s *GrabHistoryStore) ListForGame(ctx context.Context, gameID int) ([]*GrabRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, release_guid, release_title, indexer, quality, version, score, seeders, size_bytes, download_hash, grabbed_at
		FROM grab_history
		WHERE game_id = ?
		ORDER BY grabbed_at DESC`,
		gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grab history: %w", err)
	}
	defer rows.Close()

	return collectGrabs(rows)
}

// ListRecent returns the most recent grabs across all games.
func (s *GrabHistoryStore) ListRecent(ctx context.Context, limit int) ([]*GrabRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, release_guid, release_title, indexer, quality, version, score, seeders, size_bytes, download_hash, grabbed_at
		FROM grab_history
		ORDER BY grabbed_at DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent grabs: %w", err)
	}
	defer rows.Close()

	return collectGrabs(rows)
}

// WasGrabbed reports whether this release GUID was already grabbed for the game.
func (s *GrabHistoryStore) WasGrabbed(ctx context.Context, gameID int, releaseGUID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM grab_history WHERE game_id = ? AND release_guid = ?`,
		gameID, releaseGUID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check grab history: %w", err)
	}
	return n > 0, nil
}

func collectGrabs(rows *sql.Rows) ([]*GrabRecord, error) {
	var records []*GrabRecord
	for rows.Next() {
		var rec GrabRecord
		err := rows.Scan(
			&rec.ID,
			&rec.GameID,
			&rec.ReleaseGUID,
			&rec.ReleaseTitle,
			&rec.Indexer,
			&rec.Quality,
			&rec.Version,
			&rec.Score,
			&rec.Seeders,
			&rec.SizeBytes,
			&rec.DownloadHash,
			&rec.GrabbedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grab record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
