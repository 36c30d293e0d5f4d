// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ForbesGRyan/gamearr-sub004/internal/dbinterface"
	"github.com/ForbesGRyan/gamearr-sub004/internal/releases"
)

var ErrGameNotFound = errors.New("game not found")

// Game lifecycle statuses. A wanted game is eligible for feed sync matching,
// acquiring means a grab was submitted to the download client, acquired means
// the download completed (or the game was imported with a version).
const (
	GameStatusWanted    = "wanted"
	GameStatusAcquiring = "acquiring"
	GameStatusAcquired  = "acquired"
)

type Game struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	NormalizedTitle  string    `json:"normalizedTitle"`
	Platform         string    `json:"platform"`
	Status           string    `json:"status"`
	Monitored        bool      `json:"monitored"`
	MinQuality       string    `json:"minQuality,omitempty"`
	InstalledVersion string    `json:"installedVersion,omitempty"`
	InstalledQuality string    `json:"installedQuality,omitempty"`
	DownloadHash     string    `json:"downloadHash,omitempty"`
	AddedAt          time.Time `json:"addedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AcquiredRelease carries the release details recorded when a grab completes.
type AcquiredRelease struct {
	Version string
	Quality string
}

type GameStore struct {
	db dbinterface.Querier
}

func NewGameStore(db dbinterface.Querier) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, title, normalized_title, platform, status, monitored, min_quality, installed_version, installed_quality, download_hash, added_at, updated_at`

func scanGame(row interface{ Scan(...any) error }) (*Game, error) {
	var g Game
	err := row.Scan(
		&g.ID,
		&g.Title,
		&g.NormalizedTitle,
		&g.Platform,
		&g.Status,
		&g.Monitored,
		&g.MinQuality,
		&g.InstalledVersion,
		&g.InstalledQuality,
		&g.DownloadHash,
		&g.AddedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GameStore) Create(ctx context.Context, title, platform string) (*Game, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}

	normalized := releases.NormalizeTitle(title)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO games (title, normalized_title, platform)
		VALUES (?, ?, ?)
		RETURNING `+gameColumns,
		title, normalized, platform,
	)

	game, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return game, nil
}

func (s *GameStore) Get(ctx context.Context, id int) (*Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE id = ?`, id)

	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (s *GameStore) List(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	return collectGames(rows)
}

// ListMonitoredWanted returns the games feed sync should try to match:
// monitored and still in the wanted state, oldest first.
func (s *GameStore) ListMonitoredWanted(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = ? AND monitored = 1 ORDER BY added_at`,
		GameStatusWanted)
	if err != nil {
		return nil, fmt.Errorf("failed to list wanted games: %w", err)
	}
	defer rows.Close()

	return collectGames(rows)
}

// ListByStatus returns games in the given lifecycle status.
func (s *GameStore) ListByStatus(ctx context.Context, status string) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status = ? ORDER BY added_at`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list games by status: %w", err)
	}
	defer rows.Close()

	return collectGames(rows)
}

func collectGames(rows *sql.Rows) ([]*Game, error) {
	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// Update changes the user-editable fields.
func (s *GameStore) Update(ctx context.Context, id int, title, platform, minQuality string, monitored bool) (*Game, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}

	normalized := releases.NormalizeTitle(title)

	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET title = ?, normalized_title = ?, platform = ?, min_quality = ?, monitored = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		title, normalized, platform, minQuality, monitored, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrGameNotFound
	}

	return s.Get(ctx, id)
}

func (s *GameStore) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// MarkAcquiring transitions a game to acquiring and records the download
// hash used to track the grab. Only wanted games transition, so two jobs
// racing on the same game cannot double-grab.
func (s *GameStore) MarkAcquiring(ctx context.Context, id int, downloadHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET status = ?, download_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`,
		GameStatusAcquiring, downloadHash, id, GameStatusWanted,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game acquiring: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// MarkAcquired transitions a game to acquired and records what was obtained.
func (s *GameStore) MarkAcquired(ctx context.Context, id int, release AcquiredRelease) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET status = ?, installed_version = ?, installed_quality = ?, download_hash = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		GameStatusAcquired, release.Version, release.Quality, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game acquired: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// MarkWanted moves a game back to wanted, used when an update to an acquired
// game is detected or a grab is abandoned.
func (s *GameStore) MarkWanted(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET status = ?, download_hash = '', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		GameStatusWanted, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark game wanted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotFound
	}
	return nil
}

// GetByDownloadHash finds the game tracking a submitted download.
func (s *GameStore) GetByDownloadHash(ctx context.Context, hash string) (*Game, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE download_hash = ?`, hash)

	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game by download hash: %w", err)
	}
	return game, nil
}

// Search fuzzy-matches the catalog against the query, ranked best-first.
func (s *GameStore) Search(ctx context.Context, query string) ([]*Game, error) {
	games, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	query = releases.NormalizeTitle(query)
	if query == "" {
		return games, nil
	}

	type ranked struct {
		game *Game
		rank int
	}

	var matched []ranked
	for _, g := range games {
		r := fuzzy.RankMatchNormalizedFold(query, g.NormalizedTitle)
		if r < 0 {
			continue
		}
		matched = append(matched, ranked{game: g, rank: r})
	}

	// Lower rank is a closer match
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].rank < matched[j].rank
	})

	result := make([]*Game, 0, len(matched))
	for _, m := range matched {
		result = append(result, m.game)
	}
	return result, nil
}
