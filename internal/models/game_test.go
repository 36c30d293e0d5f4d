// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForbesGRyan/gamearr-sub004/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "gamearr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestGameLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore(newTestDB(t).Conn())

	game, err := store.Create(ctx, "Baldurs Gate 3", "windows")
	require.NoError(t, err)
	assert.Equal(t, GameStatusWanted, game.Status)
	assert.Equal(t, "baldurs gate 3", game.NormalizedTitle)
	assert.True(t, game.Monitored)

	wanted, err := store.ListMonitoredWanted(ctx)
	require.NoError(t, err)
	require.Len(t, wanted, 1)

	require.NoError(t, store.MarkAcquiring(ctx, game.ID, "abc123"))

	// Already acquiring, a second transition must not succeed
	err = store.MarkAcquiring(ctx, game.ID, "def456")
	assert.ErrorIs(t, err, ErrGameNotFound)

	byHash, err := store.GetByDownloadHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, game.ID, byHash.ID)

	wanted, err = store.ListMonitoredWanted(ctx)
	require.NoError(t, err)
	assert.Empty(t, wanted)

	require.NoError(t, store.MarkAcquired(ctx, game.ID, AcquiredRelease{Version: "4.1.1.418", Quality: "gog"}))

	acquired, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, GameStatusAcquired, acquired.Status)
	assert.Equal(t, "4.1.1.418", acquired.InstalledVersion)
	assert.Equal(t, "gog", acquired.InstalledQuality)
	assert.Empty(t, acquired.DownloadHash)

	require.NoError(t, store.MarkWanted(ctx, game.ID))
	back, err := store.Get(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, GameStatusWanted, back.Status)
}

func TestGameCreateValidation(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore(newTestDB(t).Conn())

	_, err := store.Create(ctx, "   ", "windows")
	assert.Error(t, err)

	_, err = store.Create(ctx, "Factorio", "windows")
	require.NoError(t, err)

	// Same normalized title and platform is a duplicate
	_, err = store.Create(ctx, "FACTORIO", "windows")
	assert.Error(t, err)

	// Same title on another platform is fine
	_, err = store.Create(ctx, "Factorio", "linux")
	require.NoError(t, err)
}

func TestGameSearch(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore(newTestDB(t).Conn())

	for _, title := range []string{"Hades II", "Hollow Knight Silksong", "Stardew Valley"} {
		_, err := store.Create(ctx, title, "windows")
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "hollow")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hollow Knight Silksong", results[0].Title)

	// Empty query returns everything
	results, err = store.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestGrabHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	games := NewGameStore(db.Conn())
	grabs := NewGrabHistoryStore(db.Conn())

	game, err := games.Create(ctx, "Terraria", "windows")
	require.NoError(t, err)

	rec := &GrabRecord{
		GameID:       game.ID,
		ReleaseGUID:  "guid-1",
		ReleaseTitle: "Terraria.v1.4.5.GOG",
		Indexer:      "example",
		Quality:      "gog",
		Version:      "1.4.5",
		Score:        160,
		Seeders:      42,
		SizeBytes:    512 << 20,
		DownloadHash: "abc123",
	}
	require.NoError(t, grabs.Record(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.GrabbedAt.IsZero())

	grabbed, err := grabs.WasGrabbed(ctx, game.ID, "guid-1")
	require.NoError(t, err)
	assert.True(t, grabbed)

	grabbed, err = grabs.WasGrabbed(ctx, game.ID, "guid-2")
	require.NoError(t, err)
	assert.False(t, grabbed)

	history, err := grabs.ListForGame(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Terraria.v1.4.5.GOG", history[0].ReleaseTitle)

	// Deleting the game cascades to its history
	require.NoError(t, games.Delete(ctx, game.ID))
	history, err = grabs.ListForGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
