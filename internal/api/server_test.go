// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ForbesGRyan/gamearr-sub004/internal/config"
	"github.com/ForbesGRyan/gamearr-sub004/internal/database"
	"github.com/ForbesGRyan/gamearr-sub004/internal/domain"
	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
)

func newTestServer(t *testing.T) (*Server, *models.GameStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	gameStore := models.NewGameStore(db.Conn())
	grabHistory := models.NewGrabHistoryStore(db.Conn())

	sched := scheduler.New()
	require.NoError(t, sched.Register("feed-sync", time.Hour, func(ctx context.Context) (*scheduler.Summary, error) {
		return &scheduler.Summary{Checked: 3}, nil
	}))
	require.NoError(t, sched.Register("broken-job", time.Hour, func(ctx context.Context) (*scheduler.Summary, error) {
		return nil, fmt.Errorf("indexer not configured")
	}))

	server := NewServer(&Dependencies{
		Config: &config.AppConfig{
			Config: &domain.Config{},
		},
		Version:     "test",
		GameStore:   gameStore,
		GrabHistory: grabHistory,
		Scheduler:   sched,
	})

	return server, gameStore
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGamesCRUD(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/games", map[string]string{
		"title":    "Baldurs Gate 3",
		"platform": "windows",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Game
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Baldurs Gate 3", created.Title)
	assert.Equal(t, models.GameStatusWanted, created.Status)
	assert.True(t, created.Monitored)

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/games/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, fmt.Sprintf("/api/games/%d", created.ID), map[string]any{
		"title":      "Baldurs Gate 3",
		"platform":   "windows",
		"minQuality": "gog",
		"monitored":  false,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Game
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "gog", updated.MinQuality)
	assert.False(t, updated.Monitored)

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/games/%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, fmt.Sprintf("/api/games/%d", created.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGamesListAndSearch(t *testing.T) {
	server, store := newTestServer(t)
	handler := server.Handler()

	_, err := store.Create(context.Background(), "Hollow Knight", "windows")
	require.NoError(t, err)
	_, err = store.Create(context.Background(), "Stardew Valley", "linux")
	require.NoError(t, err)

	rec := doJSON(t, handler, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var games []*models.Game
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 2)

	rec = doJSON(t, handler, http.MethodGet, "/api/games/search?q=hollow", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 1)
	assert.Equal(t, "Hollow Knight", games[0].Title)

	rec = doJSON(t, handler, http.MethodGet, "/api/games/search", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []scheduler.JobStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 2)

	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/feed-sync/trigger", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary scheduler.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "feed-sync", summary.Job)
	assert.Equal(t, 3, summary.Checked)

	// A run-level failure surfaces as a request failure
	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/broken-job/trigger", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/jobs/no-such-job/trigger", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	for _, path := range []string{"/health", "/healthz/readiness", "/healthz/liveness"} {
		rec := doJSON(t, handler, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
