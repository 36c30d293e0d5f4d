// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
)

type GamesHandler struct {
	store *models.GameStore
	grabs *models.GrabHistoryStore
}

func NewGamesHandler(store *models.GameStore, grabs *models.GrabHistoryStore) *GamesHandler {
	return &GamesHandler{
		store: store,
		grabs: grabs,
	}
}

func (h *GamesHandler) Routes(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.ListGames)
		r.Post("/", h.CreateGame)
		r.Get("/search", h.SearchGames)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Put("/", h.UpdateGame)
			r.Delete("/", h.DeleteGame)
			r.Get("/history", h.GetGameHistory)
		})
	})

	r.Get("/history", h.ListRecentHistory)
}

func (h *GamesHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	var (
		games []*models.Game
		err   error
	)

	if status := r.URL.Query().Get("status"); status != "" {
		games, err = h.store.ListByStatus(r.Context(), status)
	} else {
		games, err = h.store.List(r.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to list games")
		RespondError(w, http.StatusInternalServerError, "Failed to list games")
		return
	}

	if games == nil {
		games = []*models.Game{}
	}
	RespondJSON(w, http.StatusOK, games)
}

type createGameRequest struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
}

func (h *GamesHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	game, err := h.store.Create(r.Context(), req.Title, req.Platform)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("failed to create game")
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, game)
}

func (h *GamesHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	game, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrGameNotFound) {
			RespondError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameID", id).Msg("failed to get game")
		RespondError(w, http.StatusInternalServerError, "Failed to get game")
		return
	}

	RespondJSON(w, http.StatusOK, game)
}

type updateGameRequest struct {
	Title      string `json:"title"`
	Platform   string `json:"platform"`
	MinQuality string `json:"minQuality"`
	Monitored  bool   `json:"monitored"`
}

func (h *GamesHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	var req updateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	game, err := h.store.Update(r.Context(), id, req.Title, req.Platform, req.MinQuality, req.Monitored)
	if err != nil {
		if errors.Is(err, models.ErrGameNotFound) {
			RespondError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameID", id).Msg("failed to update game")
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, game)
}

func (h *GamesHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrGameNotFound) {
			RespondError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameID", id).Msg("failed to delete game")
		RespondError(w, http.StatusInternalServerError, "Failed to delete game")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GamesHandler) SearchGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		RespondError(w, http.StatusBadRequest, "Missing query parameter: q")
		return
	}

	games, err := h.store.Search(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("failed to search games")
		RespondError(w, http.StatusInternalServerError, "Failed to search games")
		return
	}

	if games == nil {
		games = []*models.Game{}
	}
	RespondJSON(w, http.StatusOK, games)
}

func (h *GamesHandler) GetGameHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Get(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrGameNotFound) {
			RespondError(w, http.StatusNotFound, "Game not found")
			return
		}
		log.Error().Err(err).Int("gameID", id).Msg("failed to get game")
		RespondError(w, http.StatusInternalServerError, "Failed to get game")
		return
	}

	records, err := h.grabs.ListForGame(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Int("gameID", id).Msg("failed to list grab history")
		RespondError(w, http.StatusInternalServerError, "Failed to list grab history")
		return
	}

	if records == nil {
		records = []*models.GrabRecord{}
	}
	RespondJSON(w, http.StatusOK, records)
}

func (h *GamesHandler) ListRecentHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.grabs.ListRecent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list recent grabs")
		RespondError(w, http.StatusInternalServerError, "Failed to list recent grabs")
		return
	}

	if records == nil {
		records = []*models.GrabRecord{}
	}
	RespondJSON(w, http.StatusOK, records)
}

func gameID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil || id < 1 {
		RespondError(w, http.StatusBadRequest, "Invalid game ID")
		return 0, false
	}
	return id, true
}
