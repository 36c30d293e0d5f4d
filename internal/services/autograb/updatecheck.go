// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package autograb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/metrics"
	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
	"github.com/ForbesGRyan/gamearr-sub004/internal/releases"
	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
)

// UpdateCheck searches the feed for version bumps of acquired games and
// flags updated games back to wanted so the next feed sync can grab them.
func (s *Service) UpdateCheck(ctx context.Context) (summary *scheduler.Summary, err error) {
	defer func() {
		if summary != nil {
			metrics.RecordRun(JobUpdateCheck, summary.Checked, len(summary.Errors), err)
		}
	}()

	c := s.cfg()
	summary = &scheduler.Summary{}

	if !c.UpdateCheckEnabled {
		log.Debug().Msg("Update check disabled, skipping tick")
		return summary, nil
	}
	if !s.feed.Configured() {
		return nil, fmt.Errorf("update check skipped: indexer not configured")
	}

	games, err := s.games.ListByStatus(ctx, models.GameStatusAcquired)
	if err != nil {
		return nil, fmt.Errorf("failed to list acquired games: %w", err)
	}

	for _, game := range games {
		if !game.Monitored || game.InstalledVersion == "" {
			continue
		}
		summary.Checked++

		// One bad game never aborts the run
		updated, checkErr := s.checkGame(ctx, game)
		if checkErr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: %v", game.Title, checkErr))
			continue
		}
		if updated {
			summary.Matched++
		}
	}

	return summary, nil
}

// checkGame searches the feed for one game and reports whether a newer
// version was found and flagged.
func (s *Service) checkGame(ctx context.Context, game *models.Game) (bool, error) {
	candidates, err := s.feed.Search(ctx, game.Title)
	if err != nil {
		return false, fmt.Errorf("feed search: %w", err)
	}

	for _, cand := range candidates {
		if s.updateSeen.Has(cand.GUID) {
			continue
		}
		s.updateSeen.MarkSeen(cand.GUID)

		m := releases.Evaluate(cand.Title, game.Title)
		if m.Confidence == releases.ConfidenceLow || m.Additional || m.Version == "" {
			continue
		}

		if releases.CompareVersions(m.Version, game.InstalledVersion) <= 0 {
			continue
		}

		if !s.confirmUpdate(ctx, game, m.Version) {
			log.Debug().
				Str("game", game.Title).
				Str("version", m.Version).
				Msg("Version bump not confirmed by metadata, ignoring")
			continue
		}

		if err := s.games.MarkWanted(ctx, game.ID); err != nil {
			return false, fmt.Errorf("mark wanted: %w", err)
		}

		log.Info().
			Str("game", game.Title).
			Str("installed", game.InstalledVersion).
			Str("available", m.Version).
			Str("release", cand.Title).
			Msg("Update detected, game flagged for re-acquisition")

		return true, nil
	}

	return false, nil
}

// confirmUpdate asks the metadata service whether a newer version really
// exists. Without a configured service, or when the lookup fails, the feed
// evidence stands on its own.
func (s *Service) confirmUpdate(ctx context.Context, game *models.Game, version string) bool {
	if s.metadata == nil || !s.metadata.Configured() {
		return true
	}

	hits, err := s.metadata.Search(ctx, game.Title)
	if err != nil {
		log.Warn().Err(err).Str("game", game.Title).Msg("Metadata lookup failed, trusting feed")
		return true
	}

	for _, hit := range hits {
		if hit.LatestVersion == "" {
			continue
		}
		if releases.CompareVersions(hit.LatestVersion, game.InstalledVersion) > 0 {
			return true
		}
	}
	return false
}
