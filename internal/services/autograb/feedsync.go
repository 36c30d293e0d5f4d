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

// FeedSync pulls recent releases from the indexer and grabs the first
// qualifying release for each monitored wanted game.
func (s *Service) FeedSync(ctx context.Context) (summary *scheduler.Summary, err error) {
	defer func() {
		if summary != nil {
			metrics.RecordRun(JobFeedSync, summary.Checked, len(summary.Errors), err)
		}
	}()

	c := s.cfg()
	summary = &scheduler.Summary{}

	if !c.FeedSyncEnabled {
		log.Debug().Msg("Feed sync disabled, skipping tick")
		return summary, nil
	}
	if !s.feed.Configured() {
		return nil, fmt.Errorf("feed sync skipped: indexer not configured")
	}

	games, err := s.games.ListMonitoredWanted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wanted games: %w", err)
	}
	if len(games) == 0 {
		return summary, nil
	}

	since := s.lastFeedSync
	candidates, err := s.feed.FetchRecent(ctx, since)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("feed fetch: %v", err))
		return summary, nil
	}
	s.lastFeedSync = s.now()

	// Drop already-processed GUIDs up front; MarkSeen happens after the
	// whole run so one game's pass does not hide a release from the next.
	fresh := candidates[:0]
	for _, cand := range candidates {
		if !s.feedSeen.Has(cand.GUID) {
			fresh = append(fresh, cand)
		}
	}
	summary.Checked = len(fresh)

	policy, policyErr := policyFromConfig(c)
	if policyErr != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("grab filter: %v", policyErr))
	}

	for _, game := range games {
		matched, scored := s.scoreForGame(game, fresh)
		summary.Matched += matched

		selected, selErrs := policy.SelectFirst(scored)
		for _, e := range selErrs {
			summary.Errors = append(summary.Errors, e.Error())
		}
		if selected == nil {
			continue
		}

		if err := s.grab(ctx, game, selected); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: %v", game.Title, err))
			continue
		}
		summary.Grabbed++
	}

	for _, cand := range fresh {
		s.feedSeen.MarkSeen(cand.GUID)
	}

	return summary, nil
}

// scoreForGame evaluates candidates in feed order against one game,
// keeping the gates (confidence, DLC, quality floor) out of the policy so
// the policy only sees releases that could stand in for the base game.
func (s *Service) scoreForGame(game *models.Game, candidates []releases.Candidate) (int, []releases.ScoredCandidate) {
	matched := 0
	scored := make([]releases.ScoredCandidate, 0, 4)

	for _, cand := range candidates {
		m := releases.Evaluate(cand.Title, game.Title)

		if m.Confidence == releases.ConfidenceLow {
			continue
		}
		matched++

		if m.Additional {
			log.Debug().
				Str("release", cand.Title).
				Str("game", game.Title).
				Msg("Skipping DLC or edition-upgrade release")
			continue
		}

		if game.MinQuality != "" &&
			m.Quality != game.MinQuality &&
			!releases.IsBetterQuality(m.Quality, game.MinQuality) {
			continue
		}

		scored = append(scored, releases.ScoredCandidate{Candidate: cand, Match: m})
	}

	return matched, scored
}

// grab submits one selected release and transitions the game to acquiring.
func (s *Service) grab(ctx context.Context, game *models.Game, sel *releases.ScoredCandidate) error {
	already, err := s.grabs.WasGrabbed(ctx, game.ID, sel.Candidate.GUID)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	data, err := s.feed.DownloadTorrent(ctx, sel.Candidate.DownloadURL)
	if err != nil {
		return fmt.Errorf("torrent download: %w", err)
	}

	res, err := s.downloader.Submit(ctx, data)
	if err != nil {
		s.downloadFailures.Failure(err)
		return fmt.Errorf("submit: %w", err)
	}
	s.downloadFailures.Success()

	if err := s.games.MarkAcquiring(ctx, game.ID, res.Hash); err != nil {
		return fmt.Errorf("mark acquiring: %w", err)
	}

	if err := s.grabs.Record(ctx, &models.GrabRecord{
		GameID:       game.ID,
		ReleaseGUID:  sel.Candidate.GUID,
		ReleaseTitle: sel.Candidate.Title,
		Indexer:      sel.Candidate.Indexer,
		Quality:      sel.Match.Quality,
		Version:      sel.Match.Version,
		Score:        sel.Match.Score,
		Seeders:      sel.Candidate.Seeders,
		SizeBytes:    sel.Candidate.Size,
		DownloadHash: res.Hash,
	}); err != nil {
		return fmt.Errorf("record grab: %w", err)
	}

	metrics.Grabs.Inc()

	log.Info().
		Str("game", game.Title).
		Str("release", sel.Candidate.Title).
		Int("score", sel.Match.Score).
		Int("seeders", sel.Candidate.Seeders).
		Msg("Auto-grabbed release")

	return nil
}
