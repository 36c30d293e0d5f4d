// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package autograb

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/downloads"
	"github.com/ForbesGRyan/gamearr-sub004/internal/metrics"
	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
	"github.com/ForbesGRyan/gamearr-sub004/internal/releases"
	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
)

// DownloadSync polls the download client for in-flight grabs and marks
// games acquired when their download completes. Connection failures go
// through the quiet-window failure log and never stop the schedule.
func (s *Service) DownloadSync(ctx context.Context) (summary *scheduler.Summary, err error) {
	defer func() {
		if summary != nil {
			metrics.RecordRun(JobDownloadSync, summary.Checked, len(summary.Errors), err)
		}
	}()

	c := s.cfg()
	summary = &scheduler.Summary{}

	if !c.DownloadSyncEnabled {
		return summary, nil
	}
	if !s.downloader.Configured() {
		return nil, fmt.Errorf("download sync skipped: download client not configured")
	}

	games, err := s.games.ListByStatus(ctx, models.GameStatusAcquiring)
	if err != nil {
		return nil, fmt.Errorf("failed to list acquiring games: %w", err)
	}

	for _, game := range games {
		if game.DownloadHash == "" {
			continue
		}
		summary.Checked++

		status, pollErr := s.downloader.PollStatus(ctx, game.DownloadHash)
		if pollErr != nil {
			if errors.Is(pollErr, downloads.ErrTorrentNotFound) {
				// Torrent removed out from under us; re-queue the game
				summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: download disappeared", game.Title))
				if err := s.games.MarkWanted(ctx, game.ID); err != nil {
					summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: mark wanted: %v", game.Title, err))
				}
				continue
			}

			// Connection trouble affects every remaining poll equally
			s.downloadFailures.Failure(pollErr)
			summary.Errors = append(summary.Errors, fmt.Sprintf("poll: %v", pollErr))
			return summary, nil
		}
		s.downloadFailures.Success()

		switch status.State {
		case downloads.StateCompleted:
			release := models.AcquiredRelease{
				Version: releases.ParseVersion(status.Name),
				Quality: releases.ClassifyQuality(status.Name),
			}
			if err := s.games.MarkAcquired(ctx, game.ID, release); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: mark acquired: %v", game.Title, err))
				continue
			}
			summary.Matched++
			log.Info().
				Str("game", game.Title).
				Str("version", release.Version).
				Msg("Download completed, game acquired")

		case downloads.StateErrored:
			summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: download errored", game.Title))
			if err := s.games.MarkWanted(ctx, game.ID); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("game %q: mark wanted: %v", game.Title, err))
			}
		}
	}

	return summary, nil
}
