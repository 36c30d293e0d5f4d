// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package autograb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/domain"
	"github.com/ForbesGRyan/gamearr-sub004/internal/downloads"
	"github.com/ForbesGRyan/gamearr-sub004/internal/metadata"
	"github.com/ForbesGRyan/gamearr-sub004/internal/models"
	"github.com/ForbesGRyan/gamearr-sub004/internal/releases"
	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
)

// Job names as registered on the scheduler.
const (
	JobFeedSync     = "feed-sync"
	JobUpdateCheck  = "update-check"
	JobDownloadSync = "download-sync"
)

// CatalogStore is the slice of the game store the jobs depend on.
type CatalogStore interface {
	ListMonitoredWanted(ctx context.Context) ([]*models.Game, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Game, error)
	MarkAcquiring(ctx context.Context, id int, downloadHash string) error
	MarkAcquired(ctx context.Context, id int, release models.AcquiredRelease) error
	MarkWanted(ctx context.Context, id int) error
}

// GrabHistory records and consults past grab decisions.
type GrabHistory interface {
	Record(ctx context.Context, rec *models.GrabRecord) error
	WasGrabbed(ctx context.Context, gameID int, releaseGUID string) (bool, error)
}

// FeedClient is the release indexer boundary.
type FeedClient interface {
	Configured() bool
	FetchRecent(ctx context.Context, since time.Time) ([]releases.Candidate, error)
	Search(ctx context.Context, query string) ([]releases.Candidate, error)
	DownloadTorrent(ctx context.Context, downloadURL string) ([]byte, error)
}

// DownloadClient is the acquisition backend boundary.
type DownloadClient interface {
	Configured() bool
	Submit(ctx context.Context, torrentData []byte) (*downloads.SubmitResult, error)
	PollStatus(ctx context.Context, hash string) (*downloads.Status, error)
}

// MetadataClient confirms version bumps against an external source.
type MetadataClient interface {
	Configured() bool
	Search(ctx context.Context, query string) ([]metadata.GameInfo, error)
}

// ConfigProvider returns a snapshot of the current configuration. Job
// bodies call it at entry so config edits apply on the next tick.
type ConfigProvider func() domain.Config

// Service owns the three recurring jobs: feed sync, update check and
// download-status sync. Each job has its own dedup cache and failure log;
// nothing is shared across jobs.
type Service struct {
	cfg        ConfigProvider
	games      CatalogStore
	grabs      GrabHistory
	feed       FeedClient
	downloader DownloadClient
	metadata   MetadataClient

	feedSeen   *releases.SeenCache
	updateSeen *releases.SeenCache

	downloadFailures *scheduler.FailureLog

	lastFeedSync time.Time

	now func() time.Time
}

func NewService(
	cfg ConfigProvider,
	games CatalogStore,
	grabs GrabHistory,
	feed FeedClient,
	downloader DownloadClient,
	meta MetadataClient,
) *Service {
	c := cfg()

	return &Service{
		cfg:              cfg,
		games:            games,
		grabs:            grabs,
		feed:             feed,
		downloader:       downloader,
		metadata:         meta,
		feedSeen:         releases.NewSeenCache(c.DedupMaxProcessed, c.DedupMaxAge),
		updateSeen:       releases.NewSeenCache(c.DedupMaxProcessed, c.DedupMaxAge),
		downloadFailures: scheduler.NewFailureLog("download client"),
		now:              time.Now,
	}
}

// Register adds the three jobs to the scheduler with their configured
// intervals.
func (s *Service) Register(sched *scheduler.Scheduler) error {
	c := s.cfg()

	jobs := []struct {
		name     string
		interval time.Duration
		fn       scheduler.JobFunc
	}{
		{JobFeedSync, c.FeedSyncInterval, s.FeedSync},
		{JobUpdateCheck, c.UpdateCheckInterval, s.UpdateCheck},
		{JobDownloadSync, c.DownloadSyncInterval, s.DownloadSync},
	}

	for _, j := range jobs {
		if err := sched.Register(j.name, j.interval, j.fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", j.name, err)
		}
	}
	return nil
}

// ApplyConfig pushes reloaded interval settings onto the scheduler. Wired
// as a config reload listener.
func (s *Service) ApplyConfig(sched *scheduler.Scheduler, c *domain.Config) {
	for name, interval := range map[string]time.Duration{
		JobFeedSync:     c.FeedSyncInterval,
		JobUpdateCheck:  c.UpdateCheckInterval,
		JobDownloadSync: c.DownloadSyncInterval,
	} {
		if err := sched.SetInterval(name, interval); err != nil {
			log.Warn().Err(err).Str("job", name).Msg("Failed to apply interval change")
		}
	}
}

// policyFromConfig builds the grab policy for this tick. A broken filter
// expression disables the filter rather than the whole job.
func policyFromConfig(c domain.Config) (*releases.GrabPolicy, error) {
	policy, err := releases.NewGrabPolicy(c.MinScore, c.MinSeeders, c.GrabFilter)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid grab filter, continuing without it")
		policy, _ = releases.NewGrabPolicy(c.MinScore, c.MinSeeders, "")
		return policy, err
	}
	return policy, nil
}
