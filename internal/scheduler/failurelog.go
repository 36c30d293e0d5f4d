// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultQuietWindow is how long repeated failure logs for the same
// dependency are suppressed.
const DefaultQuietWindow = 5 * time.Minute

// FailureLog throttles log noise for a flaky dependency. The first failure
// and the first recovery log at normal severity; repeats are suppressed for
// the quiet window. The schedule itself never backs off, only the logging.
type FailureLog struct {
	mu          sync.Mutex
	name        string
	quietWindow time.Duration
	connected   bool
	consecutive int
	suppressed  int
	lastLogged  time.Time

	now func() time.Time
}

func NewFailureLog(name string) *FailureLog {
	return &FailureLog{
		name:        name,
		quietWindow: DefaultQuietWindow,
		connected:   true,
		now:         time.Now,
	}
}

// Failure records one failed attempt.
func (f *FailureLog) Failure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.consecutive++

	if f.connected {
		f.connected = false
		f.lastLogged = f.now()
		log.Warn().Err(err).Str("dependency", f.name).Msg("Connection lost")
		return
	}

	if f.now().Sub(f.lastLogged) >= f.quietWindow {
		log.Warn().
			Err(err).
			Str("dependency", f.name).
			Int("consecutiveFailures", f.consecutive).
			Int("suppressed", f.suppressed).
			Msg("Still unreachable")
		f.lastLogged = f.now()
		f.suppressed = 0
		return
	}

	f.suppressed++
}

// Success records a successful attempt, logging the recovery if the
// dependency was down.
func (f *FailureLog) Success() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.connected {
		log.Info().
			Str("dependency", f.name).
			Int("failures", f.consecutive).
			Msg("Connection restored")
	}

	f.connected = true
	f.consecutive = 0
	f.suppressed = 0
}

// Connected reports whether the last attempt succeeded.
func (f *FailureLog) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// ConsecutiveFailures returns the current failure streak.
func (f *FailureLog) ConsecutiveFailures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consecutive
}
