// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Summary is the outcome of one job run.
type Summary struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Checked    int       `json:"checked"`
	Matched    int       `json:"matched"`
	Grabbed    int       `json:"grabbed"`
	Errors     []string  `json:"errors,omitempty"`
}

// JobFunc is a job body. Per-item errors belong in the Summary error list;
// a returned error means the whole run failed (collaborator unreachable or
// not configured).
type JobFunc func(ctx context.Context) (*Summary, error)

// JobStatus is a point-in-time snapshot of one registered job.
type JobStatus struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	IsRunning bool          `json:"isRunning"`
	LastRun   *Summary      `json:"lastRun,omitempty"`
	LastError string        `json:"lastError,omitempty"`
}

type job struct {
	name string
	fn   JobFunc

	mu        sync.Mutex
	interval  time.Duration
	isRunning bool
	lastRun   *Summary
	lastError string

	reconfigure chan struct{}
}

func (j *job) getInterval() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.interval
}

func (j *job) status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	st := JobStatus{
		Name:      j.name,
		Interval:  j.interval,
		IsRunning: j.isRunning,
		LastError: j.lastError,
	}
	if j.lastRun != nil {
		copied := *j.lastRun
		st.LastRun = &copied
	}
	return st
}

// Scheduler runs registered jobs on their intervals with single-flight
// semantics: at most one execution per job is in flight, and a manual
// trigger during a run joins that run instead of starting another.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*job
	group   singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

func New() *Scheduler {
	return &Scheduler{
		jobs: make(map[string]*job),
	}
}

// Register adds a job. Must be called before Start; registering a duplicate
// name is an error.
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("job %s: scheduler already started", name)
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s: already registered", name)
	}

	s.jobs[name] = &job{
		name:        name,
		fn:          fn,
		interval:    interval,
		reconfigure: make(chan struct{}, 1),
	}
	return nil
}

// Start launches the timer loop for every registered job.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(j)
	}

	log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop cancels pending ticks and waits for the timer loops to exit. An
// in-flight job body is not interrupted; its singleflight callers still
// receive its result.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	log.Info().Msg("Scheduler stopped")
}

// loop drives one job's recurring tick. Interval changes restart the timer.
func (s *Scheduler) loop(j *job) {
	defer s.wg.Done()

	timer := time.NewTimer(j.getInterval())
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-j.reconfigure:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(j.getInterval())

		case <-timer.C:
			if _, err := s.run(j); err != nil {
				log.Error().Err(err).Str("job", j.name).Msg("Scheduled run failed")
			}
			timer.Reset(j.getInterval())
		}
	}
}

// Trigger runs the named job now. If a run is already in flight the caller
// joins it and receives the same summary; callers cannot tell the
// difference.
func (s *Scheduler) Trigger(name string) (*Summary, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown job %q", name)
	}

	return s.run(j)
}

// SetInterval reconfigures a job's interval and restarts its timer.
func (s *Scheduler) SetInterval(name string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	j.mu.Lock()
	changed := j.interval != interval
	j.interval = interval
	j.mu.Unlock()

	if changed {
		select {
		case j.reconfigure <- struct{}{}:
		default:
		}
		log.Debug().Str("job", name).Dur("interval", interval).Msg("Job interval updated")
	}
	return nil
}

// Jobs returns a snapshot of every registered job's state.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		statuses = append(statuses, j.status())
	}
	return statuses
}

// run executes the job body through the singleflight group, so concurrent
// ticks and triggers share one execution.
func (s *Scheduler) run(j *job) (*Summary, error) {
	v, err, _ := s.group.Do(j.name, func() (any, error) {
		return s.execute(j)
	})
	if v == nil {
		return nil, err
	}
	return v.(*Summary), err
}

// execute is the single-flight body: Running for exactly the duration of
// one execution, reset to Idle by defer even when the job body panics.
func (s *Scheduler) execute(j *job) (summary *Summary, err error) {
	j.mu.Lock()
	j.isRunning = true
	j.mu.Unlock()

	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("job", j.name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Job panicked")
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
			summary = nil
		}

		j.mu.Lock()
		j.isRunning = false
		if err != nil {
			j.lastError = err.Error()
		} else {
			j.lastError = ""
		}
		if summary != nil {
			summary.Job = j.name
			summary.StartedAt = started
			summary.FinishedAt = time.Now()
			j.lastRun = summary
		}
		j.mu.Unlock()
	}()

	summary, err = j.fn(s.ctxOrBackground())
	return summary, err
}

func (s *Scheduler) ctxOrBackground() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}
