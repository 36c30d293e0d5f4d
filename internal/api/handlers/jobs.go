// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ForbesGRyan/gamearr-sub004/internal/scheduler"
)

type JobsHandler struct {
	sched *scheduler.Scheduler
}

func NewJobsHandler(sched *scheduler.Scheduler) *JobsHandler {
	return &JobsHandler{sched: sched}
}

func (h *JobsHandler) Routes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Post("/{job}/trigger", h.TriggerJob)
	})
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.sched.Jobs()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Name < jobs[j].Name
	})
	RespondJSON(w, http.StatusOK, jobs)
}

// TriggerJob runs a job immediately. A trigger while the job is already
// running joins the in-flight run and returns its summary.
func (h *JobsHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "job")

	summary, err := h.sched.Trigger(name)
	if err != nil {
		if summary == nil && !knownJob(h.sched, name) {
			RespondError(w, http.StatusNotFound, "Unknown job: "+name)
			return
		}
		log.Error().Err(err).Str("job", name).Msg("manual job run failed")
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, summary)
}

func knownJob(sched *scheduler.Scheduler, name string) bool {
	for _, j := range sched.Jobs() {
		if j.Name == name {
			return true
		}
	}
	return false
}
