// Copyright (c) 2025, ForbesGRyan and the gamearr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamearr_job_runs_total",
		Help: "Completed job runs by job and outcome.",
	}, []string{"job", "outcome"})

	ItemsChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamearr_items_checked_total",
		Help: "Release candidates or games inspected per job.",
	}, []string{"job"})

	Grabs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamearr_grabs_total",
		Help: "Releases submitted to the download client.",
	})

	ItemErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamearr_item_errors_total",
		Help: "Per-item errors recorded in run summaries.",
	}, []string{"job"})
)

// RecordRun updates the job counters from one run outcome.
func RecordRun(job string, checked, errorCount int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	JobRuns.WithLabelValues(job, outcome).Inc()
	ItemsChecked.WithLabelValues(job).Add(float64(checked))
	ItemErrors.WithLabelValues(job).Add(float64(errorCount))
}

// Server exposes /metrics on its own listener, separate from the API.
type Server struct {
	srv *http.Server
}

func NewServer(host string, port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         net.JoinHostPort(host, fmt.Sprintf("%d", port)),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
