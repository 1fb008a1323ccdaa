package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/netscan-tools/netscan/internal/discovery"
	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/scan"
)

const maxRequestBody = 1 << 20

// healthHandler reports liveness and uptime.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"version": Version,
	})
}

// Version is set by the CLI at startup.
var Version = "dev"

// scanHandler accepts a scan request and runs it asynchronously. The
// response carries the job ID; results are fetched via the jobs endpoint.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	var cfg scan.Config
	if !s.decodeBody(w, r, &cfg) {
		return
	}
	s.applyScanDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.jobs.Create(JobTypeScan)
	go s.runScanJob(job.ID, cfg)

	s.writeJSON(w, http.StatusAccepted, job)
}

// applyScanDefaults fills request fields the caller left unset from the
// scanning section of the configuration file.
func (s *Server) applyScanDefaults(cfg *scan.Config) {
	if cfg.Ports == "" {
		cfg.Ports = s.config.Scanning.DefaultPorts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = s.config.Scanning.Timeout.Std()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = s.config.Scanning.Concurrency
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = s.config.Scanning.Deadline.Std()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = s.config.Scanning.RateLimit
	}
}

func (s *Server) runScanJob(id uuid.UUID, cfg scan.Config) {
	result, err := s.scanner.Run(context.Background(), cfg)
	if err != nil {
		s.jobs.Fail(id, err.Error())
		return
	}
	s.jobs.Complete(id, result)
}

// discoverHandler accepts a subnet sweep request and runs it
// asynchronously.
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	var cfg discovery.Config
	if !s.decodeBody(w, r, &cfg) {
		return
	}
	s.applyDiscoverDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.jobs.Create(JobTypeDiscover)
	go s.runDiscoverJob(job.ID, cfg)

	s.writeJSON(w, http.StatusAccepted, job)
}

// applyDiscoverDefaults fills request fields the caller left unset from
// the discovery section of the configuration file. A config file with
// use_ping enabled makes ping checks the default for every request.
func (s *Server) applyDiscoverDefaults(cfg *discovery.Config) {
	if len(cfg.CheckPorts) == 0 {
		cfg.CheckPorts = s.config.Discovery.CheckPorts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = s.config.Discovery.Timeout.Std()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = s.config.Discovery.Workers
	}
	if !cfg.UsePing {
		cfg.UsePing = s.config.Discovery.UsePing
	}
	if cfg.SNMPCommunity == "" {
		cfg.SNMPCommunity = s.config.Discovery.SNMPCommunity
	}
}

func (s *Server) runDiscoverJob(id uuid.UUID, cfg discovery.Config) {
	result, err := s.discoverer.Run(context.Background(), cfg)
	if err != nil {
		s.jobs.Fail(id, err.Error())
		return
	}
	s.jobs.Complete(id, result)
}

// listJobsHandler returns all jobs, newest first.
func (s *Server) listJobsHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": s.jobs.List(),
	})
}

// getJobHandler returns one job with its result if finished.
func (s *Server) getJobHandler(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, ok := s.jobs.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// decodeBody parses a JSON request body, writing the error response on
// failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest,
			errors.NewScanError(errors.CodeValidation, "malformed request body").Error())
		return false
	}
	return true
}
