// Package scheduler runs recurring scans in serve mode. Each configured
// schedule fires on its cron expression, executes a scan, and retains the
// most recent result in memory for the API to report.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/netscan-tools/netscan/internal/config"
	"github.com/netscan-tools/netscan/internal/errors"
	"github.com/netscan-tools/netscan/internal/logging"
	"github.com/netscan-tools/netscan/internal/scan"
)

// Scheduler manages recurring scans.
type Scheduler struct {
	cron    *cron.Cron
	scanner *scan.Scanner
	logger  *logging.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Entry is one recurring scan and its latest outcome.
type Entry struct {
	Name       string       `json:"name"`
	Cron       string       `json:"cron"`
	Host       string       `json:"host"`
	Ports      string       `json:"ports"`
	LastRun    time.Time    `json:"last_run,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	LastResult *scan.Result `json:"last_result,omitempty"`

	cronID cron.EntryID
}

// New builds a Scheduler executing scans with the given scanner.
func New(scanner *scan.Scanner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		scanner: scanner,
		logger:  logging.Default().WithComponent("scheduler"),
		entries: make(map[string]*Entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a recurring scan. The cron expression is validated
// before registration.
func (s *Scheduler) Add(schedule config.ScheduleConfig) error {
	if _, err := cron.ParseStandard(schedule.Cron); err != nil {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"invalid cron expression", "cron", schedule.Cron)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[schedule.Name]; exists {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"duplicate schedule name", "name", schedule.Name)
	}

	entry := &Entry{
		Name:  schedule.Name,
		Cron:  schedule.Cron,
		Host:  schedule.Host,
		Ports: schedule.Ports,
	}

	cronID, err := s.cron.AddFunc(schedule.Cron, func() {
		s.execute(entry.Name)
	})
	if err != nil {
		return errors.NewConfigFieldError(errors.CodeConfiguration,
			"failed to register schedule", "cron", schedule.Cron)
	}
	entry.cronID = cronID
	s.entries[schedule.Name] = entry

	s.logger.Info("schedule registered",
		"name", schedule.Name,
		"cron", schedule.Cron,
		"host", schedule.Host)
	return nil
}

// Remove unregisters a schedule by name.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(entry.cronID)
	delete(s.entries, name)
	return true
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedules", len(s.entries))
}

// Stop halts scheduling and cancels any in-flight scan.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.cancel()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Entries returns a snapshot of all schedules and their latest outcomes.
func (s *Scheduler) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, *entry)
	}
	return entries
}

// execute runs one scheduled scan and stores its outcome.
func (s *Scheduler) execute(name string) {
	s.mu.RLock()
	entry, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return
	}

	cfg := scan.Config{Host: entry.Host, Ports: entry.Ports}
	result, err := s.scanner.Run(s.ctx, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	entry.LastRun = time.Now()
	if err != nil {
		entry.LastError = err.Error()
		entry.LastResult = nil
		s.logger.Error("scheduled scan failed", "name", name, "error", err)
		return
	}
	entry.LastError = ""
	entry.LastResult = result
	s.logger.Info("scheduled scan completed",
		"name", name,
		"host", entry.Host,
		"open", result.Stats.Open)
}
