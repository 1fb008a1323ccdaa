package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobType distinguishes scan jobs from discovery jobs.
type JobType string

const (
	JobTypeScan     JobType = "scan"
	JobTypeDiscover JobType = "discover"
)

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Job is one submitted scan or discovery run.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	Type      JobType     `json:"type"`
	Status    JobStatus   `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Error     string      `json:"error,omitempty"`
	Result    interface{} `json:"result,omitempty"`
}

// JobStore keeps jobs in memory. Jobs live for the process lifetime.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*Job)}
}

// Create registers a new running job and returns it.
func (s *JobStore) Create(jobType JobType) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.New(),
		Type:      jobType,
		Status:    JobStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Complete marks a job finished with its result.
func (s *JobStore) Complete(id uuid.UUID, result interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusComplete
		job.Result = result
		job.UpdatedAt = time.Now()
	}
}

// Fail marks a job failed with its error message.
func (s *JobStore) Fail(id uuid.UUID, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = JobStatusFailed
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}

// Get returns a job copy by ID.
func (s *JobStore) Get(id uuid.UUID) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// List returns all jobs, newest first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}
