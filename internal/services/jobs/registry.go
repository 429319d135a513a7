package jobs

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/models"
)

var (
	// ErrNoCompetitors is returned when a job is created with an empty
	// competitor list.
	ErrNoCompetitors = errors.New("at least one competitor is required")

	// ErrJobNotFound is returned for lookups of unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
)

// Registry holds analysis jobs in memory for the lifetime of the process.
// Jobs are mutated only through Update, which serializes writers per job;
// readers always get deep-copied snapshots.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*models.AnalysisJob
	logger arbor.ILogger
}

func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		jobs:   make(map[string]*models.AnalysisJob),
		logger: logger,
	}
}

// Create registers a new pending job for the given competitors.
func (r *Registry) Create(competitors []models.CompetitorSpec, vdpLimit int) (*models.AnalysisJob, error) {
	if len(competitors) == 0 {
		return nil, ErrNoCompetitors
	}

	job := &models.AnalysisJob{
		ID:          common.NewJobID(),
		Status:      models.JobStatusPending,
		Competitors: append([]models.CompetitorSpec(nil), competitors...),
		Progress: models.Progress{
			TotalCompetitors: len(competitors),
			VDPLimit:         vdpLimit,
		},
		Results:   []models.VehicleRecord{},
		Errors:    []string{},
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.logger.Info().
		Str("job_id", job.ID).
		Int("competitors", len(competitors)).
		Msg("Analysis job created")

	return job.Snapshot(), nil
}

// Snapshot returns a deep copy of the job, safe for concurrent readers.
func (r *Registry) Snapshot(id string) (*models.AnalysisJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Snapshot(), nil
}

// Update applies fn to the stored job under the registry lock. fn sees and
// mutates the live job; it must not retain references past the call.
func (r *Registry) Update(id string, fn func(job *models.AnalysisJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

// List returns snapshots of all jobs, newest first.
func (r *Registry) List() []*models.AnalysisJob {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*models.AnalysisJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		list = append(list, job.Snapshot())
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}
