package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/interfaces"
	"github.com/dealscope/dealscope/internal/models"
	"github.com/dealscope/dealscope/internal/services/jobs"
	"github.com/dealscope/dealscope/internal/services/sources"
)

// Service drives analysis jobs: it validates requests, registers jobs, and
// runs the pipeline in a background goroutine per job. A started job always
// runs to completion; it is never cancelled by the request that created it.
type Service struct {
	registry  *jobs.Registry
	resolver  interfaces.SitemapResolver
	extractor interfaces.RecordExtractor
	sources   *sources.Service
	config    common.AnalysisConfig
	itemDelay time.Duration
	validate  *validator.Validate
	logger    arbor.ILogger
	wg        sync.WaitGroup
}

func NewService(
	registry *jobs.Registry,
	resolver interfaces.SitemapResolver,
	extractor interfaces.RecordExtractor,
	sourceService *sources.Service,
	config common.AnalysisConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		registry:  registry,
		resolver:  resolver,
		extractor: extractor,
		sources:   sourceService,
		config:    config,
		itemDelay: config.ItemDelayDuration(),
		validate:  validator.New(),
		logger:    logger,
	}
}

// StartAnalysis validates the competitor list, registers a pending job, and
// starts its pipeline in the background. The returned snapshot reflects the
// job before any processing.
func (s *Service) StartAnalysis(competitors []models.CompetitorSpec) (*models.AnalysisJob, error) {
	for i, spec := range competitors {
		if err := s.validate.Struct(spec); err != nil {
			return nil, fmt.Errorf("invalid competitor at index %d: %w", i, err)
		}
	}

	job, err := s.registry.Create(competitors, s.config.VDPLimit)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(job.ID, competitors)
	}()

	s.logger.Info().
		Str("job_id", job.ID).
		Int("competitors", len(competitors)).
		Int("vdp_limit", s.config.VDPLimit).
		Msg("Analysis started")

	return job, nil
}

// Job returns a snapshot of the given job.
func (s *Service) Job(id string) (*models.AnalysisJob, error) {
	return s.registry.Snapshot(id)
}

// Jobs returns snapshots of all jobs, newest first.
func (s *Service) Jobs() []*models.AnalysisJob {
	return s.registry.List()
}

// Wait blocks until all in-flight jobs finish. Used on shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// run executes one job end to end. The job's own context is detached from
// the originating request.
func (s *Service) run(jobID string, competitors []models.CompetitorSpec) {
	ctx := common.WithJobID(context.Background(), jobID)

	_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
		job.Status = models.JobStatusRunning
		job.StartedAt = time.Now()
	})

	for idx, spec := range competitors {
		s.processCompetitor(ctx, jobID, idx, spec)
	}

	// The terminal transition is a single atomic update; a snapshot can
	// never observe Completed without the final results and errors.
	_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
		job.Status = models.JobStatusCompleted
		job.Completed = true
		job.CompletedAt = time.Now()
		job.Progress.CurrentCompetitor = ""
		job.Progress.CurrentVDP = 0
	})

	s.logger.Info().Str("job_id", jobID).Msg("Analysis completed")
}
