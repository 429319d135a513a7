package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/dealscope/dealscope/internal/models"
)

// processCompetitor runs the pipeline for one competitor: resolve the
// sitemap, walk candidate pages up to the configured limit, and fold each
// outcome into the job. Failures surface as job error entries; they never
// abort the job.
func (s *Service) processCompetitor(ctx context.Context, jobID string, idx int, spec models.CompetitorSpec) {
	name := s.competitorName(spec)

	_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
		job.Progress.CurrentCompetitor = name
		job.Progress.CurrentVDP = 0
	})

	s.logger.Info().
		Str("job_id", jobID).
		Str("competitor", name).
		Str("sitemap", spec.SitemapURL).
		Msg("Processing competitor")

	candidates, err := s.resolver.Resolve(ctx, spec.SitemapURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("competitor", name).Msg("Sitemap resolution failed")
		_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
			job.Errors = append(job.Errors, fmt.Sprintf("Error processing sitemap %s: %v", spec.SitemapURL, err))
			job.Progress.CompletedCompetitors = idx + 1
		})
		return
	}

	processed := 0
	for pageURL := range candidates {
		if processed >= s.config.VDPLimit {
			break
		}
		processed++

		_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
			job.Progress.CurrentVDP = processed
		})

		s.handleOutcome(jobID, pageURL, s.extractor.Extract(ctx, pageURL, name))

		s.pause(ctx)
	}

	_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
		job.Progress.CompletedCompetitors = idx + 1
	})
}

// handleOutcome folds one page outcome into the job. Records keep strict
// processing order; skips and failures contribute no record but still
// advance the processed count, so it tracks consumed candidates.
func (s *Service) handleOutcome(jobID, pageURL string, outcome models.Outcome) {
	switch outcome.Status {
	case models.OutcomeRecord:
		_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
			job.Results = append(job.Results, *outcome.Record)
			job.Progress.ProcessedVDPs++
		})
	case models.OutcomeFailed:
		_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
			job.Errors = append(job.Errors, outcome.Reason)
			job.Progress.ProcessedVDPs++
		})
	case models.OutcomeSkipped:
		s.logger.Debug().Str("url", pageURL).Str("reason", outcome.Reason).Msg("Page skipped")
		_ = s.registry.Update(jobID, func(job *models.AnalysisJob) {
			job.Progress.ProcessedVDPs++
		})
	}
}

// competitorName resolves the display name for a competitor spec. Unknown
// keys fall back to inference from the sitemap URL.
func (s *Service) competitorName(spec models.CompetitorSpec) string {
	if s.sources.IsKnown(spec.Name) {
		return s.sources.DisplayName(spec.Name)
	}
	return s.sources.NameForURL(spec.SitemapURL)
}

// pause applies the politeness delay between consecutive detail pages.
func (s *Service) pause(ctx context.Context) {
	if s.itemDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.itemDelay):
	}
}
