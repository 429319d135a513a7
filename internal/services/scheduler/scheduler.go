package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/sources"
)

// Scheduler runs recurring analysis jobs over the configured competitor
// sources. Disabled unless a schedule is configured.
type Scheduler struct {
	analysisService *analysis.Service
	sourceService   *sources.Service
	config          common.ScheduleConfig
	cron            *cron.Cron
	logger          arbor.ILogger
	running         bool
}

func NewScheduler(analysisService *analysis.Service, sourceService *sources.Service, config common.ScheduleConfig, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		analysisService: analysisService,
		sourceService:   sourceService,
		config:          config,
		cron:            cron.New(),
		logger:          logger,
	}
}

// Start registers the recurring analysis and starts the cron loop. A no-op
// when scheduling is disabled.
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Debug().Msg("Scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.config.Cron, s.runScheduledAnalysis); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.config.Cron, err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("cron", s.config.Cron).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop without interrupting a running analysis.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runScheduledAnalysis() {
	specs := s.sourceService.Specs()
	if len(specs) == 0 {
		s.logger.Warn().Msg("Scheduled analysis skipped, no sources with sitemap URLs configured")
		return
	}

	job, err := s.analysisService.StartAnalysis(specs)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analysis failed to start")
		return
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Int("competitors", len(specs)).
		Msg("Scheduled analysis started")
}
