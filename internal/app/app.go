package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/common"
	"github.com/dealscope/dealscope/internal/handlers"
	"github.com/dealscope/dealscope/internal/httpclient"
	"github.com/dealscope/dealscope/internal/interfaces"
	"github.com/dealscope/dealscope/internal/services/analysis"
	"github.com/dealscope/dealscope/internal/services/extractor"
	"github.com/dealscope/dealscope/internal/services/jobs"
	"github.com/dealscope/dealscope/internal/services/report"
	"github.com/dealscope/dealscope/internal/services/scheduler"
	"github.com/dealscope/dealscope/internal/services/scraper"
	"github.com/dealscope/dealscope/internal/services/sitemap"
	"github.com/dealscope/dealscope/internal/services/sources"
	badgerstorage "github.com/dealscope/dealscope/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Pipeline services
	SourceService     *sources.Service
	Registry          *jobs.Registry
	AnalysisService   *analysis.Service
	ReportAssembler   *report.Assembler
	SchedulerService  *scheduler.Scheduler
	ExtractionService *extractor.Service

	// HTTP handlers
	AnalysisHandler *handlers.AnalysisHandler
	JobHandler      *handlers.JobHandler
	StatusHandler   *handlers.StatusHandler
	APIHandler      *handlers.APIHandler
}

// New creates and wires the application
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	if err := a.initStorage(); err != nil {
		return nil, err
	}
	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}
	a.initHandlers()

	logger.Info().Msg("Application initialized")

	return a, nil
}

func (a *App) initStorage() error {
	manager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = manager
	return nil
}

func (a *App) initServices() error {
	sourceService, err := sources.NewService(a.Config.Sources.Path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	a.SourceService = sourceService

	extractionService, err := extractor.NewService(a.Config.Claude, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction service: %w", err)
	}
	a.ExtractionService = extractionService

	client, err := httpclient.NewScrapingHTTPClient(a.Config.Scraper.RequestTimeoutDuration())
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	resolver := sitemap.NewResolver(client, a.Config.Scraper, a.Logger)
	pageScraper := scraper.NewScraper(client, extractionService, a.StorageManager.PageArchive(), a.Config.Scraper, a.Logger)

	a.Registry = jobs.NewRegistry(a.Logger)
	a.AnalysisService = analysis.NewService(a.Registry, resolver, pageScraper, sourceService, a.Config.Analysis, a.Logger)
	a.ReportAssembler = report.NewAssembler(a.Logger)
	a.SchedulerService = scheduler.NewScheduler(a.AnalysisService, sourceService, a.Config.Schedule, a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.AnalysisService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.AnalysisService, a.ReportAssembler, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.AnalysisService, a.SourceService, a.StorageManager.PageArchive(), a.Logger)
	a.APIHandler = handlers.NewAPIHandler(a.Config, a.Logger)
}

// Start starts background components
func (a *App) Start() error {
	if err := a.SchedulerService.Start(); err != nil {
		return err
	}
	return nil
}

// Close releases application resources
func (a *App) Close() {
	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
