package models

import "time"

// JobStatus represents the state of an analysis job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// CompetitorSpec names one competitor source to analyze. Name must be one of
// the configured source keys; SitemapURL points at the source's XML sitemap.
type CompetitorSpec struct {
	Name       string `json:"name" validate:"required"`
	SitemapURL string `json:"sitemap_url" validate:"required,url"`
}

// Progress is the live progress snapshot of a running analysis job.
type Progress struct {
	CurrentCompetitor    string `json:"current_competitor"`
	TotalCompetitors     int    `json:"total_competitors"`
	CompletedCompetitors int    `json:"completed_competitors"`
	CurrentVDP           int    `json:"current_vdp"`
	VDPLimit             int    `json:"vdp_limit"`
	ProcessedVDPs        int    `json:"processed_vdps"`
}

// AnalysisJob is one end-to-end pipeline run across a set of competitor
// sources. The job is written exclusively by the background task driving it
// and read by concurrent status polls via deep-copied snapshots.
//
// Status only moves pending -> running -> completed/failed, never backward.
// Once Completed is true, Results and Errors are immutable. Results keep
// strict processing order: competitor submission order, then item order
// within each competitor. Errors likewise. Duplicate VINs are preserved as
// separate rows; there is no dedup phase.
type AnalysisJob struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Competitors []CompetitorSpec `json:"competitors"`
	Progress    Progress         `json:"progress"`
	Results     []VehicleRecord  `json:"results"`
	Errors      []string         `json:"errors"`
	Completed   bool             `json:"completed"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   time.Time        `json:"started_at,omitempty"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
	// Error holds the setup failure description when Status is failed.
	// Per-item and per-competitor failures go to Errors instead.
	Error string `json:"error,omitempty"`
}

// Snapshot returns a deep copy safe to hand to concurrent readers.
func (j *AnalysisJob) Snapshot() *AnalysisJob {
	copied := *j

	copied.Competitors = make([]CompetitorSpec, len(j.Competitors))
	copy(copied.Competitors, j.Competitors)

	copied.Results = make([]VehicleRecord, len(j.Results))
	copy(copied.Results, j.Results)

	copied.Errors = make([]string, len(j.Errors))
	copy(copied.Errors, j.Errors)

	return &copied
}

// Terminal reports whether the job has reached a terminal status.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
