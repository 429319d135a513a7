package models

import "time"

// ArchivedPage is a persisted snapshot of one scraped detail page, kept for
// audit and offline re-extraction. Archiving is a side artifact of a run;
// job state itself is never persisted.
type ArchivedPage struct {
	ID         string    `json:"id" badgerhold:"key"`
	JobID      string    `json:"job_id"`
	Competitor string    `json:"competitor"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Markdown   string    `json:"markdown"`
	FetchedAt  time.Time `json:"fetched_at"`
}
