package models

import "time"

// OutcomeStatus classifies the result of attempting to extract one detail page.
type OutcomeStatus string

const (
	OutcomeRecord  OutcomeStatus = "record"  // A vehicle record was extracted
	OutcomeSkipped OutcomeStatus = "skipped" // Page processed but contained no vehicle
	OutcomeFailed  OutcomeStatus = "failed"  // Fetch or extraction failure
)

// Outcome is the classified result of one page extraction. Exactly one of
// Record (for OutcomeRecord) or Reason (for OutcomeSkipped/OutcomeFailed)
// carries information.
type Outcome struct {
	Status OutcomeStatus  `json:"status"`
	Record *VehicleRecord `json:"record,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// NewRecordOutcome wraps an extracted record.
func NewRecordOutcome(record *VehicleRecord) Outcome {
	return Outcome{Status: OutcomeRecord, Record: record}
}

// NewSkippedOutcome marks a page that held no extractable vehicle. Skips are
// not errors and contribute neither a record nor an error entry.
func NewSkippedOutcome(reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Reason: reason}
}

// NewFailedOutcome marks a hard fetch/extraction failure for one page.
func NewFailedOutcome(reason string) Outcome {
	return Outcome{Status: OutcomeFailed, Reason: reason}
}

// VehicleRecord is one extracted vehicle listing. MSRP and SalePrice are nil
// when the page showed no parseable price; a record with nil prices is still
// valid. VIN format is intentionally loose since sources vary.
type VehicleRecord struct {
	Competitor  string    `json:"competitor"`
	URL         string    `json:"url"`
	VIN         string    `json:"vin"`
	Year        string    `json:"year"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Trim        string    `json:"trim"`
	MSRP        *float64  `json:"msrp"`
	SalePrice   *float64  `json:"sale_price"`
	DateScraped time.Time `json:"date_scraped"`
}

// PageContent is the reduced content of one fetched detail page, handed to
// the extraction service.
type PageContent struct {
	URL        string
	Competitor string
	Title      string
	Markdown   string
}
