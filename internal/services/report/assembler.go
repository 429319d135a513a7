package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/models"
)

// ErrJobNotCompleted is returned when a report is requested for a job that
// has not reached a terminal state.
var ErrJobNotCompleted = errors.New("job not completed")

// dateLayout matches the timestamp format used in report rows.
const dateLayout = "2006-01-02 15:04:05"

var header = []string{
	"competitor", "vdp_url", "vin", "year", "make", "model", "trim",
	"msrp", "sale_price", "date_scraped",
}

// Assembler renders completed jobs as CSV reports.
type Assembler struct {
	logger arbor.ILogger
}

func NewAssembler(logger arbor.ILogger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble renders the job's results as CSV. The job must be completed; the
// output is deterministic for a given job and always carries the header row,
// even with zero results. Row order mirrors result order.
func (a *Assembler) Assemble(job *models.AnalysisJob) ([]byte, error) {
	if !job.Completed {
		return nil, ErrJobNotCompleted
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range job.Results {
		row := []string{
			record.Competitor,
			record.URL,
			record.VIN,
			record.Year,
			record.Make,
			record.Model,
			record.Trim,
			formatPrice(record.MSRP),
			formatPrice(record.SalePrice),
			record.DateScraped.Format(dateLayout),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	a.logger.Debug().
		Str("job_id", job.ID).
		Int("rows", len(job.Results)).
		Msg("Report assembled")

	return buf.Bytes(), nil
}

// formatPrice renders a price with two decimals, or "" when absent.
func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', 2, 64)
}
