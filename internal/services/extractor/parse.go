package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dealscope/dealscope/internal/models"
)

// extractionReply mirrors the JSON shape the model is instructed to return.
// All value fields arrive as strings since model output is untyped.
type extractionReply struct {
	NoVehicle bool   `json:"no_vehicle"`
	VIN       string `json:"vin"`
	Year      string `json:"year"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Trim      string `json:"trim"`
	MSRP      string `json:"msrp"`
	SalePrice string `json:"sale_price"`
}

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
	vinRe        = regexp.MustCompile(`[A-HJ-NPR-Z0-9]{17}`)
	yearRe       = regexp.MustCompile(`20\d{2}`)
	nonVINRe     = regexp.MustCompile(`[^A-Z0-9]`)
	nonPriceRe   = regexp.MustCompile(`[^\d.]`)
)

// parseReply turns a model reply into an outcome. Unparseable replies fall
// back to regex salvage before being declared failed.
func (s *Service) parseReply(text string, page models.PageContent) models.Outcome {
	content := stripFences(text)

	var reply extractionReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		s.logger.Warn().Err(err).Str("url", page.URL).Msg("Claude reply was not valid JSON, attempting salvage")
		return s.salvage(content, page)
	}

	if reply.NoVehicle {
		return models.NewSkippedOutcome(fmt.Sprintf("No vehicle listing on %s", page.URL))
	}

	return models.NewRecordOutcome(s.buildRecord(reply, page))
}

// buildRecord cleans reply fields into a vehicle record.
func (s *Service) buildRecord(reply extractionReply, page models.PageContent) *models.VehicleRecord {
	makeName := strings.TrimSpace(reply.Make)
	if makeName == "" {
		makeName = "Nissan"
	}

	return &models.VehicleRecord{
		Competitor:  page.Competitor,
		URL:         page.URL,
		VIN:         cleanVIN(reply.VIN),
		Year:        cleanYear(reply.Year),
		Make:        makeName,
		Model:       strings.TrimSpace(reply.Model),
		Trim:        strings.TrimSpace(reply.Trim),
		MSRP:        cleanPrice(reply.MSRP),
		SalePrice:   cleanPrice(reply.SalePrice),
		DateScraped: s.now(),
	}
}

// salvage scans a malformed reply for a VIN and year. A recognizable VIN is
// enough to keep the page as a priceless record; anything less is a failure.
func (s *Service) salvage(content string, page models.PageContent) models.Outcome {
	vin := vinRe.FindString(strings.ToUpper(content))
	if vin == "" {
		return models.NewFailedOutcome(fmt.Sprintf("Error processing %s: unparseable extraction reply", page.URL))
	}

	return models.NewRecordOutcome(&models.VehicleRecord{
		Competitor:  page.Competitor,
		URL:         page.URL,
		VIN:         vin,
		Year:        yearRe.FindString(content),
		Make:        "Nissan",
		DateScraped: s.now(),
	})
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(text string) string {
	content := strings.TrimSpace(text)
	content = fenceOpenRe.ReplaceAllString(content, "")
	content = fenceCloseRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// cleanVIN normalizes a VIN and rejects anything that is not 17 characters.
func cleanVIN(vin string) string {
	cleaned := nonVINRe.ReplaceAllString(strings.ToUpper(vin), "")
	if len(cleaned) == 17 {
		return cleaned
	}
	return ""
}

// cleanYear extracts a 4-digit model year, or "".
func cleanYear(year string) string {
	return yearRe.FindString(year)
}

// cleanPrice parses a price string into a number. Sentinel values and
// unparseable strings yield nil.
func cleanPrice(price string) *float64 {
	trimmed := strings.TrimSpace(strings.ToLower(price))
	switch trimmed {
	case "", "not available", "n/a", "null", "none":
		return nil
	}

	numeric := nonPriceRe.ReplaceAllString(trimmed, "")
	if numeric == "" {
		return nil
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}
