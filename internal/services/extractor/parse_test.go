package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/dealscope/dealscope/internal/models"
)

var testTime = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newParseService() *Service {
	return &Service{
		logger: arbor.NewLogger(),
		now:    func() time.Time { return testTime },
	}
}

func testPage() models.PageContent {
	return models.PageContent{
		URL:        "https://www.gunnnissan.com/new/Nissan/2025-Nissan-Altima-abc.htm",
		Competitor: "Gunn Nissan",
		Title:      "2025 Nissan Altima SV",
	}
}

func TestParseReplyValidJSON(t *testing.T) {
	reply := `{"no_vehicle": false, "vin": "1N4BL4BV8RC123456", "year": "2025", "make": "Nissan",
		"model": "Altima", "trim": "SV", "msrp": "$28,500", "sale_price": "26995.00"}`

	outcome := newParseService().parseReply(reply, testPage())

	require.Equal(t, models.OutcomeRecord, outcome.Status)
	record := outcome.Record
	assert.Equal(t, "1N4BL4BV8RC123456", record.VIN)
	assert.Equal(t, "2025", record.Year)
	assert.Equal(t, "Nissan", record.Make)
	assert.Equal(t, "Altima", record.Model)
	assert.Equal(t, "SV", record.Trim)
	require.NotNil(t, record.MSRP)
	assert.Equal(t, 28500.0, *record.MSRP)
	require.NotNil(t, record.SalePrice)
	assert.Equal(t, 26995.0, *record.SalePrice)
	assert.Equal(t, "Gunn Nissan", record.Competitor)
	assert.Equal(t, testTime, record.DateScraped)
}

func TestParseReplyStripsCodeFences(t *testing.T) {
	reply := "```json\n" + `{"no_vehicle": false, "vin": "1N4BL4BV8RC123456", "year": "2025",
		"make": "Nissan", "model": "Rogue", "trim": "", "msrp": "", "sale_price": ""}` + "\n```"

	outcome := newParseService().parseReply(reply, testPage())

	require.Equal(t, models.OutcomeRecord, outcome.Status)
	assert.Equal(t, "Rogue", outcome.Record.Model)
	assert.Nil(t, outcome.Record.MSRP)
	assert.Nil(t, outcome.Record.SalePrice)
}

func TestParseReplyNoVehicle(t *testing.T) {
	reply := `{"no_vehicle": true, "vin": "", "year": "", "make": "", "model": "", "trim": "", "msrp": "", "sale_price": ""}`

	outcome := newParseService().parseReply(reply, testPage())

	assert.Equal(t, models.OutcomeSkipped, outcome.Status)
	assert.Nil(t, outcome.Record)
	assert.Contains(t, outcome.Reason, "No vehicle listing")
}

func TestParseReplySalvagesVINFromMalformedReply(t *testing.T) {
	reply := `The VIN is 1N4BL4BV8RC123456 and the year is 2025, but I cannot produce JSON.`

	outcome := newParseService().parseReply(reply, testPage())

	require.Equal(t, models.OutcomeRecord, outcome.Status)
	assert.Equal(t, "1N4BL4BV8RC123456", outcome.Record.VIN)
	assert.Equal(t, "2025", outcome.Record.Year)
	assert.Nil(t, outcome.Record.MSRP)
}

func TestParseReplyMalformedWithoutVINFails(t *testing.T) {
	outcome := newParseService().parseReply("Sorry, I cannot help with that.", testPage())

	assert.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.Contains(t, outcome.Reason, testPage().URL)
}

func TestCleanVIN(t *testing.T) {
	assert.Equal(t, "1N4BL4BV8RC123456", cleanVIN("1n4bl4bv8rc123456"))
	assert.Equal(t, "1N4BL4BV8RC123456", cleanVIN(" 1N4BL4BV8-RC123456 "))
	assert.Equal(t, "", cleanVIN("TOOSHORT"))
	assert.Equal(t, "", cleanVIN(""))
}

func TestCleanYear(t *testing.T) {
	assert.Equal(t, "2025", cleanYear("2025"))
	assert.Equal(t, "2024", cleanYear("MY2024 model"))
	assert.Equal(t, "", cleanYear("1999"))
	assert.Equal(t, "", cleanYear("unknown"))
}

func TestCleanPrice(t *testing.T) {
	price := cleanPrice("$28,500.50")
	require.NotNil(t, price)
	assert.Equal(t, 28500.50, *price)

	assert.Nil(t, cleanPrice("Not Available"))
	assert.Nil(t, cleanPrice("N/A"))
	assert.Nil(t, cleanPrice(""))
	assert.Nil(t, cleanPrice("Call for price"))
	assert.Nil(t, cleanPrice("0"))
}
