package sources

import (
	"regexp"
	"strings"
)

// vdpIndicators are URL patterns that suggest a single-vehicle detail page:
// an embedded VIN, detail-style paths, or dated inventory slugs.
var vdpIndicators = []*regexp.Regexp{
	regexp.MustCompile(`\d{17}`), // 17-char VIN embedded in the URL
	regexp.MustCompile(`detail`),
	regexp.MustCompile(`viewdetail`),
	regexp.MustCompile(`/auto/`),
	regexp.MustCompile(`/vehicle/`),
	regexp.MustCompile(`/inventory/new-\d{4}`),
}

// excludeTerms name listing, service, and marketing pages that match the VDP
// indicators but never describe a single new vehicle.
var excludeTerms = []string{
	"specials", "service", "parts", "about", "contact",
	"hours", "staff", "blog", "news", "reviews", "directions",
	"finance", "trade", "sitemap", "search", "inventory/new",
	"showroom", "certified", "used", "pre-owned",
}

// IsNewVehicleVDP reports whether a sitemap URL is likely a new-vehicle
// detail page. This is a precision filter: URLs it rejects are silently
// dropped, never treated as errors.
func IsNewVehicleVDP(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	hasNew := strings.Contains(lower, "new") || strings.Contains(lower, "/n/")
	hasNissan := strings.Contains(lower, "nissan")
	if !hasNew || !hasNissan {
		return false
	}

	for _, term := range excludeTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}

	for _, indicator := range vdpIndicators {
		if indicator.MatchString(lower) {
			return true
		}
	}

	return false
}
