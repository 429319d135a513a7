package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/dealscope/dealscope/internal/models"
)

// SourceDefinition describes one known competitor source.
type SourceDefinition struct {
	Key     string   `yaml:"key"`     // Stable identifier used in API requests
	Name    string   `yaml:"name"`    // Display name used in records and reports
	Domains []string `yaml:"domains"` // Domain substrings that identify this source
	Sitemap string   `yaml:"sitemap"` // Sitemap URL for scheduled runs, optional
}

type definitionsFile struct {
	Sources []SourceDefinition `yaml:"sources"`
}

// Service resolves competitor source definitions: the fixed set of known
// source labels and the mapping from page/sitemap URLs to display names.
type Service struct {
	defs   []SourceDefinition
	byKey  map[string]SourceDefinition
	logger arbor.ILogger
}

// defaultDefinitions covers the known competitor set when no sources file is
// present.
func defaultDefinitions() []SourceDefinition {
	return []SourceDefinition{
		{Key: "gunn_nissan", Name: "Gunn Nissan", Domains: []string{"gunnnissan"}},
		{Key: "ingram_park", Name: "Ingram Park Nissan", Domains: []string{"ingrampark"}},
		{Key: "boerne", Name: "Nissan of Boerne", Domains: []string{"nissanboerne", "boerne"}},
		{Key: "champion_nb", Name: "Champion Nissan (New Braunfels)", Domains: []string{"championnissan"}},
	}
}

// NewService loads source definitions from the given YAML file. A missing
// file falls back to the built-in definitions; a malformed file is an error.
func NewService(path string, logger arbor.ILogger) (*Service, error) {
	defs := defaultDefinitions()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var parsed definitionsFile
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
			}
			if len(parsed.Sources) > 0 {
				defs = parsed.Sources
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
		} else {
			logger.Debug().Str("path", path).Msg("No sources file found, using built-in definitions")
		}
	}

	byKey := make(map[string]SourceDefinition, len(defs))
	for _, def := range defs {
		byKey[def.Key] = def
	}

	logger.Debug().Int("sources", len(defs)).Msg("Source definitions loaded")

	return &Service{defs: defs, byKey: byKey, logger: logger}, nil
}

// Keys returns the stable identifiers of all known sources.
func (s *Service) Keys() []string {
	keys := make([]string, 0, len(s.defs))
	for _, def := range s.defs {
		keys = append(keys, def.Key)
	}
	return keys
}

// IsKnown reports whether key names a configured source.
func (s *Service) IsKnown(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// DisplayName returns the display name for a source key. Unknown keys are
// returned unchanged so requests for unconfigured sources still produce
// readable records.
func (s *Service) DisplayName(key string) string {
	if def, ok := s.byKey[key]; ok {
		return def.Name
	}
	return key
}

// Specs returns competitor specs for every source with a configured sitemap
// URL. Used by scheduled runs.
func (s *Service) Specs() []models.CompetitorSpec {
	var specs []models.CompetitorSpec
	for _, def := range s.defs {
		if def.Sitemap == "" {
			continue
		}
		specs = append(specs, models.CompetitorSpec{Name: def.Key, SitemapURL: def.Sitemap})
	}
	return specs
}

// NameForURL infers the competitor display name from a page or sitemap URL
// by matching domain substrings, falling back to the bare host.
func (s *Service) NameForURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	host := strings.ToLower(parsed.Host)
	for _, def := range s.defs {
		for _, domain := range def.Domains {
			if strings.Contains(host, domain) {
				return def.Name
			}
		}
	}

	return parsed.Host
}
