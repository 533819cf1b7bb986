package ytdlp

import (
	"github.com/charmbracelet/log"

	"github.com/cwygoda/playlistbot/internal/config"
	"github.com/cwygoda/playlistbot/internal/domain"
)

// Registry holds registered extractors.
type Registry struct {
	extractors []domain.Extractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewRegistryFromConfig builds one extractor per config entry, in order.
func NewRegistryFromConfig(configs []config.ExtractorConfig, logger *log.Logger) (*Registry, error) {
	r := NewRegistry()
	for _, ec := range configs {
		ext, err := NewExtractor(ec, logger)
		if err != nil {
			return nil, err
		}
		r.Register(ext)
	}
	return r, nil
}

// Register adds an extractor to the registry.
func (r *Registry) Register(e domain.Extractor) {
	r.extractors = append(r.extractors, e)
}

// Match returns the first extractor that matches the URL, or nil.
func (r *Registry) Match(url string) domain.Extractor {
	for _, e := range r.extractors {
		if e.Match(url) {
			return e
		}
	}
	return nil
}

// Extractors returns all registered extractors.
func (r *Registry) Extractors() []domain.Extractor {
	return r.extractors
}
