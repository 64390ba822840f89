package internal

import (
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/logger"
	"sjsage522/dealscout/services/analysis"
	"sjsage522/dealscout/services/cache"
	"sjsage522/dealscout/services/coordinator"
	"sjsage522/dealscout/services/publisher"
	"sjsage522/dealscout/services/storage"
	"sjsage522/dealscout/services/transport"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache       cache.CacheService
	Publisher   publisher.Publisher
	Store       *storage.Service
	Router      *transport.Router
	Requester   transport.Requester
	Registry    *extractor.Registry
	Opener      page.Opener
	Analyzer    *analysis.Client
	Coordinator *coordinator.Coordinator

	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// OnCleanup registers fn to run on Cleanup, last registered first
func (d *Dependencies) OnCleanup(name string, fn func() error) {
	d.closers = append(d.closers, namedCloser{name: name, fn: fn})
}

// Cleanup releases every registered resource
func (d *Dependencies) Cleanup() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		c := d.closers[i]
		if err := c.fn(); err != nil {
			logger.LogError("Cleanup", err, "failed to release %s", c.name)
		}
	}
	d.closers = nil
}
