// Package cache holds short-lived shared state: per-host fetch blocks and
// analysis results.
package cache

import (
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// FetchBlockKey is the key holding a host's fetch block
func FetchBlockKey(host string) string {
	return "fetch_block:" + host
}

// AnalysisKey is the key holding a cached analysis
func AnalysisKey(digest string) string {
	return "analysis:" + digest
}
