// Package publisher feeds listing change events to downstream consumers.
package publisher

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish appends a message tagged with key to the stream
	Publish(key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
