package domain

import "sync"

// MergeKey selects the natural key used to reconcile vault entries
type MergeKey string

const (
	// MergeKeyTitle matches entries by their title (legacy behaviour)
	MergeKeyTitle MergeKey = "title"
	// MergeKeyContent matches entries by a fingerprint of their content
	MergeKeyContent MergeKey = "content"
)

// IsValid reports whether k is a known merge key
func (k MergeKey) IsValid() bool {
	return k == MergeKeyTitle || k == MergeKeyContent
}

// RuntimeConfig tracks which capabilities are available at runtime.
// Generator availability is updated when providers are swapped, tracking is a user toggle.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	ArchiveBackend string   // "memory", "redis" or "postgres"
	MergeKey       MergeKey // Natural key for vault imports

	// Dynamic flags
	textAvailable   bool
	imageAvailable  bool
	trackingEnabled bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values.
// Tracking starts disabled and the merge key defaults to the title.
func NewRuntimeConfig(archiveBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		ArchiveBackend: archiveBackend,
		MergeKey:       MergeKeyTitle,
	}
}

// TextAvailable returns whether a text generator is configured
func (c *RuntimeConfig) TextAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.textAvailable
}

// ImageAvailable returns whether an image generator is configured
func (c *RuntimeConfig) ImageAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.imageAvailable
}

// TrackingEnabled returns whether settled turns are archived automatically
func (c *RuntimeConfig) TrackingEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trackingEnabled
}

// SetTextAvailable updates the text generator availability flag
func (c *RuntimeConfig) SetTextAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textAvailable = available
}

// SetImageAvailable updates the image generator availability flag
func (c *RuntimeConfig) SetImageAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageAvailable = available
}

// SetTrackingEnabled toggles archival tracking
func (c *RuntimeConfig) SetTrackingEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackingEnabled = enabled
}

// CanIllustrate returns true if illustrative images can be generated
func (c *RuntimeConfig) CanIllustrate() bool {
	return c.ImageAvailable()
}
