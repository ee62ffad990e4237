// Package cache provides pluggable byte caches for pipeline stages and
// rendered artifacts.
//
// Three backends are available:
//   - FileCache: directory-backed cache for CLI usage
//   - RedisCache: shared cache for multi-instance API deployments
//   - NullCache: no-op cache for tests or when caching is disabled
//
// Cache keys are derived from content hashes plus the options that affect
// each stage, so an arrangement computed for one tuning never collides with
// another, and artifacts rendered with different styles are cached apart.
package cache

import (
	"context"
	"time"
)

// TTLs for each pipeline stage. Arrangements are pure functions of their
// inputs and never go stale; the TTLs only bound disk/redis growth.
const (
	// TTLArrangement is the retention for arranged chord groups.
	TTLArrangement = 7 * 24 * time.Hour

	// TTLLayout is the retention for computed page layouts.
	TTLLayout = 7 * 24 * time.Hour

	// TTLArtifact is the retention for rendered outputs (text, svg, pdf, ...).
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values under string keys with a TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArrangementKeyOpts captures the options that change an arrangement result.
type ArrangementKeyOpts struct {
	Tuning    []int
	MaxFret   int
	Tolerance float64
	Bump      bool
}

// LayoutKeyOpts captures the options that change a page layout.
type LayoutKeyOpts struct {
	LineCapacity int
	LinesPerPage int
}

// ArtifactKeyOpts captures the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string
	Title     string
	ShowTimes bool
}

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// ArrangementKey keys an arrangement by the hash of its input notes.
	ArrangementKey(notesHash string, opts ArrangementKeyOpts) string

	// LayoutKey keys a page layout by the hash of its arrangement.
	LayoutKey(arrangementHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by the hash of its layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArrangementKey generates a key for arranged chord groups.
func (k *DefaultKeyer) ArrangementKey(notesHash string, opts ArrangementKeyOpts) string {
	return hashKey("arrange", notesHash, opts)
}

// LayoutKey generates a key for a computed page layout.
func (k *DefaultKeyer) LayoutKey(arrangementHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", arrangementHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, e.g. when
// several deployments share one redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArrangementKey generates a prefixed arrangement key.
func (k *ScopedKeyer) ArrangementKey(notesHash string, opts ArrangementKeyOpts) string {
	return k.prefix + k.inner.ArrangementKey(notesHash, opts)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(arrangementHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(arrangementHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
