// Package cache stores rendered artifacts so repeated renders of an
// unchanged course document are served without laying it out again.
//
// Three backends implement [Cache]: [NullCache] (caching disabled),
// [FileCache] (the CLI default, under the user cache directory) and
// [RedisCache] (shared between machines). Keys come from a [Keyer]:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v1:")
//	key := keyer.ArtifactKey(cache.Hash(doc), cache.ArtifactKeyOpts{Format: "svg", Width: 1200})
//	if data, ok, _ := c.Get(ctx, key); ok {
//		return data
//	}
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is reported as
// ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultTTL is how long rendered artifacts are kept.
const DefaultTTL = 7 * 24 * time.Hour

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Variant   string  `json:"variant,omitempty"` // format-specific settings
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Zoom      float64 `json:"zoom"`
	EndMarker bool    `json:"end_marker"`
	Title     string  `json:"title,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ArtifactKey identifies a rendered artifact of the document with the
	// given content hash.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key material into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
