// Package cache provides caching for loaded scene graphs, compiled component
// sources and rendered graph visualizations.
//
// Cache keys are derived from the asset's content hash plus every option that
// influences the cached artifact, so a changed asset or a changed compile
// option is always a miss. Backends cover local CLI usage (FileCache), shared
// deployments (RedisCache) and disabled caching (NullCache).
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact kind. Graphs and renders are cheap to rebuild and
// expire daily; compiled sources are pure functions of hash+options and keep
// longer.
const (
	TTLGraph  = 24 * time.Hour
	TTLOutput = 7 * 24 * time.Hour
	TTLRender = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; an absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL stores without expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// OutputKeyOpts captures every compile option that changes the emitted
// source. Two compiles differing in any field must not share a cache entry.
type OutputKeyOpts struct {
	AssetPath     string
	ComponentName string
	KeepNames     bool
	KeepGroups    bool
	Meta          bool
	Types         bool
	Shadows       bool
	Precision     int
	PrintWidth    int
	Instancing    string
	Debug         bool
}

// RenderKeyOpts captures the options of a graph visualization render.
type RenderKeyOpts struct {
	Format   string // "dot", "svg" or "png"
	Detailed bool
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// GraphKey is the key of a loaded scene graph, derived from the asset's
	// content hash.
	GraphKey(assetHash string) string

	// OutputKey is the key of a compiled component source.
	OutputKey(assetHash string, opts OutputKeyOpts) string

	// RenderKey is the key of a rendered visualization, derived from the
	// graph hash.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a loaded scene graph.
func (k *DefaultKeyer) GraphKey(assetHash string) string {
	return hashKey("graph", assetHash)
}

// OutputKey generates a key for a compiled component source.
func (k *DefaultKeyer) OutputKey(assetHash string, opts OutputKeyOpts) string {
	return hashKey("output", assetHash, opts)
}

// RenderKey generates a key for a rendered visualization.
func (k *DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("render", graphHash, opts)
}
