package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. A shared
// Redis deployment serving several projects keeps their entries apart this
// way.
//
// Example usage:
//
//	// Project-specific keys
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
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
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for scene graph caching.
func (k *ScopedKeyer) GraphKey(assetHash string) string {
	return k.prefix + k.inner.GraphKey(assetHash)
}

// OutputKey generates a prefixed key for compiled source caching.
func (k *ScopedKeyer) OutputKey(assetHash string, opts OutputKeyOpts) string {
	return k.prefix + k.inner.OutputKey(assetHash, opts)
}

// RenderKey generates a prefixed key for visualization caching.
func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
