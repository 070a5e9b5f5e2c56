package cache

// ScopedKeyer wraps a Keyer with a prefix, so several deployments can
// share one Redis without seeing each other's entries:
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlacementKey generates a prefixed placement key.
func (k *ScopedKeyer) PlacementKey(designHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(designHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, opts)
}
