package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys.
type Keyer interface {
	// PlacementKey identifies a placement result for a design hash and the
	// options that influence the outcome.
	PlacementKey(designHash string, opts PlacementKeyOpts) string
	// ArtifactKey identifies a rendering of a placement result.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// PlacementKeyOpts are the options that change a placement result. The
// caller serializes them; any field change yields a different key.
type PlacementKeyOpts struct {
	Options any `json:"options"`
	// Version separates results of different placer versions.
	Version string `json:"version,omitempty"`
}

// ArtifactKeyOpts describe a rendered artifact.
type ArtifactKeyOpts struct {
	Kind   string `json:"kind"`
	Format string `json:"format"`
}

// DefaultKeyer produces "placement:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlacementKey implements Keyer.
func (DefaultKeyer) PlacementKey(designHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", designHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}

// Hash returns the hex SHA-256 of data. Designs and results are hashed
// over their canonical JSON, so equal content gives equal keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns kind + ":" + Hash of the JSON encoding of the subject
// hash and its options. Options are plain structs, so encoding cannot fail.
func hashKey(kind, subject string, opts any) string {
	data, _ := json.Marshal(struct {
		Subject string `json:"subject"`
		Options any    `json:"options"`
	}{subject, opts})
	return kind + ":" + Hash(data)
}
