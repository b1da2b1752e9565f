// Package cache stores partitioning results keyed by the content of their
// input.
//
// A partition run is a pure function of the hypergraph, the balance
// tolerance, the trial count, the seed and the algorithm constants. The
// [Keyer] folds all of them into a key so a repeated request can be answered
// without partitioning again.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, used by the CLI
//   - [RedisCache]: shared cache for API deployments
//   - [NullCache]: caching disabled
//
// # Usage
//
//	c, err := cache.NewFileCache(dir)
//	key := cache.NewDefaultKeyer().PartitionKey(cache.Hash(raw), cache.PartitionKeyOpts{
//	    Epsilon: 0.03, Trials: 8, Seed: 1,
//	})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default lifetimes of cache entries.
const (
	// TTLPartition bounds how long a partition result is reused.
	TTLPartition = 7 * 24 * time.Hour

	// TTLArtifact bounds how long a rendered artifact is reused.
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value stored under key. A miss is reported with
	// hit == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// PartitionKey keys the result of partitioning the instance whose
	// content hash is instanceHash.
	PartitionKey(instanceHash string, opts PartitionKeyOpts) string

	// ArtifactKey keys a rendering of a partition result.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// PartitionKeyOpts holds every parameter that changes a partition result.
type PartitionKeyOpts struct {
	Epsilon         float64 `json:"epsilon"`
	Trials          int     `json:"trials"`
	Seed            uint64  `json:"seed"`
	CoarsenLimit    int     `json:"coarsen_limit"`
	ClusterFactor   float64 `json:"cluster_factor"`
	Iterations      int     `json:"iterations"`
	SeedNeighbors   int     `json:"seed_neighbors"`
	MaxNonImproving int     `json:"max_non_improving"`
}

// ArtifactKeyOpts identifies a rendered format.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Layout string  `json:"layout,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PartitionKey returns "partition:" followed by a hash of the inputs.
func (DefaultKeyer) PartitionKey(instanceHash string, opts PartitionKeyOpts) string {
	return hashKey("partition", instanceHash, opts)
}

// ArtifactKey returns "artifact:" followed by a hash of the inputs.
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", resultHash, opts)
}
