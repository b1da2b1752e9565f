package partition

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Defaults for [Config].
const (
	// DefaultCoarsenLimit is the pin count below which coarsening stops.
	DefaultCoarsenLimit = 320

	// DefaultClusterFactor scales the maximum capacity of a contraction seed:
	// seeds may weigh at most ClusterFactor * totalCapacity / CoarsenLimit.
	DefaultClusterFactor = 3.25

	// DefaultIterations is the number of runs of each initial heuristic.
	DefaultIterations = 20

	// DefaultSeedNeighbors is the number of random neighbours of each label
	// propagation seed that join the seed's side up front.
	DefaultSeedNeighbors = 5

	// DefaultMaxNonImproving bounds a refinement pass: it stops after this
	// many consecutive moves without positive gain.
	DefaultMaxNonImproving = 20
)

var (
	// ErrNegativeEpsilon is returned when the balance tolerance is negative or NaN.
	ErrNegativeEpsilon = errors.New("epsilon must be a non-negative number")

	// ErrInvalidConfig is returned by [Config.Validate].
	ErrInvalidConfig = errors.New("invalid partition config")
)

// Config holds the static constants that bound the work of one run.
type Config struct {
	CoarsenLimit    int     `toml:"coarsen_limit" json:"coarsen_limit,omitempty"`
	ClusterFactor   float64 `toml:"cluster_factor" json:"cluster_factor,omitempty"`
	Iterations      int     `toml:"iterations" json:"iterations,omitempty"`
	SeedNeighbors   int     `toml:"seed_neighbors" json:"seed_neighbors,omitempty"`
	MaxNonImproving int     `toml:"max_non_improving" json:"max_non_improving,omitempty"`

	// Logger receives debug summaries of each stage. Nil discards.
	Logger *log.Logger `toml:"-" json:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with their defaults.
func (c *Config) SetDefaults() {
	if c.CoarsenLimit == 0 {
		c.CoarsenLimit = DefaultCoarsenLimit
	}
	if c.ClusterFactor == 0 {
		c.ClusterFactor = DefaultClusterFactor
	}
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.SeedNeighbors == 0 {
		c.SeedNeighbors = DefaultSeedNeighbors
	}
	if c.MaxNonImproving == 0 {
		c.MaxNonImproving = DefaultMaxNonImproving
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate reports whether every constant is usable.
func (c Config) Validate() error {
	switch {
	case c.CoarsenLimit < 1:
		return fmt.Errorf("%w: coarsen_limit must be positive, got %d", ErrInvalidConfig, c.CoarsenLimit)
	case c.ClusterFactor <= 0:
		return fmt.Errorf("%w: cluster_factor must be positive, got %v", ErrInvalidConfig, c.ClusterFactor)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.SeedNeighbors < 0:
		return fmt.Errorf("%w: seed_neighbors must not be negative, got %d", ErrInvalidConfig, c.SeedNeighbors)
	case c.MaxNonImproving < 1:
		return fmt.Errorf("%w: max_non_improving must be positive, got %d", ErrInvalidConfig, c.MaxNonImproving)
	}
	return nil
}
