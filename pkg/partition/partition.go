package partition

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

// Option customises a [Bipartition] call.
type Option func(*settings)

type settings struct {
	cfg Config
	rng *rand.Rand
}

// WithConfig replaces the default constants. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		logger := s.cfg.Logger
		s.cfg = cfg
		if s.cfg.Logger == nil {
			s.cfg.Logger = logger
		}
	}
}

// WithRand draws all randomness from rng.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) { s.rng = rng }
}

// WithSeed makes the call reproducible by seeding a PCG generator.
func WithSeed(seed uint64) Option {
	return func(s *settings) { s.rng = NewRand(seed) }
}

// WithLogger sends stage summaries to logger at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) { s.cfg.Logger = logger }
}

// NewRand returns the generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Bipartition splits the pins of the hypergraph described by capacities,
// weights and nets into two sides, minimising cut weight while keeping
// each side within (1+epsilon) * totalCapacity / 2 where possible.
//
// It returns one label per pin and the evaluation of the labelling. An
// error is returned for malformed input (see [hypergraph.New]) or a negative
// epsilon. Without [WithSeed] or [WithRand] the result is not reproducible.
func Bipartition(capacities, weights []float64, nets [][]int, epsilon float64, opts ...Option) ([]bool, hypergraph.Evaluation, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	s.cfg.SetDefaults()
	if err := s.cfg.Validate(); err != nil {
		return nil, hypergraph.Evaluation{}, err
	}
	if err := ValidateEpsilon(epsilon); err != nil {
		return nil, hypergraph.Evaluation{}, err
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	h, err := hypergraph.New(capacities, weights, nets)
	if err != nil {
		return nil, hypergraph.Evaluation{}, err
	}
	labels, eval := Run(h, epsilon, s.cfg, s.rng)
	return labels, eval, nil
}

// ValidateEpsilon rejects negative or NaN balance tolerances.
func ValidateEpsilon(epsilon float64) error {
	if epsilon < 0 || math.IsNaN(epsilon) {
		return fmt.Errorf("%w: got %v", ErrNegativeEpsilon, epsilon)
	}
	return nil
}

// Run partitions h in place: it coarsens h, partitions the coarse
// hypergraph, and uncoarsens it again while refining. h is back at its
// original contraction level when Run returns. Run must not be called on a
// hypergraph shared with another goroutine.
func Run(h *hypergraph.Hypergraph, epsilon float64, cfg Config, rng *rand.Rand) ([]bool, hypergraph.Evaluation) {
	cfg.SetDefaults()
	limit := h.SizeConstraint(epsilon)

	mementos := Coarsen(h, cfg)
	labels := InitialPartition(h, epsilon, cfg, rng)
	Uncoarsen(h, mementos, labels, limit, cfg)

	eval := h.Evaluate(labels)
	cfg.Logger.Debug("bipartition complete",
		"pins", h.NumPins(),
		"nets", h.NumNets(),
		"imbalance", eval.Imbalance,
		"limit", limit,
		"cut", eval.CutWeight)
	return labels, eval
}
