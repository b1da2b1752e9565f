// Package pipeline runs multi-start hypergraph bipartitioning with result
// caching.
//
// The partitioner in [partition] is randomised: different seeds give
// different cuts. This package runs several independent trials of
// [partition.Run] on a worker pool, keeps the best labelling, and caches the
// outcome under a key derived from the instance content and every option
// that affects the result. CLI and API both go through [Runner] so they
// share caching and logging behaviour.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, inst, pipeline.Options{
//	    Epsilon: 0.03,
//	    Trials:  16,
//	    Seed:    7,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Evaluation.CutWeight, res.Stats.MeanCut)
//
// # Determinism
//
// Trial i uses seed Seed+i and its own copy of the hypergraph. The winner is
// the lowest-index trial among those with the best score, so results do not
// depend on the number of workers or on scheduling.
package pipeline

import (
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hypercut/pkg/cache"
	"github.com/matzehuels/hypercut/pkg/errors"
	"github.com/matzehuels/hypercut/pkg/hypergraph"
	"github.com/matzehuels/hypercut/pkg/partition"
	"github.com/matzehuels/hypercut/pkg/store"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultEpsilon is the balance tolerance used by the CLI and API when
	// none is given. Options itself treats 0 as perfect balance.
	DefaultEpsilon = 0.03

	// DefaultTrials is the number of independent partitioning runs.
	DefaultTrials = 8

	// DefaultSeed is the base seed; trial i uses DefaultSeed+i.
	DefaultSeed = uint64(42)
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one Execute call. It supports JSON serialization for
// API requests.
type Options struct {
	Epsilon float64 `json:"epsilon"`
	Trials  int     `json:"trials,omitempty"`
	Seed    uint64  `json:"seed,omitempty"`
	Refresh bool    `json:"refresh,omitempty"` // Skip the cache lookup but store the new result

	// Partition overrides the algorithm constants; zero fields keep defaults.
	Partition partition.Config `json:"partition"`

	// Runtime options (not serialized)
	Workers  int              `json:"-"` // Defaults to GOMAXPROCS
	Logger   *log.Logger      `json:"-"`
	Progress func(Trial)      `json:"-"` // Called once per finished trial, from a single goroutine
	Now      func() time.Time `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateEpsilon(o.Epsilon); err != nil {
		return err
	}
	if o.Trials == 0 {
		o.Trials = DefaultTrials
	}
	if err := errors.ValidateTrials(o.Trials); err != nil {
		return err
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	o.Workers = min(o.Workers, o.Trials)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	logger := o.Partition.Logger
	o.Partition.SetDefaults()
	if logger == nil {
		o.Partition.Logger = o.Logger
	}
	if err := o.Partition.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid partition config")
	}
	o.validated = true
	return nil
}

// KeyOpts returns the cache key options for these options.
func (o *Options) KeyOpts() cache.PartitionKeyOpts {
	return cache.PartitionKeyOpts{
		Epsilon:         o.Epsilon,
		Trials:          o.Trials,
		Seed:            o.Seed,
		CoarsenLimit:    o.Partition.CoarsenLimit,
		ClusterFactor:   o.Partition.ClusterFactor,
		Iterations:      o.Partition.Iterations,
		SeedNeighbors:   o.Partition.SeedNeighbors,
		MaxNonImproving: o.Partition.MaxNonImproving,
	}
}

// =============================================================================
// Results
// =============================================================================

// Trial is the outcome of one independent partitioning run.
type Trial struct {
	Index      int                   `json:"index"`
	Seed       uint64                `json:"seed"`
	Evaluation hypergraph.Evaluation `json:"evaluation"`
	Duration   time.Duration         `json:"duration"`
}

// Stats summarises the trials of a run.
type Stats struct {
	Pins      int           `json:"pins"`
	Nets      int           `json:"nets"`
	MeanCut   float64       `json:"mean_cut"`
	StdDevCut float64       `json:"stddev_cut"`
	MinCut    float64       `json:"min_cut"`
	MaxCut    float64       `json:"max_cut"`
	Feasible  int           `json:"feasible"` // Trials whose imbalance is within the limit
	Duration  time.Duration `json:"duration"` // Wall time of the run
	CPUTime   time.Duration `json:"cpu_time"` // Sum of trial durations
}

// Result is the outcome of Execute.
type Result struct {
	ID           string                `json:"id"`
	Name         string                `json:"name,omitempty"`
	InstanceHash string                `json:"instance_hash"`
	CreatedAt    time.Time             `json:"created_at"`
	Epsilon      float64               `json:"epsilon"`
	Seed         uint64                `json:"seed"`
	Limit        float64               `json:"limit"`
	Labels       []bool                `json:"labels"`
	Evaluation   hypergraph.Evaluation `json:"evaluation"`
	BestTrial    int                   `json:"best_trial"`
	Trials       []Trial               `json:"trials"`
	Stats        Stats                 `json:"stats"`
	CacheHit     bool                  `json:"cache_hit"`
}

// Feasible reports whether the winning labelling respects the size limit.
func (r *Result) Feasible() bool {
	return r.Evaluation.Imbalance <= r.Limit
}

// Record converts the result into a run history record.
func (r *Result) Record() *store.Record {
	return &store.Record{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Name:         r.Name,
		InstanceHash: r.InstanceHash,
		Pins:         r.Stats.Pins,
		Nets:         r.Stats.Nets,
		Epsilon:      r.Epsilon,
		Trials:       len(r.Trials),
		Seed:         r.Seed,
		Limit:        r.Limit,
		Imbalance:    r.Evaluation.Imbalance,
		CutWeight:    r.Evaluation.CutWeight,
		Duration:     r.Stats.Duration,
		Cached:       r.CacheHit,
		Labels:       r.Labels,
	}
}
