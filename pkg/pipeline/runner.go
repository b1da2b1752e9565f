package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/hypercut/pkg/cache"
	"github.com/matzehuels/hypercut/pkg/errors"
	"github.com/matzehuels/hypercut/pkg/hypergraph"
	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/observability"
	"github.com/matzehuels/hypercut/pkg/partition"
)

// Runner encapsulates multi-start partitioning with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// InstanceHash hashes the structure of an instance. The name does not
// contribute, so renamed copies share cache entries.
func InstanceHash(in *hio.Instance) (string, error) {
	return cache.HashJSON(struct {
		Capacities []float64 `json:"capacities"`
		Weights    []float64 `json:"weights"`
		Nets       [][]int   `json:"nets"`
	}{in.Capacities, in.Weights, in.Nets})
}

// Execute partitions in with opts.Trials independent runs and returns the
// best one. A cached result for the same instance and options is returned
// unless opts.Refresh is set; every fresh result is written back to the
// cache. Cancelling ctx stops dispatching trials and returns ctx.Err().
func (r *Runner) Execute(ctx context.Context, in *hio.Instance, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	h, err := in.Hypergraph()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid hypergraph")
	}
	hash, err := InstanceHash(in)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash instance")
	}
	key := r.Keyer.PartitionKey(hash, opts.KeyOpts())

	if !opts.Refresh {
		if res, ok := r.cached(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, keyTypePartition)
			res.ID = uuid.NewString()
			res.Name = in.Name
			res.CreatedAt = opts.Now()
			res.CacheHit = true
			r.Logger.Info("partition cache hit",
				"name", in.Name,
				"cut", res.Evaluation.CutWeight,
				"imbalance", res.Evaluation.Imbalance)
			return res, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypePartition)
	}

	createdAt, start := opts.Now(), time.Now()
	r.Logger.Info("partitioning",
		"name", in.Name,
		"pins", h.NumPins(),
		"nets", h.NumNets(),
		"epsilon", opts.Epsilon,
		"trials", opts.Trials,
		"workers", opts.Workers)

	observability.Pipeline().OnRunStart(ctx, in.Name, h.NumPins(), opts.Trials)
	outcomes, err := r.runTrials(ctx, h, opts)
	if err != nil {
		observability.Pipeline().OnRunComplete(ctx, in.Name, 0, time.Since(start), err)
		return nil, err
	}

	limit := h.SizeConstraint(opts.Epsilon)
	best := 0
	for i, o := range outcomes {
		if partition.Better(o.Evaluation, outcomes[best].Evaluation, limit) {
			best = i
		}
	}

	res := &Result{
		ID:           uuid.NewString(),
		Name:         in.Name,
		InstanceHash: hash,
		CreatedAt:    createdAt,
		Epsilon:      opts.Epsilon,
		Seed:         opts.Seed,
		Limit:        limit,
		Labels:       outcomes[best].labels,
		Evaluation:   outcomes[best].Evaluation,
		BestTrial:    best,
		Trials:       make([]Trial, len(outcomes)),
	}
	for i, o := range outcomes {
		res.Trials[i] = o.Trial
	}
	res.Stats = summarize(h, res.Trials, limit)
	res.Stats.Duration = time.Since(start)

	r.Logger.Info("partitioned",
		"cut", res.Evaluation.CutWeight,
		"imbalance", res.Evaluation.Imbalance,
		"limit", limit,
		"best_trial", best,
		"mean_cut", res.Stats.MeanCut,
		"duration", res.Stats.Duration.Round(time.Millisecond))
	observability.Pipeline().OnRunComplete(ctx, in.Name, res.Evaluation.CutWeight, res.Stats.Duration, nil)

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLPartition); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypePartition, len(data))
		}
	}
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.Logger.Debug("discarding undecodable cache entry", "err", err)
		return nil, false
	}
	return &res, true
}

// keyTypePartition labels cache events for partition results.
const keyTypePartition = "partition"

// outcome is a finished trial together with its labelling.
type outcome struct {
	Trial
	labels []bool
}

// runTrials runs opts.Trials partitions on a pool of opts.Workers
// goroutines. Each worker owns a clone of h.
func (r *Runner) runTrials(ctx context.Context, h *hypergraph.Hypergraph, opts Options) ([]outcome, error) {
	jobs := make(chan int)
	results := make(chan outcome, opts.Workers)

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go func(h *hypergraph.Hypergraph) {
			defer wg.Done()
			for i := range jobs {
				results <- runTrial(h, i, opts)
			}
		}(h.Clone())
	}

	go func() {
		defer close(jobs)
		for i := range opts.Trials {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]outcome, opts.Trials)
	done := 0
	for o := range results {
		outcomes[o.Index] = o
		done++
		opts.Logger.Debug("trial finished",
			"trial", o.Index,
			"cut", o.Evaluation.CutWeight,
			"imbalance", o.Evaluation.Imbalance,
			"duration", o.Duration.Round(time.Millisecond))
		observability.Pipeline().OnTrialComplete(ctx, o.Index, o.Evaluation.CutWeight, o.Duration)
		if opts.Progress != nil {
			opts.Progress(o.Trial)
		}
	}

	if err := ctx.Err(); err != nil && done < opts.Trials {
		return nil, err
	}
	return outcomes, nil
}

func runTrial(h *hypergraph.Hypergraph, i int, opts Options) outcome {
	seed := opts.Seed + uint64(i)
	cfg := opts.Partition
	cfg.Logger = cfg.Logger.With("trial", i)

	start := time.Now()
	labels, eval := partition.Run(h, opts.Epsilon, cfg, partition.NewRand(seed))
	return outcome{
		Trial: Trial{
			Index:      i,
			Seed:       seed,
			Evaluation: eval,
			Duration:   time.Since(start),
		},
		labels: labels,
	}
}

func summarize(h *hypergraph.Hypergraph, trials []Trial, limit float64) Stats {
	cuts := make([]float64, len(trials))
	s := Stats{Pins: h.NumPins(), Nets: h.NumNets()}
	for i, t := range trials {
		cuts[i] = t.Evaluation.CutWeight
		s.CPUTime += t.Duration
		if t.Evaluation.Imbalance <= limit {
			s.Feasible++
		}
	}
	s.MeanCut, s.StdDevCut = stat.MeanStdDev(cuts, nil)
	if len(cuts) < 2 {
		s.StdDevCut = 0
	}
	s.MinCut = floats.Min(cuts)
	s.MaxCut = floats.Max(cuts)
	return s
}
