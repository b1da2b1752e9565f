package pipeline

import (
	"context"
	"testing"

	"github.com/matzehuels/hypercut/pkg/errors"
	"github.com/matzehuels/hypercut/pkg/partition"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.Epsilon != 0 {
		t.Errorf("Epsilon = %v, want 0 (perfect balance is valid)", opts.Epsilon)
	}
	if opts.Trials != DefaultTrials {
		t.Errorf("Trials = %d, want %d", opts.Trials, DefaultTrials)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.Workers < 1 || opts.Workers > opts.Trials {
		t.Errorf("Workers = %d, want 1..%d", opts.Workers, opts.Trials)
	}
	if opts.Logger == nil || opts.Partition.Logger == nil {
		t.Error("loggers should default to a discard logger")
	}
	if opts.Partition.CoarsenLimit != partition.DefaultCoarsenLimit {
		t.Errorf("Partition.CoarsenLimit = %d, want default", opts.Partition.CoarsenLimit)
	}
}

func TestOptionsWorkersCappedByTrials(t *testing.T) {
	opts := Options{Trials: 2, Workers: 16}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Workers != 2 {
		t.Errorf("Workers = %d, want 2", opts.Workers)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative epsilon", Options{Epsilon: -0.1}, errors.ErrCodeInvalidEpsilon},
		{"too many trials", Options{Trials: errors.MaxTrials + 1}, errors.ErrCodeInvalidInput},
		{"negative trials", Options{Trials: -3}, errors.ErrCodeInvalidInput},
		{"bad partition config", Options{Partition: partition.Config{Iterations: -1}}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsKeyOpts(t *testing.T) {
	opts := Options{Epsilon: 0.1, Trials: 3, Seed: 9, Partition: partition.Config{CoarsenLimit: 100}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k := opts.KeyOpts()
	if k.Epsilon != 0.1 || k.Trials != 3 || k.Seed != 9 {
		t.Errorf("KeyOpts = %+v", k)
	}
	if k.CoarsenLimit != 100 || k.ClusterFactor != partition.DefaultClusterFactor {
		t.Errorf("KeyOpts partition fields = %+v", k)
	}
}

func TestExecuteInvalidInstance(t *testing.T) {
	in := ringInstance(4)
	in.Nets = append(in.Nets, []int{0, 9})
	in.Weights = append(in.Weights, 1)

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), in, Options{Trials: 1})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
