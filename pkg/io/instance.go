package io

import (
	"errors"
	"fmt"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

// ErrInvalidFormat is wrapped by every parse error of this package.
var ErrInvalidFormat = errors.New("invalid format")

// Instance is the raw description of a hypergraph: one capacity per pin, one
// weight per net, and each net's pin list.
type Instance struct {
	Name       string    `json:"name,omitempty"`
	Capacities []float64 `json:"capacities"`
	Weights    []float64 `json:"weights,omitempty"`
	Nets       [][]int   `json:"nets"`
}

// NumPins returns the number of pins.
func (in *Instance) NumPins() int { return len(in.Capacities) }

// NumNets returns the number of nets.
func (in *Instance) NumNets() int { return len(in.Nets) }

// normalize fills missing net weights with 1.
func (in *Instance) normalize() {
	if in.Weights == nil && len(in.Nets) > 0 {
		in.Weights = make([]float64, len(in.Nets))
		for i := range in.Weights {
			in.Weights[i] = 1
		}
	}
	if in.Capacities == nil {
		in.Capacities = []float64{}
	}
	if in.Nets == nil {
		in.Nets = [][]int{}
	}
}

// Hypergraph builds the incidence structure of the instance.
func (in *Instance) Hypergraph() (*hypergraph.Hypergraph, error) {
	return hypergraph.New(in.Capacities, in.Weights, in.Nets)
}

// Validate reports whether the instance describes a valid hypergraph.
func (in *Instance) Validate() error {
	if _, err := in.Hypergraph(); err != nil {
		return fmt.Errorf("instance: %w", err)
	}
	return nil
}
