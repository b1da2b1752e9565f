package hypergraph

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// figureTwo is the six-pin example with nets {0,1,2,3} and {4,1,5}.
func figureTwo(t *testing.T) *Hypergraph {
	t.Helper()
	h, err := New(
		[]float64{1, 1, 1, 1, 1, 1},
		[]float64{1, 1},
		[][]int{{0, 1, 2, 3}, {4, 1, 5}},
	)
	require.NoError(t, err)
	return h
}

func TestNewLayout(t *testing.T) {
	h := figureTwo(t)

	assert.Equal(t, []span{{0, 1}, {1, 2}, {3, 1}, {4, 1}, {5, 1}, {6, 1}}, h.pins)
	assert.Equal(t, []span{{7, 4}, {11, 3}}, h.nets)
	assert.Equal(t, []int{0, 0, 1, 0, 0, 1, 1, 0, 1, 2, 3, 1, 4, 5}, h.a)
	assert.Equal(t, 6, h.NumEnabled())
	require.NoError(t, h.Validate())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		caps    []float64
		weights []float64
		nets    [][]int
		want    error
	}{
		{"weight count", []float64{1, 1}, []float64{1}, [][]int{{0}, {1}}, ErrWeightCount},
		{"pin too large", []float64{1, 1}, []float64{1}, [][]int{{0, 2}}, ErrPinOutOfRange},
		{"negative pin", []float64{1, 1}, []float64{1}, [][]int{{-1}}, ErrPinOutOfRange},
		{"duplicate pin", []float64{1, 1}, []float64{1}, [][]int{{1, 0, 1}}, ErrDuplicatePin},
		{"negative capacity", []float64{1, -1}, []float64{1}, [][]int{{0, 1}}, ErrNegativeValue},
		{"negative weight", []float64{1, 1}, []float64{-2}, [][]int{{0, 1}}, ErrNegativeValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.caps, tt.weights, tt.nets)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestContractUncontractFigureTwo(t *testing.T) {
	h := figureTwo(t)
	original := h.Clone()

	m := h.Contract(0, 1)
	assert.Equal(t, Memento{U: 0, V: 1, prev: span{0, 1}, prevCap: 1}, m)
	assert.Equal(t, []span{{14, 2}, {1, 2}, {3, 1}, {4, 1}, {5, 1}, {6, 1}}, h.pins)
	assert.Equal(t, []span{{7, 3}, {11, 3}}, h.nets)
	assert.Equal(t, []int{0, 0, 1, 0, 0, 1, 1, 0, 3, 2, 1, 5, 4, 0, 0, 1}, h.a)
	assert.Equal(t, []bool{true, false, true, true, true, true}, h.enabled)
	assert.Equal(t, []float64{2, 1, 1, 1, 1, 1}, h.capacities)
	assert.Equal(t, 5, h.NumEnabled())
	require.NoError(t, h.Validate())

	h.Uncontract(m)
	assert.Equal(t, original.pins, h.pins)
	assert.Equal(t, original.nets, h.nets)
	assert.Equal(t, []int{0, 0, 1, 0, 0, 1, 1, 0, 3, 2, 1, 5, 4, 1, 0, 1}, h.a)
	assert.Equal(t, original.enabled, h.enabled)
	assert.Equal(t, original.capacities, h.capacities)
	assert.Equal(t, 6, h.NumEnabled())
	require.NoError(t, h.Validate())
}

func TestContractPanics(t *testing.T) {
	h := figureTwo(t)
	assert.Panics(t, func() { h.Contract(2, 2) })
	assert.Panics(t, func() { h.Contract(0, 6) })
	assert.Panics(t, func() { h.Contract(-1, 0) })

	h.Contract(0, 1)
	assert.Panics(t, func() { h.Contract(1, 2) })
}

func TestContractRelocatesOnce(t *testing.T) {
	// Pin 1 brings two nets pin 0 does not have; u's list is copied once and
	// then appended to.
	h, err := New([]float64{1, 1, 1, 1}, []float64{1, 1, 1}, [][]int{{0, 2}, {1, 3}, {1, 2}})
	require.NoError(t, err)
	before := len(h.a)

	h.Contract(0, 1)
	assert.Equal(t, before+1+2, len(h.a))
	assert.Equal(t, 3, h.Degree(0))
	assert.ElementsMatch(t, []int{0, 1, 2}, slices.Collect(h.IncidentNets(0)))
	require.NoError(t, h.Validate())
}

func TestContractSharedNetShrinks(t *testing.T) {
	h := figureTwo(t)
	h.Contract(2, 3)

	assert.Equal(t, 3, h.NetSize(0))
	assert.ElementsMatch(t, []int{0, 1, 2}, slices.Collect(h.PinsInNet(0)))
	assert.Equal(t, 1, h.Degree(2))
	assert.Equal(t, 2.0, h.Capacity(2))
}

func TestViewsAreLazyAndRestartable(t *testing.T) {
	h := figureTwo(t)
	nets := h.IncidentNets(1)
	assert.Equal(t, []int{0, 1}, slices.Collect(nets))
	assert.Equal(t, []int{0, 1}, slices.Collect(nets))

	pins := h.PinsInNet(0)
	h.Contract(0, 1)
	assert.Len(t, slices.Collect(pins), 3, "view observes the current contraction level")

	assert.NotContains(t, slices.Collect(h.IncidentPins(0)), 0)
	assert.ElementsMatch(t, []int{2, 3, 4, 5}, slices.Collect(h.IncidentPins(0)))

	for range h.IncidentPins(0) {
		break
	}
}

func TestCapacityAndConstraint(t *testing.T) {
	h, err := New([]float64{1, 2, 3, 4}, []float64{1}, [][]int{{0, 1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, 10.0, h.TotalCapacity())
	assert.Equal(t, 5.0, h.SizeConstraint(0))
	prev := 0.0
	for _, eps := range []float64{0, 0.01, 0.03, 0.1, 0.5, 1} {
		c := h.SizeConstraint(eps)
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}

	h.Contract(0, 1)
	assert.Equal(t, 10.0, h.TotalCapacity(), "contraction preserves total capacity")
}

func TestEvaluate(t *testing.T) {
	h := figureTwo(t)
	n := h.NumPins()

	allTrue := slices.Repeat([]bool{true}, n)
	allFalse := make([]bool, n)
	assert.Equal(t, Evaluation{Imbalance: 6, CutWeight: 0}, h.Evaluate(allTrue))
	assert.Equal(t, Evaluation{Imbalance: 6, CutWeight: 0}, h.Evaluate(allFalse))

	split := []bool{true, true, true, true, false, false}
	assert.Equal(t, Evaluation{Imbalance: 4, CutWeight: 1}, h.Evaluate(split))

	assert.Panics(t, func() { h.Evaluate(make([]bool, n-1)) })
}

func TestEvaluateIgnoresDisabledPins(t *testing.T) {
	h := figureTwo(t)
	h.Contract(4, 5)
	labels := []bool{true, true, true, false, false, true}
	assert.Equal(t, [2]float64{3, 3}, h.SideCapacities(labels))
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := range 50 {
		numPins := 5 + rng.IntN(40)
		numNets := 1 + rng.IntN(30)
		caps := make([]float64, numPins)
		for i := range caps {
			caps[i] = rng.Float64()
		}
		weights := make([]float64, numNets)
		nets := make([][]int, numNets)
		for e := range nets {
			weights[e] = rng.Float64()
			size := rng.IntN(6)
			nets[e] = rng.Perm(numPins)[:min(size, numPins)]
		}

		h, err := New(caps, weights, nets)
		require.NoError(t, err)
		original := h.Clone()

		var mementos []Memento
		var snapshots []*Hypergraph
		for range numPins / 2 {
			u, v := rng.IntN(numPins), rng.IntN(numPins)
			if u == v || !h.Enabled(u) || !h.Enabled(v) {
				continue
			}
			snapshots = append(snapshots, h.Clone())
			mementos = append(mementos, h.Contract(u, v))
			require.NoError(t, h.Validate(), "trial %d", trial)
		}
		assert.Equal(t, numPins-len(mementos), h.NumEnabled())

		for i := len(mementos) - 1; i >= 0; i-- {
			h.Uncontract(mementos[i])
			requireSameStructure(t, snapshots[i], h)
		}
		requireSameStructure(t, original, h)
	}
}

// requireSameStructure compares spans, capacities and enabled flags exactly,
// and each net's pin list as a set (contraction may permute it).
func requireSameStructure(t *testing.T, want, got *Hypergraph) {
	t.Helper()
	require.Equal(t, want.pins, got.pins)
	require.Equal(t, want.nets, got.nets)
	require.Equal(t, want.enabled, got.enabled)
	require.Equal(t, want.disabled, got.disabled)
	require.Equal(t, want.capacities, got.capacities)
	for p := range want.NumPins() {
		if want.Enabled(p) {
			require.Equal(t, slices.Collect(want.IncidentNets(p)), slices.Collect(got.IncidentNets(p)))
		}
	}
	for e := range want.NumNets() {
		require.ElementsMatch(t, slices.Collect(want.PinsInNet(e)), slices.Collect(got.PinsInNet(e)))
	}
	require.NoError(t, got.Validate())
}
