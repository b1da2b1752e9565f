package hypergraph

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
)

var (
	// ErrWeightCount is returned by [New] when the number of net weights
	// differs from the number of nets.
	ErrWeightCount = errors.New("weight count does not match net count")

	// ErrPinOutOfRange is returned by [New] when a net references a pin
	// outside [0, len(capacities)).
	ErrPinOutOfRange = errors.New("pin index out of range")

	// ErrDuplicatePin is returned by [New] when a net lists the same pin more
	// than once. Each pin may appear in a net at most once.
	ErrDuplicatePin = errors.New("duplicate pin in net")

	// ErrNegativeValue is returned by [New] when a capacity or weight is
	// negative or NaN.
	ErrNegativeValue = errors.New("capacity or weight must be a non-negative number")

	// ErrCorrupt is returned by [Hypergraph.Validate] when the incidence
	// invariant does not hold.
	ErrCorrupt = errors.New("incidence structure corrupt")
)

// span addresses a contiguous block of the incidence buffer.
type span struct {
	idx int
	len int
}

func (s span) end() int { return s.idx + s.len }

// Memento records one contraction. It holds the two pins involved and the
// state of u that the contraction overwrote, and is the only information
// [Hypergraph.Uncontract] needs to reverse the operation.
type Memento struct {
	U int // surviving pin
	V int // absorbed pin

	prev    span    // u's net list before the contraction
	prevCap float64 // u's capacity before the contraction
}

// Evaluation is the quality of a bipartition.
type Evaluation struct {
	// Imbalance is the capacity of the heavier side.
	Imbalance float64 `json:"imbalance"`
	// CutWeight is the summed weight of nets with pins on both sides.
	CutWeight float64 `json:"cut_weight"`
}

// Hypergraph is a bidirectional pin/net incidence structure supporting
// reversible contraction.
//
// The zero value is not usable - use [New] to build one.
type Hypergraph struct {
	pins []span // pin -> block of incident nets
	nets []span // net -> block of member pins
	a    []int  // shared incidence buffer

	enabled  []bool
	disabled int

	capacities []float64
	weights    []float64

	// scratch for Uncontract, stamped per call
	mark  []uint32
	epoch uint32
}

// New builds a hypergraph from pin capacities, net weights and the pin list
// of each net. Pin lists are laid out first in the incidence buffer (derived
// with an inverted index), followed by a direct copy of every net's pins.
//
// The input slices are not retained.
func New(capacities, weights []float64, nets [][]int) (*Hypergraph, error) {
	if len(weights) != len(nets) {
		return nil, fmt.Errorf("%w: %d weights for %d nets", ErrWeightCount, len(weights), len(nets))
	}
	for p, c := range capacities {
		if c < 0 || math.IsNaN(c) {
			return nil, fmt.Errorf("%w: pin %d has capacity %v", ErrNegativeValue, p, c)
		}
	}
	for e, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("%w: net %d has weight %v", ErrNegativeValue, e, w)
		}
	}

	numPins := len(capacities)
	degree := make([]int, numPins)
	lastNet := make([]int, numPins)
	total := 0
	for e, net := range nets {
		for _, p := range net {
			if p < 0 || p >= numPins {
				return nil, fmt.Errorf("%w: net %d references pin %d (have %d pins)", ErrPinOutOfRange, e, p, numPins)
			}
			if lastNet[p] == e+1 {
				return nil, fmt.Errorf("%w: net %d lists pin %d twice", ErrDuplicatePin, e, p)
			}
			lastNet[p] = e + 1
			degree[p]++
		}
		total += 2 * len(net)
	}

	h := &Hypergraph{
		pins:       make([]span, numPins),
		nets:       make([]span, len(nets)),
		a:          make([]int, 0, total),
		enabled:    make([]bool, numPins),
		capacities: slices.Clone(capacities),
		weights:    slices.Clone(weights),
		mark:       make([]uint32, len(nets)),
	}

	off := 0
	for p := range numPins {
		h.pins[p] = span{idx: off}
		h.enabled[p] = true
		off += degree[p]
	}
	h.a = h.a[:off]
	for e, net := range nets {
		for _, p := range net {
			s := &h.pins[p]
			h.a[s.end()] = e
			s.len++
		}
	}
	for e, net := range nets {
		h.nets[e] = span{idx: len(h.a), len: len(net)}
		h.a = append(h.a, net...)
	}
	return h, nil
}

// Contract merges pin v into pin u and returns the memento that undoes it.
//
// u absorbs v's capacity and net memberships. A net that contained both pins
// keeps a single entry for u and shrinks by one; a net that only contained v
// now lists u instead. v is disabled.
//
// Contract panics if u == v, if either pin is out of range, or if either pin
// is disabled. These are programmer errors.
func (h *Hypergraph) Contract(u, v int) Memento {
	h.mustPin(u)
	h.mustPin(v)
	if u == v {
		panic(fmt.Sprintf("hypergraph: cannot contract pin %d with itself", u))
	}
	if !h.enabled[u] || !h.enabled[v] {
		panic(fmt.Sprintf("hypergraph: contract(%d, %d) on a disabled pin", u, v))
	}

	m := Memento{U: u, V: v, prev: h.pins[u], prevCap: h.capacities[u]}
	h.capacities[u] += h.capacities[v]

	relocated := false
	vs := h.pins[v]
	for i := vs.idx; i < vs.end(); i++ {
		e := h.a[i]
		es := h.nets[e]
		last := es.end() - 1
		tau := last
		for j := es.idx; j <= last; j++ {
			if h.a[j] == v {
				h.a[j], h.a[last] = h.a[last], h.a[j]
			}
			if h.a[j] == u {
				tau = j
			}
		}

		if tau != last {
			h.nets[e].len--
			continue
		}

		h.a[last] = u
		if !relocated {
			us := h.pins[u]
			h.a = append(h.a, h.a[us.idx:us.end()]...)
			h.pins[u].idx = len(h.a) - us.len
			relocated = true
		}
		h.a = append(h.a, e)
		h.pins[u].len++
	}

	h.enabled[v] = false
	h.disabled++
	return m
}

// Uncontract reverses the contraction recorded in m. Mementos must be applied
// in the reverse order of the Contract calls that produced them.
func (h *Hypergraph) Uncontract(m Memento) {
	u, v := m.U, m.V
	h.mustPin(u)
	h.mustPin(v)
	if h.enabled[v] {
		panic(fmt.Sprintf("hypergraph: uncontract of pin %d which is enabled", v))
	}

	h.enabled[v] = true
	h.disabled--

	h.epoch++
	if h.epoch == 0 {
		clear(h.mark)
		h.epoch = 1
	}
	for _, e := range h.a[m.prev.idx:m.prev.end()] {
		h.mark[e] = h.epoch
	}

	vs := h.pins[v]
	if h.pins[u].len > m.prev.len {
		// Nets that only v belonged to had their v entry overwritten with u.
		for _, e := range h.a[vs.idx:vs.end()] {
			if h.mark[e] == h.epoch {
				continue
			}
			es := h.nets[e]
			for j := es.idx; j < es.end(); j++ {
				if h.a[j] == u {
					h.a[j] = v
					break
				}
			}
		}
	}

	h.pins[u] = m.prev
	h.capacities[u] = m.prevCap

	// Nets shared by u and v dropped v's entry by shrinking; it still sits
	// right past the end of the list.
	for _, e := range h.a[vs.idx:vs.end()] {
		if h.mark[e] == h.epoch {
			h.nets[e].len++
		}
	}
}

// IncidentNets returns the nets incident to pin p.
func (h *Hypergraph) IncidentNets(p int) iter.Seq[int] {
	return func(yield func(int) bool) {
		s := h.pins[p]
		for i := s.idx; i < s.end(); i++ {
			if !yield(h.a[i]) {
				return
			}
		}
	}
}

// PinsInNet returns the pins currently in net e.
func (h *Hypergraph) PinsInNet(e int) iter.Seq[int] {
	return func(yield func(int) bool) {
		s := h.nets[e]
		for i := s.idx; i < s.end(); i++ {
			if !yield(h.a[i]) {
				return
			}
		}
	}
}

// IncidentPins returns the pins sharing a net with p, excluding p itself.
// A neighbour appears once per shared net.
func (h *Hypergraph) IncidentPins(p int) iter.Seq[int] {
	return func(yield func(int) bool) {
		ps := h.pins[p]
		for i := ps.idx; i < ps.end(); i++ {
			es := h.nets[h.a[i]]
			for j := es.idx; j < es.end(); j++ {
				if q := h.a[j]; q != p && !yield(q) {
					return
				}
			}
		}
	}
}

// NumPins returns the size of the pin index space, disabled pins included.
func (h *Hypergraph) NumPins() int { return len(h.pins) }

// NumNets returns the number of nets.
func (h *Hypergraph) NumNets() int { return len(h.nets) }

// NumEnabled returns the number of pins not absorbed by a contraction.
func (h *Hypergraph) NumEnabled() int { return len(h.pins) - h.disabled }

// Enabled reports whether pin p is currently enabled.
func (h *Hypergraph) Enabled(p int) bool { return h.enabled[p] }

// Capacity returns the capacity of pin p, including every pin contracted into it.
func (h *Hypergraph) Capacity(p int) float64 { return h.capacities[p] }

// Weight returns the weight of net e.
func (h *Hypergraph) Weight(e int) float64 { return h.weights[e] }

// NetSize returns the current number of pins in net e.
func (h *Hypergraph) NetSize(e int) int { return h.nets[e].len }

// Degree returns the number of nets incident to pin p.
func (h *Hypergraph) Degree(p int) int { return h.pins[p].len }

// TotalCapacity returns the summed capacity of all enabled pins.
func (h *Hypergraph) TotalCapacity() float64 {
	var total float64
	for p, c := range h.capacities {
		if h.enabled[p] {
			total += c
		}
	}
	return total
}

// SizeConstraint returns the maximum capacity allowed on either side of a
// bipartition balanced within epsilon: (1+epsilon) * TotalCapacity / 2.
func (h *Hypergraph) SizeConstraint(epsilon float64) float64 {
	return (1 + epsilon) * h.TotalCapacity() / 2
}

// SideCapacities returns the summed capacity of enabled pins labelled false
// (index 0) and true (index 1).
func (h *Hypergraph) SideCapacities(labels []bool) [2]float64 {
	h.mustLabels(labels)
	var sides [2]float64
	for p, c := range h.capacities {
		if h.enabled[p] {
			sides[Side(labels[p])] += c
		}
	}
	return sides
}

// Evaluate scores a labelling in a single pass. Only enabled pins count
// towards the imbalance. Evaluate panics if len(labels) != NumPins().
func (h *Hypergraph) Evaluate(labels []bool) Evaluation {
	sides := h.SideCapacities(labels)
	var cut float64
	for e, s := range h.nets {
		if s.len == 0 {
			continue
		}
		first := labels[h.a[s.idx]]
		for _, p := range h.a[s.idx+1 : s.end()] {
			if labels[p] != first {
				cut += h.weights[e]
				break
			}
		}
	}
	return Evaluation{Imbalance: max(sides[0], sides[1]), CutWeight: cut}
}

// Clone returns a deep copy that can be contracted independently.
func (h *Hypergraph) Clone() *Hypergraph {
	return &Hypergraph{
		pins:       slices.Clone(h.pins),
		nets:       slices.Clone(h.nets),
		a:          slices.Clone(h.a),
		enabled:    slices.Clone(h.enabled),
		disabled:   h.disabled,
		capacities: slices.Clone(h.capacities),
		weights:    slices.Clone(h.weights),
		mark:       make([]uint32, len(h.nets)),
	}
}

// Validate checks the incidence invariant: every enabled pin lists each of
// its nets exactly once, every net lists each of its (enabled) pins exactly
// once, and both directions agree. It is O(size of the buffer) and meant for
// tests and debugging.
func (h *Hypergraph) Validate() error {
	seen := make(map[[2]int]bool)
	for e, s := range h.nets {
		if s.idx < 0 || s.end() > len(h.a) {
			return fmt.Errorf("%w: net %d span out of bounds", ErrCorrupt, e)
		}
		for _, p := range h.a[s.idx:s.end()] {
			if p < 0 || p >= len(h.pins) {
				return fmt.Errorf("%w: net %d lists invalid pin %d", ErrCorrupt, e, p)
			}
			if !h.enabled[p] {
				return fmt.Errorf("%w: net %d lists disabled pin %d", ErrCorrupt, e, p)
			}
			if seen[[2]int{p, e}] {
				return fmt.Errorf("%w: net %d lists pin %d twice", ErrCorrupt, e, p)
			}
			seen[[2]int{p, e}] = true
		}
	}
	count := 0
	for p, s := range h.pins {
		if !h.enabled[p] {
			continue
		}
		if s.idx < 0 || s.end() > len(h.a) {
			return fmt.Errorf("%w: pin %d span out of bounds", ErrCorrupt, p)
		}
		nets := make(map[int]bool, s.len)
		for _, e := range h.a[s.idx:s.end()] {
			if nets[e] {
				return fmt.Errorf("%w: pin %d lists net %d twice", ErrCorrupt, p, e)
			}
			nets[e] = true
			if !seen[[2]int{p, e}] {
				return fmt.Errorf("%w: pin %d lists net %d which does not contain it", ErrCorrupt, p, e)
			}
			count++
		}
	}
	if count != len(seen) {
		return fmt.Errorf("%w: %d pin-side incidences, %d net-side", ErrCorrupt, count, len(seen))
	}
	return nil
}

// Side maps a label to its index in [Hypergraph.SideCapacities].
func Side(label bool) int {
	if label {
		return 1
	}
	return 0
}

func (h *Hypergraph) mustPin(p int) {
	if p < 0 || p >= len(h.pins) {
		panic(fmt.Sprintf("hypergraph: pin %d out of range [0, %d)", p, len(h.pins)))
	}
}

func (h *Hypergraph) mustLabels(labels []bool) {
	if len(labels) != len(h.pins) {
		panic(fmt.Sprintf("hypergraph: %d labels for %d pins", len(labels), len(h.pins)))
	}
}
