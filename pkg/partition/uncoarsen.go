package partition

import (
	"slices"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

// Gain returns the change in cut weight saved by moving pin p to the other
// side: the weight of p's nets that become uncut (p is the only pin on its
// side) minus the weight of p's nets that become cut (every pin is on p's
// side). A net holding only p counts both ways and contributes nothing.
func Gain(h *hypergraph.Hypergraph, p int, labels []bool) float64 {
	side := labels[p]
	var g float64
	for e := range h.IncidentNets(p) {
		n, same := 0, 0
		for q := range h.PinsInNet(e) {
			n++
			if labels[q] == side {
				same++
			}
		}
		if same == 1 {
			g += h.Weight(e)
		}
		if same == n {
			g -= h.Weight(e)
		}
	}
	return g
}

// refiner carries the gain queue and per-pin bookkeeping across the levels
// of one Uncoarsen call. Per-pass flags are stamped with the pass number so
// nothing needs clearing between levels.
type refiner struct {
	h      *hypergraph.Hypergraph
	labels []bool
	limit  float64
	sides  [2]float64
	cfg    Config

	queue    maxQueue
	gain     []float64 // authoritative gain of queued pins
	stale    []bool    // gain must be recomputed before use
	queuedAt []int
	movedAt  []int
	pass     int

	moves []int
	kept  int
}

// Uncoarsen replays mementos in reverse, restoring one contracted pin at a
// time. The restored pin v inherits the label of u; if either pin lies on
// the border it seeds a local search pass:
//
//   - the highest gain pin is popped; a stale gain is refreshed and re-queued
//   - otherwise the pin moves (if the move keeps the heavier side within
//     max(limit, current heavier side)) and is locked for the pass
//   - neighbours of the moved pin are invalidated, or queued if they just
//     became border pins
//   - the pass stops when the queue drains or after cfg.MaxNonImproving
//     consecutive moves with gain <= 0
//
// Afterwards every move past the prefix with the best cumulative gain is
// undone (ties keep the longer prefix).
//
// labels is updated in place and must have length h.NumPins().
func Uncoarsen(h *hypergraph.Hypergraph, mementos []hypergraph.Memento, labels []bool, limit float64, cfg Config) {
	cfg.SetDefaults()
	r := newRefiner(h, labels, limit, cfg)

	for _, m := range slices.Backward(mementos) {
		h.Uncontract(m)
		labels[m.V] = labels[m.U]

		r.startPass()
		for _, p := range [2]int{m.U, m.V} {
			if r.border(p) {
				r.enqueue(p)
			}
		}
		if r.queue.Len() > 0 {
			r.refine()
		}
	}

	cfg.Logger.Debug("uncoarsened hypergraph",
		"levels", len(mementos),
		"passes", r.pass,
		"moves_kept", r.kept)
}

func newRefiner(h *hypergraph.Hypergraph, labels []bool, limit float64, cfg Config) *refiner {
	n := h.NumPins()
	return &refiner{
		h:        h,
		labels:   labels,
		limit:    limit,
		sides:    h.SideCapacities(labels),
		cfg:      cfg,
		gain:     make([]float64, n),
		stale:    make([]bool, n),
		queuedAt: make([]int, n),
		movedAt:  make([]int, n),
	}
}

// startPass empties the queue and unlocks every pin.
func (r *refiner) startPass() {
	r.pass++
	r.queue.reset()
}

// border reports whether p shares a net with a pin on the other side.
func (r *refiner) border(p int) bool {
	side := r.labels[p]
	for q := range r.h.IncidentPins(p) {
		if r.labels[q] != side {
			return true
		}
	}
	return false
}

func (r *refiner) enqueue(p int) {
	r.gain[p] = Gain(r.h, p, r.labels)
	r.stale[p] = false
	r.queuedAt[p] = r.pass
	r.queue.push(candidate{key: r.gain[p], pin: p})
}

// admissible reports whether moving p keeps the heavier side within
// max(limit, heavier side before the move).
func (r *refiner) admissible(p int) bool {
	from := hypergraph.Side(r.labels[p])
	c := r.h.Capacity(p)
	after := r.sides
	after[from] -= c
	after[1-from] += c
	return max(after[0], after[1]) <= max(r.limit, r.sides[0], r.sides[1])
}

func (r *refiner) flip(p int) {
	c := r.h.Capacity(p)
	r.sides[hypergraph.Side(r.labels[p])] -= c
	r.labels[p] = !r.labels[p]
	r.sides[hypergraph.Side(r.labels[p])] += c
}

func (r *refiner) refine() {
	r.moves = r.moves[:0]
	best, bestGain, total := 0, 0.0, 0.0
	nonImproving := 0

	for r.queue.Len() > 0 {
		top := r.queue.pop()
		p := top.pin
		if r.movedAt[p] == r.pass || r.queuedAt[p] != r.pass {
			continue
		}
		if r.stale[p] {
			r.gain[p] = Gain(r.h, p, r.labels)
			r.stale[p] = false
		}
		if top.key != r.gain[p] {
			r.queue.push(candidate{key: r.gain[p], pin: p})
			continue
		}

		r.queuedAt[p] = 0
		if !r.admissible(p) {
			continue
		}

		g := r.gain[p]
		r.flip(p)
		r.movedAt[p] = r.pass
		r.moves = append(r.moves, p)
		total += g
		if total >= bestGain {
			best, bestGain = len(r.moves), total
		}
		if g <= 0 {
			nonImproving++
		} else {
			nonImproving = 0
		}
		if nonImproving >= r.cfg.MaxNonImproving {
			break
		}

		for q := range r.h.IncidentPins(p) {
			switch {
			case r.movedAt[q] == r.pass:
			case r.queuedAt[q] == r.pass:
				r.stale[q] = true
			case r.border(q):
				r.enqueue(q)
			}
		}
	}

	for _, p := range slices.Backward(r.moves[best:]) {
		r.flip(p)
	}
	r.kept += best
}
