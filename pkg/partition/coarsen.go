package partition

import (
	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

// Rate returns the heavy-edge rating of contracting v into u:
//
//	sum over nets e containing u and v of w(e) / (|e| - 1), divided by c(u) * c(v)
//
// Pairs joined by many heavy, small nets rate high; heavy pins rate low.
// Nets with fewer than two pins contribute nothing. When c(u) * c(v) is zero
// the unscaled sum is returned so zero-capacity pins remain contractible.
func Rate(h *hypergraph.Hypergraph, u, v int) float64 {
	var sum float64
	for e := range h.IncidentNets(u) {
		n := h.NetSize(e)
		if n < 2 {
			continue
		}
		for p := range h.PinsInNet(e) {
			if p == v {
				sum += h.Weight(e) / float64(n-1)
				break
			}
		}
	}
	return scaleRate(sum, h.Capacity(u), h.Capacity(v))
}

func scaleRate(sum, cu, cv float64) float64 {
	if d := cu * cv; d > 0 {
		return sum / d
	}
	return sum
}

// coarsener holds the lazy priority queue and per-pin scratch state of one
// Coarsen call.
type coarsener struct {
	h      *hypergraph.Hypergraph
	maxCap float64

	queue   maxQueue
	invalid []bool

	// rating accumulators, valid where stamp == epoch
	score   []float64
	stamp   []int
	epoch   int
	touched []int
}

// Coarsen contracts pin pairs chosen by heavy-edge rating until fewer than
// cfg.CoarsenLimit pins are enabled, or no contractible pair remains. It
// returns the mementos in contraction order.
//
// Only pins whose capacity does not exceed
// cfg.ClusterFactor * totalCapacity / cfg.CoarsenLimit seed a contraction.
// Each seed is queued with its best-rated neighbour. Contracting u marks every
// neighbour of u invalid; an invalid entry, or one whose target has been
// absorbed since, is re-rated and re-queued when it is popped instead of
// being acted on.
func Coarsen(h *hypergraph.Hypergraph, cfg Config) []hypergraph.Memento {
	cfg.SetDefaults()
	start := h.NumEnabled()
	if start < cfg.CoarsenLimit {
		return nil
	}

	c := newCoarsener(h, cfg)
	for p := range h.NumPins() {
		if h.Enabled(p) {
			c.enqueue(p)
		}
	}

	var mementos []hypergraph.Memento
	for h.NumEnabled() >= cfg.CoarsenLimit && c.queue.Len() > 0 {
		top := c.queue.pop()
		u, v := top.pin, top.target
		if !h.Enabled(u) {
			continue
		}
		// An absorbed target means u's neighbourhood changed as well.
		if c.invalid[u] || !h.Enabled(v) {
			c.invalid[u] = false
			c.enqueue(u)
			continue
		}

		mementos = append(mementos, h.Contract(u, v))
		for p := range h.IncidentPins(u) {
			c.invalid[p] = true
		}
		c.enqueue(u)
	}

	cfg.Logger.Debug("coarsened hypergraph",
		"pins", start,
		"coarse_pins", h.NumEnabled(),
		"contractions", len(mementos))
	return mementos
}

func newCoarsener(h *hypergraph.Hypergraph, cfg Config) *coarsener {
	n := h.NumPins()
	return &coarsener{
		h:       h,
		maxCap:  cfg.ClusterFactor * h.TotalCapacity() / float64(cfg.CoarsenLimit),
		invalid: make([]bool, n),
		score:   make([]float64, n),
		stamp:   make([]int, n),
	}
}

// enqueue queues u with its best-rated neighbour if u may seed a contraction.
func (c *coarsener) enqueue(u int) {
	if c.h.Capacity(u) > c.maxCap {
		return
	}
	if v, r, ok := c.bestMatch(u); ok {
		c.queue.push(candidate{key: r, pin: u, target: v})
	}
}

// bestMatch rates every neighbour of u in one sweep over u's nets and returns
// the highest rated one, preferring the lower index on ties.
func (c *coarsener) bestMatch(u int) (best int, rate float64, ok bool) {
	h := c.h
	c.epoch++
	c.touched = c.touched[:0]
	for e := range h.IncidentNets(u) {
		n := h.NetSize(e)
		if n < 2 {
			continue
		}
		share := h.Weight(e) / float64(n-1)
		for p := range h.PinsInNet(e) {
			if p == u {
				continue
			}
			if c.stamp[p] != c.epoch {
				c.stamp[p] = c.epoch
				c.score[p] = 0
				c.touched = append(c.touched, p)
			}
			c.score[p] += share
		}
	}

	cu := h.Capacity(u)
	for _, p := range c.touched {
		r := scaleRate(c.score[p], cu, h.Capacity(p))
		if !ok || r > rate || (r == rate && p < best) {
			best, rate, ok = p, r, true
		}
	}
	return best, rate, ok
}
