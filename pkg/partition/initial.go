package partition

import (
	"math/rand/v2"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

// Heuristic produces one candidate labelling of the enabled pins of h.
// Disabled pins are labelled false.
type Heuristic func(h *hypergraph.Hypergraph, limit float64, cfg Config, rng *rand.Rand) []bool

// Heuristics is the initial partitioning portfolio in generation order.
var Heuristics = []struct {
	Name string
	Run  Heuristic
}{
	{"random", RandomPartition},
	{"bfs-half", BFSHalf},
	{"sclap", LabelPropagation},
}

// score orders candidates: balance violation first, then cut weight.
type score struct {
	balance float64
	cut     float64
}

func scoreOf(e hypergraph.Evaluation, limit float64) score {
	return score{balance: max(e.Imbalance, limit), cut: e.CutWeight}
}

func (s score) less(o score) bool {
	if s.balance != o.balance {
		return s.balance < o.balance
	}
	return s.cut < o.cut
}

// Better reports whether a is strictly preferable to b under the size limit:
// smaller max(imbalance, limit) first, then smaller cut weight.
func Better(a, b hypergraph.Evaluation, limit float64) bool {
	return scoreOf(a, limit).less(scoreOf(b, limit))
}

// InitialPartition runs cfg.Iterations rounds of every heuristic in
// [Heuristics] on h and returns the best candidate. The first candidate wins
// ties, so the result is always one of the generated labellings.
func InitialPartition(h *hypergraph.Hypergraph, epsilon float64, cfg Config, rng *rand.Rand) []bool {
	candidates, best := portfolio(h, epsilon, cfg, rng)
	return candidates[best]
}

func portfolio(h *hypergraph.Hypergraph, epsilon float64, cfg Config, rng *rand.Rand) ([][]bool, int) {
	cfg.SetDefaults()
	limit := h.SizeConstraint(epsilon)

	candidates := make([][]bool, 0, len(Heuristics)*cfg.Iterations)
	best := -1
	var bestScore score
	for _, heur := range Heuristics {
		for range cfg.Iterations {
			labels := heur.Run(h, limit, cfg, rng)
			s := scoreOf(h.Evaluate(labels), limit)
			if best < 0 || s.less(bestScore) {
				best, bestScore = len(candidates), s
			}
			candidates = append(candidates, labels)
		}
	}

	cfg.Logger.Debug("initial partition",
		"candidates", len(candidates),
		"winner", heuristicName(best, cfg.Iterations),
		"imbalance", bestScore.balance,
		"cut", bestScore.cut)
	return candidates, best
}

func heuristicName(idx, iterations int) string {
	if idx < 0 {
		return ""
	}
	return Heuristics[idx/iterations].Name
}

// RandomPartition labels every enabled pin independently and uniformly.
func RandomPartition(h *hypergraph.Hypergraph, _ float64, _ Config, rng *rand.Rand) []bool {
	labels := make([]bool, h.NumPins())
	for p := range labels {
		if h.Enabled(p) {
			labels[p] = rng.IntN(2) == 1
		}
	}
	return labels
}

// BFSHalf grows the true side breadth-first from a random enabled pin. The
// first half of the enabled pins to be dequeued are labelled true; after the
// quota is met no further pins are enqueued and the rest of the queue drains
// as false. Pins never reached stay false.
func BFSHalf(h *hypergraph.Hypergraph, _ float64, _ Config, rng *rand.Rand) []bool {
	labels := make([]bool, h.NumPins())
	pins := enabledPins(h)
	if len(pins) == 0 {
		return labels
	}

	quota := len(pins) / 2
	root := pins[rng.IntN(len(pins))]
	visited := make([]bool, h.NumPins())
	visited[root] = true
	queue := []int{root}
	assigned := 0
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		if assigned >= quota {
			continue
		}
		labels[p] = true
		assigned++
		for q := range h.IncidentPins(p) {
			if !visited[q] {
				visited[q] = true
				queue = append(queue, q)
			}
		}
	}
	return labels
}

// unlabeled marks a pin without a side during label propagation.
const unlabeled int8 = -1

// propagation tracks the labels assigned so far and the capacity they put on
// each side.
type propagation struct {
	h       *hypergraph.Hypergraph
	limit   float64
	labels  []int8
	sides   [2]float64
	labeled int
}

// assign moves p to side, keeping the side capacities and labelled count in
// step with the transition from p's previous label.
func (s *propagation) assign(p, side int) {
	c := s.h.Capacity(p)
	if old := s.labels[p]; old == unlabeled {
		s.labeled++
	} else {
		s.sides[old] -= c
	}
	s.labels[p] = int8(side)
	s.sides[side] += c
}

func (s *propagation) fits(p, side int) bool {
	return s.sides[side]+s.h.Capacity(p) <= s.limit
}

// choose picks the side for p given the weight of labelled nets pulling it
// towards each side. The heavier pull wins, ties go to the lighter side. If
// that side would exceed the limit the other side is used; if both would,
// p goes to the false side.
func (s *propagation) choose(p int, pull [2]float64) int {
	side := 0
	switch {
	case pull[1] > pull[0]:
		side = 1
	case pull[1] == pull[0] && s.sides[1] < s.sides[0]:
		side = 1
	}
	if s.fits(p, side) {
		return side
	}
	if other := 1 - side; s.fits(p, other) {
		return other
	}
	return 0
}

// pull sums, per side, the weight of p's nets that already hold a pin of
// that side. touched reports whether any of p's nets holds a labelled pin,
// which also covers nets of zero weight.
func (s *propagation) pull(p int) (w [2]float64, touched bool) {
	for e := range s.h.IncidentNets(p) {
		var has [2]bool
		for q := range s.h.PinsInNet(e) {
			if l := s.labels[q]; l != unlabeled {
				has[l] = true
			}
		}
		for side := range has {
			if has[side] {
				w[side] += s.h.Weight(e)
				touched = true
			}
		}
	}
	return w, touched
}

// LabelPropagation is size-constrained label propagation. Two
// pseudo-peripheral pins seed the true and false sides, each together with
// up to cfg.SeedNeighbors random neighbours. Every connected component that
// neither seed reaches gets one pin placed on the lighter side, so isolated
// pins are labelled up front. Sweeps over the remaining unlabelled pins then
// assign each pin that touches a labelled net to the side pulling hardest,
// subject to the size limit.
func LabelPropagation(h *hypergraph.Hypergraph, limit float64, cfg Config, rng *rand.Rand) []bool {
	pins := enabledPins(h)
	s := newPropagation(h, limit)

	if len(pins) > 0 {
		first, second := pseudoPeripheral(h, pins, rng)
		s.assign(first, 1)
		if second != first {
			s.assign(second, 0)
		}
		s.seedNeighbors(first, 1, cfg.SeedNeighbors, rng)
		if second != first {
			s.seedNeighbors(second, 0, cfg.SeedNeighbors, rng)
		}
	}
	s.seedComponents(pins)
	s.sweep(pins)

	labels := make([]bool, h.NumPins())
	for p, l := range s.labels {
		labels[p] = l == 1
	}
	return labels
}

func newPropagation(h *hypergraph.Hypergraph, limit float64) *propagation {
	s := &propagation{
		h:      h,
		limit:  limit,
		labels: make([]int8, h.NumPins()),
	}
	for p := range s.labels {
		s.labels[p] = unlabeled
	}
	return s
}

// seedComponents walks the connected components of the enabled pins once
// and labels the first pin of every component that holds no label yet.
func (s *propagation) seedComponents(pins []int) {
	visited := make([]bool, s.h.NumPins())
	var queue []int
	for _, root := range pins {
		if visited[root] {
			continue
		}
		visited[root] = true
		queue = append(queue[:0], root)
		seeded := false
		for head := 0; head < len(queue); head++ {
			p := queue[head]
			if s.labels[p] != unlabeled {
				seeded = true
			}
			for q := range s.h.IncidentPins(p) {
				if !visited[q] {
					visited[q] = true
					queue = append(queue, q)
				}
			}
		}
		if !seeded {
			s.assign(root, s.choose(root, [2]float64{}))
		}
	}
}

// sweep labels the remaining pins and returns the number of sweeps it took.
// Each sweep visits only the pins still unlabelled after the previous one.
func (s *propagation) sweep(pins []int) int {
	pending := make([]int, 0, len(pins)-s.labeled)
	for _, p := range pins {
		if s.labels[p] == unlabeled {
			pending = append(pending, p)
		}
	}

	sweeps := 0
	for len(pending) > 0 {
		sweeps++
		rest := pending[:0]
		for _, p := range pending {
			w, touched := s.pull(p)
			if !touched {
				rest = append(rest, p)
				continue
			}
			s.assign(p, s.choose(p, w))
		}
		// Not reached while every component holds a label.
		if len(rest) == len(pending) {
			s.assign(rest[0], s.choose(rest[0], [2]float64{}))
			rest = rest[1:]
		}
		pending = rest
	}
	return sweeps
}

// seedNeighbors puts up to tau random unlabelled neighbours of seed on the
// seed's side, skipping any that would exceed the limit.
func (s *propagation) seedNeighbors(seed, side, tau int, rng *rand.Rand) {
	seen := make(map[int]bool)
	var neighbours []int
	for q := range s.h.IncidentPins(seed) {
		if !seen[q] && s.labels[q] == unlabeled {
			seen[q] = true
			neighbours = append(neighbours, q)
		}
	}
	rng.Shuffle(len(neighbours), func(i, j int) {
		neighbours[i], neighbours[j] = neighbours[j], neighbours[i]
	})
	for _, q := range neighbours[:min(tau, len(neighbours))] {
		if s.fits(q, side) {
			s.assign(q, side)
		}
	}
}

// pseudoPeripheral approximates the endpoints of a diameter: two rounds of
// breadth-first search, each restarted from the last pin the previous one
// reached. When both rounds end on the same pin (a singleton component) a
// different random pin is used as the second seed.
func pseudoPeripheral(h *hypergraph.Hypergraph, pins []int, rng *rand.Rand) (int, int) {
	start := pins[rng.IntN(len(pins))]
	first := lastVisited(h, start)
	second := lastVisited(h, first)
	if second == first && len(pins) > 1 {
		for second == first {
			second = pins[rng.IntN(len(pins))]
		}
	}
	return first, second
}

// lastVisited returns the final pin dequeued by a breadth-first search from start.
func lastVisited(h *hypergraph.Hypergraph, start int) int {
	visited := make([]bool, h.NumPins())
	visited[start] = true
	queue := []int{start}
	for head := 0; head < len(queue); head++ {
		for q := range h.IncidentPins(queue[head]) {
			if !visited[q] {
				visited[q] = true
				queue = append(queue, q)
			}
		}
	}
	return queue[len(queue)-1]
}

func enabledPins(h *hypergraph.Hypergraph) []int {
	pins := make([]int, 0, h.NumEnabled())
	for p := range h.NumPins() {
		if h.Enabled(p) {
			pins = append(pins, p)
		}
	}
	return pins
}
