// Package hypergraph provides the compact pin/net incidence structure used by
// the multilevel bipartitioner.
//
// # Overview
//
// A hypergraph consists of pins (vertices) carrying a capacity and nets
// (hyperedges) carrying a weight. Each net spans an arbitrary subset of the
// pins. [Hypergraph] stores both directions of the incidence relation in a
// single flat buffer:
//
//   - per-pin net lists, one contiguous block per pin, laid out first
//   - per-net pin lists, one contiguous block per net, laid out after them
//
// Every pin and net owns a span (offset, length) into that buffer. Pin and net
// indices form a fixed index space: contraction disables pins but never
// removes their slot.
//
// # Contraction
//
// [Hypergraph.Contract] merges pin v into pin u. The nets of v are rewritten
// in place (v is swapped to the tail of each net's pin list, then either
// dropped by shrinking the net when u is already present, or overwritten with
// u). The first net that u gains causes u's net list to be copied to the end
// of the buffer, after which further nets are appended. The old block is
// never touched again, which is what allows [Hypergraph.Uncontract] to
// restore the previous state from the small [Memento] returned by Contract.
//
// Contractions must be undone in strict LIFO order:
//
//	h, _ := hypergraph.New(caps, weights, nets)
//	m1 := h.Contract(0, 1)
//	m2 := h.Contract(0, 2)
//	h.Uncontract(m2)
//	h.Uncontract(m1) // h is logically identical to the freshly built value
//
// # Views
//
// [Hypergraph.IncidentNets], [Hypergraph.PinsInNet] and
// [Hypergraph.IncidentPins] return lazy iterators. They do not materialize
// slices and read the structure at iteration time, so they may be ranged
// over repeatedly and always observe the current contraction level.
//
// # Evaluation
//
// [Hypergraph.Evaluate] scores a boolean labelling of the pins as a pair of
// imbalance (the heavier side's capacity) and cut weight (the summed weight
// of nets whose pins are not all on the same side).
//
// # Concurrency
//
// A Hypergraph is not safe for concurrent use. Independent partitioning
// trials should each work on their own copy obtained with
// [Hypergraph.Clone].
package hypergraph
