// Package partition computes balanced bipartitions of hypergraphs with the
// multilevel coarsen / initial-partition / uncoarsen scheme.
//
// # Pipeline
//
// [Run] sequences four stages on a [hypergraph.Hypergraph] it exclusively
// owns for the duration of the call:
//
//  1. [Coarsen] contracts heavy-edge matched pin pairs until fewer than
//     Config.CoarsenLimit pins remain, returning the contraction mementos.
//  2. [InitialPartition] runs a portfolio of random, BFS-half and
//     size-constrained label propagation heuristics on the coarse hypergraph
//     and keeps the best candidate.
//  3. [Uncoarsen] undoes the contractions in reverse order, running a
//     gain-driven local search pass around every restored pin pair.
//  4. The final labelling is evaluated on the restored hypergraph.
//
// [Bipartition] is the array-based entry point that builds the hypergraph
// first.
//
// # Balance
//
// A bipartition is balanced within epsilon when neither side carries more
// than (1+epsilon) * totalCapacity / 2. Candidates are compared by
// (max(imbalance, limit), cutWeight), so any balanced candidate beats any
// unbalanced one and balanced candidates are ranked by cut weight.
//
// # Randomness
//
// All randomness is drawn from the *rand.Rand passed in (or configured with
// [WithSeed] / [WithRand]). Runs with the same seed and input are identical;
// ties in the priority queues are broken by pin index.
//
// # Concurrency
//
// A single call is strictly sequential. Independent calls on separate
// hypergraphs share no state and may run in parallel; see the pipeline
// package for a multi-start driver.
package partition
