// Package io reads and writes hypergraph instances and partition labels.
//
// # Formats
//
// Two instance formats are supported, chosen by file extension in
// [ImportFile] and [ExportFile]:
//
//   - ".hgr": the hMETIS text format
//   - ".json": a direct encoding of [Instance]
//
// # hMETIS
//
// The first non-comment line is a header "numNets numPins [fmt]". It is
// followed by one line per net listing its 1-based pins, and, when fmt asks
// for pin weights, one line per pin holding its capacity:
//
//	% two nets over four pins, net weights present
//	2 4 1
//	3 1 2
//	1 2 3 4
//
// fmt is 0 (or absent) for unweighted, 1 for net weights (first number of
// each net line), 10 for pin weights, 11 for both. Lines starting with '%'
// are comments. Missing weights default to 1.
//
// # JSON
//
//	{
//	  "capacities": [1, 1, 1, 1],
//	  "weights": [3, 1],
//	  "nets": [[0, 1], [1, 2, 3]]
//	}
//
// Pins are 0-based. "capacities" is required; "weights" may be omitted,
// in which case every net weighs 1.
//
// # Labels
//
// [WriteLabels] and [ReadLabels] use the hMETIS partition file layout: one
// line per pin holding 0 or 1.
//
// Errors from the readers wrap [ErrInvalidFormat] and name the offending
// line where there is one.
package io
