// Package render draws a bipartitioned hypergraph.
//
// # Overview
//
// Hypergraphs are drawn through their star expansion: every pin becomes a
// box and every net a point joined to each of its pins. Pins are filled by
// side and cut nets are drawn in red, so the cut can be read off the
// picture directly.
//
//	dot, err := render.ToDOT(inst, labels, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot, render.LayoutNeato)
//
// # Formats
//
// [ToDOT] produces Graphviz DOT source. [RenderSVG] lays it out with the
// embedded Graphviz from github.com/goccy/go-graphviz, and [ToPDF] and
// [ToPNG] convert the SVG with the external rsvg-convert tool (librsvg).
//
// Star expansions of large instances are unreadable and slow to lay out;
// [ToDOT] refuses instances above Options.MaxPins.
package render
