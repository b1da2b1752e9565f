package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
	hio "github.com/matzehuels/hypercut/pkg/io"
)

// DefaultMaxPins bounds the instances [ToDOT] accepts by default.
const DefaultMaxPins = 2000

// Side colors.
const (
	colorTrue  = "#8ecae6"
	colorFalse = "#ffb703"
	colorCut   = "#d62828"
)

var (
	// ErrTooLarge is returned when an instance exceeds Options.MaxPins.
	ErrTooLarge = errors.New("instance too large to render")

	// ErrLabelCount is returned when labels and pins differ in number.
	ErrLabelCount = errors.New("label count does not match pin count")
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds capacities to pin labels and weights to cut nets.
	Detailed bool

	// HideUncut omits nets that are not cut, leaving their pins in place.
	HideUncut bool

	// MaxPins rejects larger instances; 0 uses DefaultMaxPins and a
	// negative value disables the check.
	MaxPins int
}

// ToDOT converts a labelled instance to an undirected Graphviz graph using
// the star expansion. labels may be nil, in which case every pin is drawn
// unfilled and no net is marked as cut.
func ToDOT(in *hio.Instance, labels []bool, opts Options) (string, error) {
	maxPins := opts.MaxPins
	if maxPins == 0 {
		maxPins = DefaultMaxPins
	}
	if maxPins > 0 && in.NumPins() > maxPins {
		return "", fmt.Errorf("%w: %d pins (max %d)", ErrTooLarge, in.NumPins(), maxPins)
	}
	if labels != nil && len(labels) != in.NumPins() {
		return "", fmt.Errorf("%w: %d labels for %d pins", ErrLabelCount, len(labels), in.NumPins())
	}

	var buf bytes.Buffer
	buf.WriteString("graph H {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [color=\"#888888\"];\n")
	buf.WriteString("\n")

	for p := range in.NumPins() {
		attrs := []string{fmt.Sprintf("label=%q", pinLabel(in, p, opts.Detailed))}
		if labels != nil {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", sideColor(labels[p])))
		}
		fmt.Fprintf(&buf, "  p%d [%s];\n", p, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for e, net := range in.Nets {
		cut := labels != nil && isCut(net, labels)
		if opts.HideUncut && !cut {
			continue
		}
		attrs := []string{"shape=point", "width=0.08"}
		edgeAttrs := ""
		if cut {
			attrs = append(attrs, fmt.Sprintf("color=%q", colorCut))
			edgeAttrs = fmt.Sprintf(" [color=%q, penwidth=2]", colorCut)
			if opts.Detailed {
				attrs = append(attrs, fmt.Sprintf("xlabel=%q", fmt.Sprintf("w=%g", weight(in, e))))
			}
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", e, strings.Join(attrs, ", "))
		for _, p := range net {
			fmt.Fprintf(&buf, "  n%d -- p%d%s;\n", e, p, edgeAttrs)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func pinLabel(in *hio.Instance, p int, detailed bool) string {
	if !detailed {
		return fmt.Sprint(p)
	}
	return fmt.Sprintf("%d\nc=%g", p, in.Capacities[p])
}

func sideColor(label bool) string {
	if label {
		return colorTrue
	}
	return colorFalse
}

func weight(in *hio.Instance, e int) float64 {
	if e < len(in.Weights) {
		return in.Weights[e]
	}
	return 1
}

func isCut(net []int, labels []bool) bool {
	for _, p := range net[min(1, len(net)):] {
		if labels[p] != labels[net[0]] {
			return true
		}
	}
	return false
}

// Legend summarises a labelling for captions: side capacities and cut.
func Legend(eval hypergraph.Evaluation, limit float64) string {
	return fmt.Sprintf("imbalance %.4g (limit %.4g), cut %.4g", eval.Imbalance, limit, eval.CutWeight)
}
