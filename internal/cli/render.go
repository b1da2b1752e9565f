package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hypercut/pkg/cache"
	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/observability"
	"github.com/matzehuels/hypercut/pkg/pipeline"
	"github.com/matzehuels/hypercut/pkg/render"
)

// Output formats of the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

var validFormats = map[string]bool{formatDOT: true, formatSVG: true, formatPDF: true, formatPNG: true}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string   // base path; each format appends its extension
	formats   []string // dot, svg, pdf, png
	run       string   // take labels from a stored run
	layout    string   // graphviz layout engine
	detailed  bool     // capacities on pins, weights on cut nets
	hideUncut bool     // omit nets that are not cut
	maxPins   int
	scale     float64 // PNG scale factor
	epsilon   float64 // balance tolerance shown in the summary
	noCache   bool
}

const keyTypeArtifact = "artifact"

func defaultRenderOptions() render.Options {
	return render.Options{}
}

func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		layout:  render.LayoutNeato,
		maxPins: render.DefaultMaxPins,
		scale:   2,
		epsilon: pipeline.DefaultEpsilon,
	}

	cmd := &cobra.Command{
		Use:   "render [file] [labels]",
		Short: "Render a partitioned hypergraph with Graphviz",
		Long: `Render a hypergraph and a labelling of its pins as a star expansion:
pins are boxes colored by side, nets are points, and cut nets are drawn in
red. Labels come from a partition file or, with --run, from the run history.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if (len(args) == 2) == (opts.run != "") {
				return errors.New("provide either a labels file or --run")
			}
			labelsPath := ""
			if len(args) == 2 {
				labelsPath = args[1]
			}
			return c.runRender(cmd.Context(), args[0], labelsPath, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.run, "run", "", "use the labels of a stored run")
	cmd.Flags().StringVar(&opts.layout, "layout", opts.layout, "graphviz layout: neato, sfdp, fdp, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show capacities and cut net weights")
	cmd.Flags().BoolVar(&opts.hideUncut, "hide-uncut", false, "omit nets that are not cut")
	cmd.Flags().IntVar(&opts.maxPins, "max-pins", opts.maxPins, "refuse larger instances (negative disables)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().Float64VarP(&opts.epsilon, "epsilon", "e", opts.epsilon, "balance tolerance for the printed limit")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable artifact caching")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', or 'png')", f)
		}
	}
	return nil
}

func (c *CLI) runRender(ctx context.Context, path, labelsPath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	in, err := hio.ImportFile(path)
	if err != nil {
		return err
	}
	labels, err := c.loadLabels(ctx, labelsPath, opts.run)
	if err != nil {
		return err
	}

	dot, err := render.ToDOT(in, labels, render.Options{
		Detailed:  opts.detailed,
		HideUncut: opts.hideUncut,
		MaxPins:   opts.maxPins,
	})
	if err != nil {
		return err
	}

	h, err := in.Hypergraph()
	if err != nil {
		return err
	}
	eval := h.Evaluate(labels)
	printInfo("%s", render.Legend(eval, h.SizeConstraint(opts.epsilon)))

	ch := c.newCache(ctx, opts.noCache)
	defer ch.Close()

	base := opts.output
	if base == "" {
		base = trimExt(path)
	}
	for _, format := range opts.formats {
		out := base + "." + format
		data, err := renderCached(ctx, ch, dot, format, opts)
		if errors.Is(err, render.ErrNoConverter) {
			printNextStep("Install librsvg for PDF and PNG export", "apt install librsvg2-bin")
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		printFile(out)
	}
	prog.done("Rendered", "formats", len(opts.formats))
	return nil
}

// renderCached looks up a Graphviz rendering of dot before running the
// layout. DOT output is returned as is.
func renderCached(ctx context.Context, ch cache.Cache, dot, format string, opts *renderOpts) ([]byte, error) {
	if format == formatDOT {
		return []byte(dot), nil
	}
	logger := loggerFromContext(ctx)
	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{
		Format: format,
		Layout: opts.layout,
		Scale:  opts.scale,
	})
	if data, ok, err := ch.Get(ctx, key); err != nil {
		logger.Warn("cache read failed", "err", err)
	} else if ok {
		observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
		logger.Debug("artifact cache hit", "format", format)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	data, err := renderFormat(ctx, dot, format, opts)
	if err != nil {
		return nil, err
	}
	if err := ch.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		logger.Warn("cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return data, nil
}

func renderFormat(ctx context.Context, dot, format string, opts *renderOpts) ([]byte, error) {
	if format == formatDOT {
		return []byte(dot), nil
	}
	svg, err := render.RenderSVG(ctx, dot, opts.layout)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatPDF:
		return render.ToPDF(ctx, svg)
	case formatPNG:
		return render.ToPNG(ctx, svg, opts.scale)
	}
	return svg, nil
}

// loadLabels reads labels from a partition file, or from the stored run id.
func (c *CLI) loadLabels(ctx context.Context, path, id string) ([]bool, error) {
	if path != "" {
		return hio.ImportLabels(path)
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	rec, err := st.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	if len(rec.Labels) == 0 {
		return nil, fmt.Errorf("run %s has no labels", id)
	}
	return rec.Labels, nil
}

// writeRendering writes the DOT and/or SVG rendering of a labelling.
func writeRendering(ctx context.Context, in *hio.Instance, labels []bool, dotPath, svgPath, layout string, opts render.Options) error {
	dot, err := render.ToDOT(in, labels, opts)
	if err != nil {
		return err
	}
	if dotPath != "" {
		if err := os.WriteFile(dotPath, []byte(dot), 0o644); err != nil {
			return err
		}
		printFile(dotPath)
	}
	if svgPath != "" {
		if layout == "" {
			layout = render.LayoutNeato
		}
		svg, err := render.RenderSVG(ctx, dot, layout)
		if err != nil {
			return err
		}
		if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
			return err
		}
		printFile(svgPath)
	}
	return nil
}
