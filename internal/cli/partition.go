package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/pipeline"
)

// partitionOpts holds the command-line flags for the partition command.
type partitionOpts struct {
	epsilon     float64
	trials      int
	workers     int
	seed        uint64
	name        string
	output      string // labels file; default <input>.part.2
	dot         string
	svg         string
	layout      string
	noCache     bool
	refresh     bool
	noSave      bool
	interactive bool
}

func (c *CLI) partitionCommand() *cobra.Command {
	opts := partitionOpts{
		epsilon: pipeline.DefaultEpsilon,
		trials:  pipeline.DefaultTrials,
		seed:    pipeline.DefaultSeed,
	}

	cmd := &cobra.Command{
		Use:   "partition [file]",
		Short: "Bipartition a hypergraph",
		Long: `Bipartition a hypergraph read from an hMETIS (.hgr) or JSON file.

Several independent trials run in parallel and the best labelling is kept:
the one with the smallest heavier side when the balance limit cannot be
met, and otherwise the one with the smallest cut weight. Labels are written
one per line (0 or 1), hMETIS partition file style.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.cfg.PipelineOptions()
			flags := cmd.Flags()
			if flags.Changed("epsilon") {
				popts.Epsilon = opts.epsilon
			}
			if flags.Changed("trials") {
				popts.Trials = opts.trials
			}
			if flags.Changed("workers") {
				popts.Workers = opts.workers
			}
			if flags.Changed("seed") {
				popts.Seed = opts.seed
			}
			popts.Refresh = opts.refresh
			return c.runPartition(cmd.Context(), args[0], popts, &opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.epsilon, "epsilon", "e", opts.epsilon, "balance tolerance: each side may hold (1+epsilon)/2 of the capacity")
	cmd.Flags().IntVarP(&opts.trials, "trials", "t", opts.trials, "number of independent runs")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel trials (default GOMAXPROCS)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "base seed; trial i uses seed+i")
	cmd.Flags().StringVar(&opts.name, "name", "", "run name (default: file name)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "labels file (default <file>.part.2)")
	cmd.Flags().StringVar(&opts.dot, "dot", "", "also write the partition as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "also render the partition as SVG")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "graphviz layout for --svg: neato (default), sfdp, fdp, dot")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the run in the history store")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "show a live table of finished trials")

	return cmd
}

func (c *CLI) runPartition(ctx context.Context, path string, popts pipeline.Options, opts *partitionOpts) error {
	logger := loggerFromContext(ctx)

	in, err := hio.ImportFile(path)
	if err != nil {
		return err
	}
	if opts.name != "" {
		in.Name = opts.name
	}
	logger.Debug("loaded instance", "path", path, "pins", in.NumPins(), "nets", in.NumNets())

	runLogger := logger
	if opts.interactive {
		runLogger = quietLogger()
	}
	popts.Logger = runLogger
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	ch := c.newCache(ctx, opts.noCache)
	defer ch.Close()
	runner := pipeline.NewRunner(ch, nil, runLogger)

	var res *pipeline.Result
	if opts.interactive {
		res, err = runInteractive(ctx, runner, in, popts)
	} else {
		res, err = runWithSpinner(ctx, runner, in, popts)
	}
	if err != nil {
		return err
	}

	printResult(res)

	out := opts.output
	if out == "" {
		out = path + ".part.2"
	}
	if err := hio.ExportLabels(res.Labels, out); err != nil {
		return err
	}
	printFile(out)

	if opts.dot != "" || opts.svg != "" {
		if err := writeRendering(ctx, in, res.Labels, opts.dot, opts.svg, opts.layout, defaultRenderOptions()); err != nil {
			return err
		}
	}

	if !opts.noSave {
		c.saveRun(ctx, res)
	}
	printNextStep("Render it", fmt.Sprintf("%s render %s %s", appName, path, out))
	return nil
}

// saveRun records res in the history store. Failures are logged, not fatal.
func (c *CLI) saveRun(ctx context.Context, res *pipeline.Result) {
	logger := loggerFromContext(ctx)
	st, err := c.openStore(ctx)
	if err != nil {
		logger.Warn("run history unavailable", "err", err)
		return
	}
	defer st.Close()
	if err := st.Save(ctx, res.Record()); err != nil {
		logger.Warn("save run", "err", err)
		return
	}
	printDetail("Run %s", res.ID)
}

func runWithSpinner(ctx context.Context, runner *pipeline.Runner, in *hio.Instance, opts pipeline.Options) (*pipeline.Result, error) {
	label := displayName(in)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Partitioning %s...", label))
	done := 0
	opts.Progress = func(pipeline.Trial) {
		done++
		spinner.SetMessage("Partitioning %s (%d/%d trials)...", label, done, opts.Trials)
	}
	spinner.Start()
	res, err := runner.Execute(ctx, in, opts)
	if err != nil && !spinner.Cancelled() {
		spinner.StopWithError(fmt.Sprintf("Partitioning %s failed", label))
	} else {
		spinner.Stop()
	}
	return res, err
}

// runInteractive runs the pipeline behind a live bubbletea trial table.
func runInteractive(ctx context.Context, runner *pipeline.Runner, in *hio.Instance, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := (1 + opts.Epsilon) * floats.Sum(in.Capacities) / 2
	p := tea.NewProgram(NewTrialModel(displayName(in), opts.Trials, limit, cancel))

	opts.Progress = func(t pipeline.Trial) { p.Send(trialMsg(t)) }
	finished := make(chan doneMsg, 1)
	go func() {
		res, err := runner.Execute(ctx, in, opts)
		msg := doneMsg{res: res, err: err}
		finished <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, err
	}
	msg := <-finished
	return msg.res, msg.err
}

func displayName(in *hio.Instance) string {
	if in.Name != "" {
		return in.Name
	}
	return "instance"
}

// trimExt returns path without its extension.
func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
