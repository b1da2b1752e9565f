package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	hio "github.com/matzehuels/hypercut/pkg/io"
	"github.com/matzehuels/hypercut/pkg/store"
)

// runsCommand creates the run history command.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run history",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())

	return cmd
}

func (c *CLI) runsListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				recs, err := st.List(cmd.Context(), store.ListOptions{Limit: limit})
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("No runs recorded")
					return nil
				}
				fmt.Println(runTable(recs))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one run and optionally export its labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				rec, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				printRecord(rec)
				if output != "" {
					if err := hio.ExportLabels(rec.Labels, output); err != nil {
						return err
					}
					printFile(output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the run's labels to this file")
	return cmd
}

func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func printRecord(rec *store.Record) {
	fmt.Println(StyleTitle.Render(rec.ID))
	if rec.Name != "" {
		printKeyValue("name", rec.Name)
	}
	printKeyValue("created", rec.CreatedAt.Local().Format(time.DateTime))
	printKeyValue("size", fmt.Sprintf("%d pins, %d nets", rec.Pins, rec.Nets))
	printKeyValue("options", fmt.Sprintf("epsilon %s, %d trials, seed %d", formatFloat(rec.Epsilon), rec.Trials, rec.Seed))
	printKeyValue("cut", formatFloat(rec.CutWeight))
	printKeyValue("imbalance", fmt.Sprintf("%s / %s", formatFloat(rec.Imbalance), formatFloat(rec.Limit)))
	if rec.Cached {
		printKeyValue("source", iconCached)
	} else {
		printKeyValue("duration", rec.Duration.Round(time.Millisecond).String())
	}
	printKeyValue("instance", rec.InstanceHash)
}
