package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seki-lab/lmpens/internal/ledger"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List generated batches and their runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			outRoot, _ := cmd.Flags().GetString("out")
			batchID, _ := cmd.Flags().GetString("batch")

			if _, err := os.Stat(filepath.Join(outRoot, ledger.DBName)); err != nil {
				return fmt.Errorf("no ledger found under %s (run 'lmpens generate' first)", outRoot)
			}
			ldg, err := ledger.Open(outRoot)
			if err != nil {
				return err
			}
			defer ldg.Close()
			ctx := cmd.Context()

			batches, err := ldg.ListBatches(ctx)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				fmt.Println("No batches recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, b := range batches {
				if batchID != "" && b.ID != batchID {
					continue
				}
				fmt.Fprintf(w, "batch %s\t%s\truns=%d\tseed=%d\tstyle=%s\t%s\n",
					b.ID, b.TemplatePath, b.Runs, b.BaseSeed, b.Style,
					b.CreatedAt.Format("2006-01-02 15:04:05"))
				runs, err := ldg.ListRuns(ctx, b.ID)
				if err != nil {
					return err
				}
				for _, r := range runs {
					exit := "-"
					if r.ExitCode.Valid {
						exit = fmt.Sprintf("%d", r.ExitCode.Int64)
					}
					fmt.Fprintf(w, "  %s\tseed=%d\tx=%.3f\ty=%.3f\t%s\texit=%s\n",
						r.RunID, r.Seed, r.X, r.Y, r.Status, exit)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("out", ".", "Output root holding the batch ledger")
	cmd.Flags().String("batch", "", "Show only this batch ID")
	return cmd
}
