package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seki-lab/lmpens/internal/histogram"
	"github.com/seki-lab/lmpens/internal/locate"
	"github.com/seki-lab/lmpens/internal/record"
)

func newHistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hist [patterns...]",
		Short: "Aggregate result files into a depth histogram",
		Long: `Resolve each pattern (file, directory, or wildcard) into result files,
parse them into depth measurements, and print the binned distribution.

A directory argument is probed for the default result filenames; wildcards
may cover per-run subfolders (e.g. 'runs/run_*'), and '**' descends into
nested directories (e.g. 'runs/**/N_list'). Depth is surface_z - z,
so --surface-z (or the config's analysis.surface_z) is required.

Example:
  lmpens hist 'runs/run_*' --surface-z 125 --bin-width 5 --atom-type 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadSetup(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("surface-z") {
				v, _ := cmd.Flags().GetFloat64("surface-z")
				cfg.Analysis.SurfaceZ = &v
			}
			if cfg.Analysis.SurfaceZ == nil {
				return fmt.Errorf("surface z is required: pass --surface-z or set analysis.surface_z in the config")
			}
			if cmd.Flags().Changed("bin-width") {
				cfg.Analysis.BinWidth, _ = cmd.Flags().GetFloat64("bin-width")
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.Analysis.MaxDepth, _ = cmd.Flags().GetFloat64("max-depth")
			}
			noMaxDepth, _ := cmd.Flags().GetBool("no-max-depth")
			minDepth, _ := cmd.Flags().GetFloat64("min-depth")

			opts := record.Options{SurfaceZ: *cfg.Analysis.SurfaceZ}
			if cmd.Flags().Changed("atom-type") {
				t, _ := cmd.Flags().GetInt("atom-type")
				opts.TypeFilter = &t
			}

			res, err := locate.Locate(args, cfg.Analysis.ResultNames)
			if err != nil {
				return err
			}
			for _, miss := range res.Misses {
				log.Warn("pattern matched no result files", "pattern", miss.Pattern, "reason", miss.Reason)
			}
			if len(res.Files) == 0 {
				return fmt.Errorf("no result files found: %d of %d patterns matched nothing", len(res.Misses), len(args))
			}

			var all []record.DepthRecord
			for _, path := range res.Files {
				parsed, err := record.Parse(path, opts)
				if err != nil {
					return err
				}
				if parsed.Skipped > 0 {
					log.Warn("skipped malformed lines", "file", path, "skipped", parsed.Skipped)
				}
				if len(parsed.Records) == 0 {
					log.Warn("no depth records in file", "file", path)
					continue
				}
				fmt.Printf("%s: n=%d mean_depth=%.3f Å\n", path, len(parsed.Records), meanDepth(parsed.Records))
				all = append(all, parsed.Records...)
			}

			spec := histogram.Spec{
				BinWidth:  cfg.Analysis.BinWidth,
				LowerClip: &minDepth,
			}
			if !noMaxDepth {
				spec.UpperClip = &cfg.Analysis.MaxDepth
			}
			result, err := histogram.Aggregate(all, spec)
			if err != nil {
				return err
			}
			if result.Total == 0 {
				return fmt.Errorf("no depth records retained after clipping (%d parsed)", len(all))
			}

			fmt.Printf("ALL: n=%d mean_depth=%.3f Å\n", result.Total, result.Mean)
			for _, bin := range result.Bins {
				fmt.Printf("[%8.2f, %8.2f)  %d\n", bin.Start, bin.End, bin.Count)
			}

			if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
				if err := writeBinsCSV(outPath, result.Bins); err != nil {
					return err
				}
				fmt.Printf("Saved: %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().Float64("surface-z", 0, "Surface z coordinate in Å (required unless configured)")
	cmd.Flags().Float64("bin-width", 5.0, "Histogram bin width in Å")
	cmd.Flags().Float64("min-depth", 0, "Lower depth clip in Å (records below are dropped)")
	cmd.Flags().Float64("max-depth", 250.0, "Upper depth clip in Å, exclusive")
	cmd.Flags().Bool("no-max-depth", false, "Disable the upper depth clip")
	cmd.Flags().Int("atom-type", 0, "Keep only rows with this species/type tag (snapshot files)")
	cmd.Flags().String("out", "", "Write the bin table as CSV to this path")
	return cmd
}

func meanDepth(records []record.DepthRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Depth
	}
	return sum / float64(len(records))
}

// writeBinsCSV emits bin_start,bin_end,count rows for the external plotter.
func writeBinsCSV(path string, bins []histogram.Bin) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"bin_start", "bin_end", "count"}); err != nil {
		return err
	}
	for _, bin := range bins {
		row := []string{
			strconv.FormatFloat(bin.Start, 'f', -1, 64),
			strconv.FormatFloat(bin.End, 'f', -1, 64),
			strconv.Itoa(bin.Count),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
