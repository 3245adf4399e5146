package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seki-lab/lmpens/internal/invoke"
	"github.com/seki-lab/lmpens/internal/ledger"
	"github.com/seki-lab/lmpens/internal/logging"
	"github.com/seki-lab/lmpens/internal/materialize"
	"github.com/seki-lab/lmpens/internal/plan"
	"github.com/seki-lab/lmpens/internal/template"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Materialize an ensemble of run directories from a template",
		Long: `Instantiate a templated simulator input N times with per-run randomized
parameters and materialize each run into its own directory under --out.

With --exec, the external simulator is launched sequentially in each run
directory after materialization.

Example:
  lmpens generate --template-dir "10Ncluster_implantation to C_5keV" \
    --input 10atoms_5keV_N_implantation_to_C_ZBL_potential_filedata.txt \
    --out runs --runs 10 --seed 12345 --x-range=-20,20 --y-range=-20,20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadSetup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			templateDir, _ := cmd.Flags().GetString("template-dir")
			input, _ := cmd.Flags().GetString("input")
			outRoot, _ := cmd.Flags().GetString("out")
			runs, _ := cmd.Flags().GetInt("runs")
			baseSeed, _ := cmd.Flags().GetInt64("seed")
			styleName, _ := cmd.Flags().GetString("style")
			xVals, _ := cmd.Flags().GetFloat64Slice("x-range")
			yVals, _ := cmd.Flags().GetFloat64Slice("y-range")
			execCmdline, _ := cmd.Flags().GetString("exec")
			haltOnFailure, _ := cmd.Flags().GetBool("halt-on-failure")

			if cmd.Flags().Changed("copy") {
				cfg.Generate.CopyPatterns, _ = cmd.Flags().GetStringSlice("copy")
			}
			if cmd.Flags().Changed("stride") {
				cfg.Generate.SeedStride, _ = cmd.Flags().GetInt64("stride")
			}

			style, err := template.ParseStyle(styleName)
			if err != nil {
				return err
			}
			xMin, xMax, err := rangeFromFlag("x-range", xVals)
			if err != nil {
				return err
			}
			yMin, yMax, err := rangeFromFlag("y-range", yVals)
			if err != nil {
				return err
			}

			// Fatal misconfiguration is surfaced before any filesystem
			// mutation: template and plan are validated up front.
			doc, err := template.Load(templateDir, input)
			if err != nil {
				return err
			}
			configs, err := plan.Plan(plan.Params{
				Runs:     runs,
				BaseSeed: baseSeed,
				XRange:   template.Range{Min: xMin, Max: xMax},
				YRange:   template.Range{Min: yMin, Max: yMax},
				Style:    style,
				Stride:   cfg.Generate.SeedStride,
			})
			if err != nil {
				return err
			}
			// Substitute the first run before touching disk so a template
			// missing a slot fails the whole batch cleanly.
			if _, err := template.Substitute(doc, substitutionFor(configs[0])); err != nil {
				return err
			}

			ldg, err := ledger.Open(outRoot)
			if err != nil {
				return err
			}
			defer ldg.Close()

			batchID := uuid.NewString()
			if err := ldg.CreateBatch(ctx, ledger.Batch{
				ID:           batchID,
				TemplatePath: doc.Path,
				OutRoot:      outRoot,
				Runs:         runs,
				BaseSeed:     baseSeed,
				Style:        string(style),
				CreatedAt:    time.Now(),
			}); err != nil {
				return err
			}

			events := logging.NewEventLogger(outRoot, cfg.Logging.Level)
			defer events.Close()

			req := materialize.Request{
				TemplateDir:  templateDir,
				OutRoot:      outRoot,
				CopyPatterns: cfg.Generate.CopyPatterns,
				EntryName:    cfg.Generate.EntryName,
				BatchID:      batchID,
			}

			var refs []invoke.RunRef
			for _, rc := range configs {
				rewritten, err := template.Substitute(doc, substitutionFor(rc))
				if err != nil {
					return err
				}
				runDir, err := materialize.Materialize(req, rewritten, rc)
				if err != nil {
					return fmt.Errorf("materializing %s: %w", rc.ID, err)
				}
				if err := ldg.RecordRun(ctx, ledger.Run{
					BatchID: batchID,
					Index:   rc.Index,
					RunID:   rc.ID,
					Seed:    rc.Seed,
					X:       rc.X,
					Y:       rc.Y,
					Dir:     runDir.Path,
					Status:  ledger.StatusMaterialized,
				}); err != nil {
					return err
				}
				log.Info("prepared run", "run", rc.ID, "seed", rc.Seed, "dir", runDir.Path)
				events.Log(map[string]any{
					"event": "materialized",
					"batch": batchID,
					"run":   rc.ID,
					"seed":  rc.Seed,
					"dir":   runDir.Path,
				})
				refs = append(refs, invoke.RunRef{ID: rc.ID, Dir: runDir.Path})
			}

			if execCmdline == "" {
				fmt.Printf("Prepared %d runs under %s (batch %s)\n", len(refs), outRoot, batchID)
				return nil
			}

			argv, err := invoke.SplitCommand(execCmdline)
			if err != nil {
				return err
			}
			results, batchErr := invoke.Batch(ctx, refs, argv, invoke.Options{HaltOnFailure: haltOnFailure}, log)
			failed := 0
			for _, res := range results {
				status := ledger.StatusOK
				if res.Err != nil {
					status = ledger.StatusFailed
					failed++
				}
				idx := runIndexFor(configs, res.RunID)
				if err := ldg.UpdateRunStatus(ctx, batchID, idx, status, res.ExitCode); err != nil {
					return err
				}
				events.Log(map[string]any{
					"event":     "invoked",
					"batch":     batchID,
					"run":       res.RunID,
					"status":    status,
					"exit_code": res.ExitCode,
				})
			}
			if batchErr != nil {
				return batchErr
			}
			fmt.Printf("Completed %d runs (%d failed) under %s (batch %s)\n", len(results), failed, outRoot, batchID)
			return nil
		},
	}

	cmd.Flags().String("template-dir", "", "Directory holding the template input and its static artifacts")
	cmd.Flags().String("input", "", "Template input filename inside --template-dir")
	cmd.Flags().String("out", "", "Output root (run_01, run_02, ... are created here)")
	cmd.Flags().Int("runs", 10, "Number of runs in the ensemble")
	cmd.Flags().Int64("seed", 12345, "Base seed for per-run derivation")
	cmd.Flags().String("style", string(template.StyleSimple), "Substitution style: simple or loop-random-xy")
	cmd.Flags().Float64Slice("x-range", []float64{-20, 20}, "Injection x range: min,max")
	cmd.Flags().Float64Slice("y-range", []float64{-20, 20}, "Injection y range: min,max")
	cmd.Flags().Int64("stride", plan.DefaultSeedStride, "Seed offset stride for loop-random-xy")
	cmd.Flags().StringSlice("copy", nil, "Static artifact globs to copy into each run directory")
	cmd.Flags().String("exec", "", "Simulator command to run in each directory (e.g. 'lmp -in in.lmp')")
	cmd.Flags().Bool("halt-on-failure", false, "Abort the batch at the first failed run")

	cmd.MarkFlagRequired("template-dir")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("out")
	return cmd
}

// substitutionFor maps a planned run onto the template rewrite values.
func substitutionFor(rc plan.RunConfig) template.Substitution {
	sub := template.Substitution{Style: rc.Style}
	switch rc.Style {
	case template.StyleLoopRandomXY:
		sub.SeedOffset = rc.Seed
		sub.XRange = rc.XRange
		sub.YRange = rc.YRange
	default:
		sub.Seed = rc.Seed
		sub.X = rc.X
		sub.Y = rc.Y
	}
	return sub
}

func runIndexFor(configs []plan.RunConfig, runID string) int {
	for _, rc := range configs {
		if rc.ID == runID {
			return rc.Index
		}
	}
	return -1
}
