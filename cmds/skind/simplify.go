package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/unixpickle/skin-d/skind"
	"go.uber.org/zap"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify",
	Short: "Collapse every vertex to a single driving joint",
	Long: `Reduce the multi-influence weight table so that each vertex has
exactly one driving joint, using the strategy from the config: "fast"
keeps the maximum existing weight per vertex, "exhaustive" samples the
frame range and keeps the joint whose rigid motion best matches the
target mesh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		scene, err := skind.LoadScene(cfg.Scene)
		if err != nil {
			return err
		}
		model, err := skind.LoadWeights(cfg.Weights)
		if err != nil {
			return err
		}
		tieBreak, err := skind.ParseTieBreak(cfg.Simplify.TieBreak)
		if err != nil {
			return err
		}

		simplifier := &skind.Simplifier{
			Model:       model,
			TieBreak:    tieBreak,
			Concurrency: cfg.Simplify.Concurrency,
			Log:         log,
		}

		var report *skind.Report
		switch cfg.Simplify.Strategy {
		case "fast":
			report, err = simplifier.SimplifyFast()
		case "exhaustive":
			sampler := &skind.FrameSampler{
				Scene:      scene,
				Skeleton:   scene.Skeleton,
				Rest:       scene.Rest,
				TargetMesh: cfg.TargetMesh,
				Range:      cfg.Frames,
				Log:        log,
			}
			var snapshots []*skind.Snapshot
			snapshots, err = sampler.Collect()
			if err != nil {
				return err
			}
			report, err = simplifier.SimplifyExhaustive(snapshots)
		default:
			return errors.Errorf("unknown strategy %q", cfg.Simplify.Strategy)
		}
		if err != nil {
			return err
		}
		logDiagnostics(log, report)

		if err := skind.SaveWeights(cfg.Output.Weights, model); err != nil {
			return err
		}
		log.Info("wrote simplified weights",
			zap.String("path", cfg.Output.Weights),
			zap.Int("vertices", model.NumVertices()),
			zap.Int("skipped", len(report.Diagnostics)))
		return nil
	},
}
