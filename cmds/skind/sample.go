package main

import (
	"github.com/spf13/cobra"
	"github.com/unixpickle/skin-d/skind"
	"go.uber.org/zap"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Record the per-joint training corpus",
	Long: `Iterate the configured frame range and record, for every driving
joint, the joint's local transform and the local offset of every vertex
it drives. Requires the simplified weight table written by "simplify".`,
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
		model, err := skind.LoadWeights(cfg.Output.Weights)
		if err != nil {
			return err
		}

		writer, report, err := skind.NewSampleWriter(scene.Skeleton, model)
		if err != nil {
			return err
		}
		writer.Log = log
		logDiagnostics(log, report)

		sampler := &skind.FrameSampler{
			Scene:      scene,
			Skeleton:   scene.Skeleton,
			Rest:       scene.Rest,
			TargetMesh: cfg.TargetMesh,
			Range:      cfg.Frames,
			Log:        log,
		}
		if err := sampler.Each(writer.Record); err != nil {
			// A truncated corpus must not be finalized.
			writer.Abort()
			return err
		}
		set, err := writer.Finalize()
		if err != nil {
			return err
		}

		if err := skind.SaveSampleSet(cfg.Output.Samples, set); err != nil {
			return err
		}
		log.Info("wrote sample set",
			zap.String("path", cfg.Output.Samples),
			zap.Int("joints", len(set)),
			zap.Int("samples", set.NumSamples()))
		return nil
	},
}
