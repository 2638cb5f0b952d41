package main

import (
	"github.com/spf13/cobra"
	"github.com/unixpickle/skin-d/skind"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Assemble per-joint training matrices",
	Long: `Rebuild the per-joint (inputs, outputs) training pairs from the
recorded sample set, optionally normalized and exported as CSV for
external trainers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		set, err := skind.LoadSampleSet(cfg.Output.Samples)
		if err != nil {
			return err
		}

		builder := &skind.DatasetBuilder{
			RotationOnly: cfg.Dataset.RotationOnly,
			Normalize:    cfg.Dataset.Normalize,
			Log:          log,
		}
		datasets, report, err := builder.Build(set)
		if err != nil {
			return err
		}
		logDiagnostics(log, report)

		joints := maps.Keys(datasets)
		slices.Sort(joints)
		for _, joint := range joints {
			ds := datasets[joint]
			rows, inCols := ds.Inputs.Dims()
			_, outCols := ds.Outputs.Dims()
			log.Info("dataset",
				zap.String("joint", joint),
				zap.Int("samples", rows),
				zap.Int("input_cols", inCols),
				zap.Int("output_cols", outCols),
				zap.Bool("normalized", ds.InputBounds != nil))
		}

		if cfg.Dataset.CSVDir != "" {
			paths, err := skind.ExportCSV(cfg.Dataset.CSVDir, set)
			if err != nil {
				return err
			}
			log.Info("wrote csv files",
				zap.String("dir", cfg.Dataset.CSVDir),
				zap.Int("files", len(paths)))
		}
		return nil
	},
}
