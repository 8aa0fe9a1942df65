package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"petitiondesk/adapters/excel"
	"petitiondesk/app"
	"petitiondesk/internal/config"
	"petitiondesk/internal/synthesizer"
	"petitiondesk/internal/textclf"
)

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	var rows int
	var seed int64
	var out string
	var report bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic labelled petition dataset",
		Long: `Generate a synthetic dataset of canned petitions with uniformly sampled
categories and urgency levels. The format follows the output extension (.csv or .xlsx).

Example: petitions generate --rows 1000 --seed 42 --out petitions_dataset.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = cfg.Data.File
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Data.Seed
			}

			ds, err := synthesizer.Generate(synthesizer.Config{Rows: rows, Seed: seed})
			if err != nil {
				return err
			}

			switch strings.ToLower(filepath.Ext(out)) {
			case ".xlsx":
				err = synthesizer.WriteXLSX(out, ds)
			case ".csv":
				err = synthesizer.WriteCSV(out, ds)
			default:
				return fmt.Errorf("unsupported output extension %q (use .csv or .xlsx)", filepath.Ext(out))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(ds.Examples), out)

			if report {
				synthesizer.Summarize(ds).Print(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", synthesizer.DefaultConfig().Rows, "Number of rows to generate")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed (defaults to SEED)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to DATA_FILE)")
	cmd.Flags().BoolVar(&report, "report", true, "Print label balance and chi-square checks")

	return cmd
}

func newTrainCmd(cfg *config.Config) *cobra.Command {
	var data string
	var seed int64
	var maxIter int

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the category and urgency pipelines and save them to the model store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				data = cfg.Data.File
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Data.Seed
			}

			examples, err := excel.NewDataReader(data).ReadExamples()
			if err != nil {
				return err
			}

			store, closeStore, err := openModelStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			opts := textclf.DefaultOptions()
			opts.Seed = seed
			opts.MaxIter = maxIter

			report, err := app.NewTrainingService(store, opts).Train(cmd.Context(), examples)
			if err != nil {
				return err
			}
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "Dataset file, .csv or .xlsx (defaults to DATA_FILE)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Split seed (defaults to SEED)")
	cmd.Flags().IntVar(&maxIter, "max-iter", textclf.DefaultOptions().MaxIter, "L-BFGS iteration cap")

	return cmd
}
