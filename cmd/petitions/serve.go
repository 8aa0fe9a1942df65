package main

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"petitiondesk/adapters/api"
	"petitiondesk/app"
	"petitiondesk/internal/config"
	"petitiondesk/internal/ledger"
	"petitiondesk/ui"
)

// loadPredictor opens the model store and loads both pipelines. Any failure
// aborts the command.
func loadPredictor(cmd *cobra.Command, cfg *config.Config) (*app.PredictionService, func(), error) {
	store, closeStore, err := openModelStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	predictor := app.NewPredictionService(store)
	if err := predictor.Load(cmd.Context()); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to load models (run `petitions train` first): %w", err)
	}
	return predictor, closeStore, nil
}

func newClassifyCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Predict category, confidence and urgency for a petition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, closeStore, err := loadPredictor(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			pred, err := predictor.Classify(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(pred)
			}
			fmt.Fprintf(out, "Category:   %s\nConfidence: %.2f%%\nUrgency:    %s\n", pred.Category, pred.Confidence*100, pred.Urgency)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the prediction as JSON")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the petition submission and review UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, closeStore, err := loadPredictor(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			transcriber, err := newTranscriber(cfg)
			if err != nil {
				return err
			}

			intake := app.NewIntakeService(predictor, transcriber)
			web, err := ui.NewApp(predictor, intake, ledger.NewBoundedRegistry(cfg.Server.SessionIdleTTL, cfg.Server.MaxSessions))
			if err != nil {
				return err
			}
			return web.Start(cmd.Context(), net.JoinHostPort("", cfg.Server.Port))
		},
	}
}

func newAPICmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Run the JSON classification API",
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, closeStore, err := loadPredictor(cmd, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			server := api.NewServer(predictor, cfg.Server.GinMode)
			return server.Start(cmd.Context(), net.JoinHostPort("", cfg.Server.APIPort))
		},
	}
}
