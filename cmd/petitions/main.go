package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"petitiondesk/adapters/blobstore"
	"petitiondesk/adapters/transcribe"
	"petitiondesk/internal/config"
	"petitiondesk/internal/logging"
	"petitiondesk/internal/modelstore"
	"petitiondesk/ports"
)

var log = logging.New("CLI")

func main() {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:           "petitions",
		Short:         "Classify public petitions by category and urgency",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			logging.DefaultLogger.SetLevel(logging.ParseLevel(cfg.LogLevel))
			return nil
		},
	}

	rootCmd.AddCommand(
		newGenerateCmd(cfg),
		newTrainCmd(cfg),
		newClassifyCmd(cfg),
		newServeCmd(cfg),
		newAPICmd(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// openModelStore builds the configured blob backend. The returned func
// releases it.
func openModelStore(ctx context.Context, cfg *config.Config) (*modelstore.Store, func(), error) {
	switch cfg.Store.Kind {
	case config.StoreSQL:
		blobs, err := blobstore.OpenSQL(ctx, cfg.Store.DBDriver, cfg.Store.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("model store: %s", cfg.Store.DBDriver)
		return modelstore.New(blobs), func() { blobs.Close() }, nil
	default:
		blobs, err := blobstore.NewLocal(cfg.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("model store: %s", cfg.Store.Dir)
		return modelstore.New(blobs), func() {}, nil
	}
}

func newTranscriber(cfg *config.Config) (ports.Transcriber, error) {
	if cfg.Transcribe.URL == "" {
		log.Warn("TRANSCRIBE_URL not set; audio submissions use a fixed transcript")
		return transcribe.Static{}, nil
	}
	return transcribe.NewHTTPClient(transcribe.Config{
		BaseURL: cfg.Transcribe.URL,
		APIKey:  cfg.Transcribe.APIKey,
		Model:   cfg.Transcribe.Model,
		Timeout: cfg.Transcribe.Timeout,
	})
}
