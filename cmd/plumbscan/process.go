package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/app"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
)

func processCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Run the full pipeline on a PDF and print the result as JSON",
		Long: "Scans every page for a sheet number, renders the matching pages and classifies them\n" +
			"with the configured vision model. Settings come from the environment or a .env file,\n" +
			"the same as the server.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if concurrency > 0 {
				cfg.Classifier.Concurrency = concurrency
			}

			logger := app.NewLogger(cfg)

			processor, cleanup, err := app.NewProcessor(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := processor.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "pages classified in parallel (default: CLASSIFY_CONCURRENCY)")

	return cmd
}
