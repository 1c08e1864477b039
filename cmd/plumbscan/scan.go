package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/app"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/extractor"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

// scanCmd runs only the title-block scan. It needs no model credentials, which
// makes it the quick way to tune the region and pattern for a drawing set.
func scanCmd() *cobra.Command {
	var scan config.ScanConfig
	var logLevel string

	cmd := &cobra.Command{
		Use:   "scan <pdf>",
		Short: "List the pages whose title block matches the sheet-number pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner, err := app.NewScanner(scan, utils.NewLogger(logLevel))
			if err != nil {
				return err
			}

			candidates, err := scanner.Scan(args[0])
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(candidates, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}

	def := extractor.DefaultRegion
	cmd.Flags().Float64Var(&scan.RegionWidth, "width", def.Width, "width of the title-block region in points")
	cmd.Flags().Float64Var(&scan.RegionHeight, "height", def.Height, "height of the title-block region in points")
	cmd.Flags().StringVar(&scan.RegionAnchor, "anchor", string(def.Anchor), "page corner the region is anchored to: bottom-right|bottom-left|top-right|top-left")
	cmd.Flags().StringVar(&scan.SheetPattern, "pattern", extractor.DefaultSheetPattern, "sheet-number regular expression")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	return cmd
}
