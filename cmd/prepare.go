package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesboard/internal/pipeline"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Run the preprocessing pipeline and write the processed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pipelineOptions()
		if err != nil {
			return err
		}
		res, err := pipeline.PrepareFromPaths(cfg.RawPath, cfg.ProcessedPath, opts)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Prepared %s (%s): %d rows, %d columns\n",
			res.Source, res.Encoding, res.Table.Rows(), res.Table.NumColumns())
		if res.Drop.Removed > 0 {
			fmt.Printf("  removed %d of %d rows with missing values\n", res.Drop.Removed, res.Drop.Before)
		}
		for _, d := range res.Diagnostics {
			if d.Kind == pipeline.DiagPersist {
				continue
			}
			fmt.Printf("⚠ Warning: %s: %s\n", d.Column, d.Message)
		}
		switch {
		case res.Persist.OK:
			fmt.Printf("✓ Wrote processed table to %s\n", res.Persist.Path)
		case res.Persist.Err != nil:
			fmt.Printf("⚠ Warning: processed table not saved: %v\n", res.Persist.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}
