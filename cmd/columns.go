package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesboard/internal/analysis"
)

var (
	colFilters    filterFlags
	colOutputPath string
	colSampleRows int
	colTopValues  int
	colGroupBy    []string
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Profile every column of the canonical table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, t, err := filteredTable(&colFilters)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = colSampleRows
		if colTopValues > 0 {
			opt.TopValues = colTopValues
		}
		opt.GroupBy = colGroupBy
		name := filepath.Base(res.Source)
		if res.Canonical {
			name = filepath.Base(cfg.ProcessedPath)
		}
		return emit(cmd, colOutputPath, analysis.Profile(name, t, opt).Markdown())
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	addFilterFlags(columnsCmd, &colFilters)
	columnsCmd.Flags().StringVarP(&colOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	columnsCmd.Flags().IntVar(&colSampleRows, "sample-rows", 5, "number of sample rows to include")
	columnsCmd.Flags().IntVar(&colTopValues, "top-values", 5, "top values listed per categorical column")
	columnsCmd.Flags().StringSliceVar(&colGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
}
