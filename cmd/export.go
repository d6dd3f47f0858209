package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/parser"
	"github.com/KaramelBytes/salesboard/internal/report"
)

var (
	expFilters filterFlags
	expXLSX    string
	expCSV     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered table and its views to XLSX and/or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if expXLSX == "" && expCSV == "" {
			return fmt.Errorf("specify at least one of --xlsx or --csv")
		}
		_, t, err := filteredTable(&expFilters)
		if err != nil {
			return err
		}
		zap.L().Debug("export", zap.Int("rows", t.Rows()), zap.String("xlsx", expXLSX), zap.String("csv", expCSV))
		if expXLSX != "" {
			if err := report.WriteWorkbook(expXLSX, t, dashboardParams()); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote workbook to %s (%d rows)\n", expXLSX, t.Rows())
		}
		if expCSV != "" {
			if err := parser.WriteCSVFile(expCSV, t); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote CSV to %s (%d rows)\n", expCSV, t.Rows())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addFilterFlags(exportCmd, &expFilters)
	exportCmd.Flags().StringVar(&expXLSX, "xlsx", "", "path of the XLSX workbook to write")
	exportCmd.Flags().StringVar(&expCSV, "csv", "", "path of the filtered CSV to write")
}
