package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesboard/internal/analysis"
	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/report"
	"github.com/KaramelBytes/salesboard/internal/utils"
)

var (
	repFilters    filterFlags
	repOutputPath string
	repTopN       int
	repJSON       bool

	parFilters    filterFlags
	parOutputPath string
	parTop        int
	parTiers      []string

	cohFilters    filterFlags
	cohOutputPath string
	cohCounts     bool
)

var reportCmd = &cobra.Command{
	Use:       "report <" + strings.Join(report.Views, "|") + ">",
	Short:     "Render a dashboard view as Markdown",
	Args:      cobra.ExactArgs(1),
	ValidArgs: report.Views,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, t, err := filteredTable(&repFilters)
		if err != nil {
			return err
		}
		p := dashboardParams()
		if repTopN > 0 {
			p.RankTopN = repTopN
		}
		render := report.Render
		if repJSON {
			render = report.JSON
		}
		md, err := render(args[0], t, p)
		if err != nil {
			return err
		}
		return emit(cmd, repOutputPath, md)
	},
}

var paretoCmd = &cobra.Command{
	Use:   "pareto",
	Short: "ABC classification of products by sales",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, t, err := filteredTable(&parFilters)
		if err != nil {
			return err
		}
		p := dashboardParams()
		if cmd.Flags().Changed("top") {
			if parTop < 0 {
				return fmt.Errorf("invalid --top: %d", parTop)
			}
			p.ParetoTopN = parTop
		}
		if len(parTiers) > 0 {
			p.ParetoTiers = analysis.ParseTiers(parTiers)
			if len(p.ParetoTiers) == 0 {
				return fmt.Errorf("invalid --tiers: %v (use A, B, C)", parTiers)
			}
		}
		return emit(cmd, parOutputPath, report.ParetoMarkdown(dashboard.ParetoOnly(t, p)))
	},
}

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Customer retention by first-order month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, t, err := filteredTable(&cohFilters)
		if err != nil {
			return err
		}
		p := dashboardParams()
		if cmd.Flags().Changed("counts") {
			p.CohortNormalize = !cohCounts
		}
		return emit(cmd, cohOutputPath, report.CohortMarkdown(dashboard.Cohort(t, p)))
	},
}

// emit writes md to path when given, otherwise to the command's stdout.
func emit(cmd *cobra.Command, path, md string) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote report to %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addFilterFlags(reportCmd, &repFilters)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	reportCmd.Flags().BoolVar(&repJSON, "json", false, "emit the view as JSON instead of Markdown")
	reportCmd.Flags().IntVar(&repTopN, "top-n", 0, "rows in ranking sections (default from config top_n)")

	rootCmd.AddCommand(paretoCmd)
	addFilterFlags(paretoCmd, &parFilters)
	paretoCmd.Flags().StringVarP(&parOutputPath, "output", "o", "", "optional path to write the table (Markdown)")
	paretoCmd.Flags().IntVar(&parTop, "top", 30, "products to show (0 = all)")
	paretoCmd.Flags().StringSliceVar(&parTiers, "tiers", nil, "ABC classes to keep, e.g. A,B")

	rootCmd.AddCommand(cohortCmd)
	addFilterFlags(cohortCmd, &cohFilters)
	cohortCmd.Flags().StringVarP(&cohOutputPath, "output", "o", "", "optional path to write the matrix (Markdown)")
	cohortCmd.Flags().BoolVar(&cohCounts, "counts", false, "show customer counts instead of % of cohort")
}
