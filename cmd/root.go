package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/salesboard/internal/config"
	"github.com/KaramelBytes/salesboard/internal/dashboard"
	"github.com/KaramelBytes/salesboard/internal/logging"
	"github.com/KaramelBytes/salesboard/internal/pipeline"
	"github.com/KaramelBytes/salesboard/internal/server"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagRaw       string
	flagProcessed string

	// Loaded configuration
	cfg *cfgpkg.Global

	restoreLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "salesboard",
	Short: "Salesboard: retail sales analytics from a flat export",
	Long: `Salesboard prepares a raw retail sales export (CSV, TSV or XLSX) into a clean
canonical table and serves KPI, trend, customer, product, Pareto and cohort
views over it, from the terminal or as a JSON API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer restoreLogger()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		restoreLogger()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salesboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagRaw, "raw", "", "raw sales export (overrides config raw_path)")
	rootCmd.PersistentFlags().StringVar(&flagProcessed, "processed", "", "processed output file (overrides config processed_path)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so commands can still run
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	if flagRaw != "" {
		cfg.RawPath = flagRaw
	}
	if flagProcessed != "" {
		cfg.ProcessedPath = flagProcessed
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	restoreLogger()
	restore, err := logging.Setup(level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logging: %v\n", err)
	}
	restoreLogger = restore
}

func pipelineOptions() (pipeline.Options, error) {
	d, err := cfg.DelimiterRune()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Delimiter: d, Sheet: cfg.Sheet}, nil
}

func dashboardParams() dashboard.Params {
	p := dashboard.DefaultParams()
	if cfg.ParetoTopN >= 0 {
		p.ParetoTopN = cfg.ParetoTopN
	}
	if cfg.TopN > 0 {
		p.RankTopN = cfg.TopN
	}
	p.CohortNormalize = cfg.CohortNormalize
	return p
}

// newSource returns the configured pipeline source.
func newSource() (*server.CacheSource, error) {
	opts, err := pipelineOptions()
	if err != nil {
		return nil, err
	}
	return server.NewCacheSource(cfg.RawPath, cfg.ProcessedPath, opts), nil
}

// loadResult prepares (or reloads) the canonical table once for a command.
func loadResult() (*pipeline.Result, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return src.Current()
}
