package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salesboard/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard views as a JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		addr := cfg.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		// Warm the cache so a broken source is reported at startup; the
		// server still starts and answers 503 until the source is fixed.
		if _, err := src.Current(); err != nil {
			fmt.Printf("⚠ Warning: %v\n", err)
		}
		zap.L().Info("serving", zap.String("addr", addr), zap.String("raw", cfg.RawPath))
		fmt.Printf("✓ Listening on %s\n", addr)
		return server.New(src, dashboardParams()).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config server_addr)")
}
