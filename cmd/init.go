package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/salesboard/internal/config"
	"github.com/KaramelBytes/salesboard/internal/utils"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [data-dir]",
	Short: "Create the data directory layout and a config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "data"
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := utils.ExpandPath(dir)
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			d, err := cfgpkg.Dir()
			if err != nil {
				return err
			}
			path = filepath.Join(d, "config.yaml")
		}
		// Refuse to overwrite an existing config.
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat config: %w", err)
		}

		for _, sub := range []string{"raw", "processed"} {
			if err := utils.EnsureDir(filepath.Join(dir, sub)); err != nil {
				return err
			}
		}
		c := cfgpkg.Defaults()
		c.DataDir = dir
		c.RawPath = filepath.Join(dir, "raw", "superstore.csv")
		c.ProcessedPath = filepath.Join(dir, "processed", "superstore_clean.csv")
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		cfg = c
		fmt.Printf("✓ Initialized data directory: %s\n", dir)
		fmt.Printf("✓ Wrote config: %s\n", path)
		fmt.Printf("  Place the raw export at %s\n", c.RawPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}
