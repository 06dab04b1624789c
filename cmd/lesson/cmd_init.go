package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/lessonplay/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create ~/.lessonplay and a default config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.EnsureDir()
			if err != nil {
				return err
			}

			path := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s already exists (use --force to overwrite)\n", path)
				return nil
			}

			if err := config.SaveLocalConfig(config.DefaultLocalConfig(dir)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Put lessons.yaml, codes/ and instructions/ under %s\n", filepath.Join(dir, "catalog"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}
