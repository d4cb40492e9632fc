package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/config"
	"github.com/binderlink/binderlink/internal/errors"
)

func configCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage " + config.ConfigFileName,
	}

	cmd.AddCommand(configInitCmd(), configShowCmd(opts))

	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.ConfigFileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) && !force {
				return errors.Newf(errors.CategoryConfig, "%s already exists in %s", config.ConfigFileName, dir).
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.New("E101").Wrap(err)
			}

			path := filepath.Join(dir, config.ConfigFileName)
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func configShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and BINDERLINK_* environment
overrides are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}
}
