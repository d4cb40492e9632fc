package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/pkg/provider"
)

func providersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the configured repository providers",
		Long: `List the repository providers of the configured registry.

Without a providers source in the configuration, the builtin table is
listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printProviders(cmd.OutOrStdout(), reg)
			return nil
		},
	}

	cmd.AddCommand(providersExportCmd(opts), providersCheckCmd())

	return cmd
}

func providersExportCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the provider registry as a document",
		Long: `Write the provider registry as a JSON, YAML or TOML document.

The output can be edited and used as providers.file.

Examples:
  binderlink providers export > providers.json
  binderlink providers export --format yaml > providers.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := provider.FormatFromPath("registry." + format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return provider.Encode(cmd.OutOrStdout(), reg, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(provider.FormatJSON), "Document format: json, yaml or toml")

	return cmd
}

func providersCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a provider registry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := provider.LoadFile(args[0])
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s: %d providers", args[0], reg.Len())
			return nil
		},
	}
}

func printProviders(w io.Writer, reg *provider.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREFERENCE\tDETECTS URLS")
	for _, p := range reg.All() {
		ref := "-"
		if p.Ref.Enabled {
			ref = p.RefLabel()
			if p.Ref.Default != "" {
				ref += " [" + p.Ref.Default + "]"
			}
		}
		detects := "no"
		if p.Pattern() != nil {
			detects = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.DisplayName, ref, detects)
	}
	tw.Flush()
}
