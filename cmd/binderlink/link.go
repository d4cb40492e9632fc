package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/launch"
	"github.com/binderlink/binderlink/pkg/provider"
)

// selectionFlags are the form fields shared by link and spec.
type selectionFlags struct {
	provider string
	repo     string
	ref      string
	path     string
	pathKind string
	baseURL  string
	json     bool
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Provider id (default: first provider of the registry)")
	cmd.Flags().StringVarP(&f.repo, "repo", "r", "", "Repository, or a URL the provider recognises")
	cmd.Flags().StringVar(&f.ref, "ref", "", "Git ref, DOI version or project name")
	cmd.Flags().StringVar(&f.path, "path", "", "File or URL path to open after launch")
	cmd.Flags().StringVar(&f.pathKind, "path-kind", string(launch.PathFile), "How --path is opened: file or url")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Public base URL (default from config)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON")
}

// selection applies the flags to a fresh form session. Repository input the
// provider does not recognise is reported on w and left out.
func (f *selectionFlags) selection(w io.Writer, reg *provider.Registry) (*launch.Selection, error) {
	sel, err := launch.NewSelection(reg)
	if err != nil {
		return nil, err
	}
	if f.provider != "" {
		if err := sel.SelectProvider(f.provider); err != nil {
			return nil, err
		}
	}
	kind, err := launch.ParsePathKind(f.pathKind)
	if err != nil {
		return nil, err
	}
	sel.SetPathKind(kind)
	sel.SetPath(f.path)
	sel.SetRef(f.ref)

	if f.repo != "" && !sel.InputRepo(f.repo) {
		warn(w, "%q is not recognised as a %s repository", f.repo, sel.Provider().DisplayName)
	}
	return sel, nil
}

// resolve loads the public base URL and the provider registry.
func (f *selectionFlags) resolve(ctx context.Context, opts *globalOptions) (*url.URL, *provider.Registry, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	if f.baseURL != "" {
		cfg.PublicBaseURL = f.baseURL
	}
	base, err := cfg.PublicBase()
	if err != nil {
		return nil, nil, err
	}
	reg, err := loadRegistry(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return base, reg, nil
}

func linkCmd(opts *globalOptions) *cobra.Command {
	var (
		flags selectionFlags
		badge string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the launch URL and badge for a repository",
		Long: `Print the shareable launch URL and README badge for a repository.

Examples:
  binderlink link -p gh -r https://github.com/binder-examples/requirements
  binderlink link -p gl -r group/project --ref v1.0 --path index.ipynb
  binderlink link -p zenodo -r 10.5281/zenodo.3242074 --badge rst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := launch.ParseBadgeKind(badge)
			if err != nil {
				return err
			}
			base, reg, err := flags.resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, err := flags.selection(cmd.ErrOrStderr(), reg)
			if err != nil {
				return err
			}

			link := sel.Link(kind, base)
			if link.LaunchURL == "" {
				return errors.New("E152").WithDetailf("provider %s, repository %q", link.Provider, link.Repo)
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), link)
			}
			printLink(cmd.OutOrStdout(), sel.Provider(), link)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&badge, "badge", "b", string(launch.BadgeMarkdown), "Badge markup: md or rst")

	return cmd
}

func specCmd(opts *globalOptions) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the build spec for a repository",
		Long: `Print the "<provider>/<repo>/<ref>" build spec a launcher is asked to build.

The spec is printed even when the repository is empty; such a spec is
not launchable and a warning is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := flags.resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, err := flags.selection(cmd.ErrOrStderr(), reg)
			if err != nil {
				return err
			}

			spec := sel.Spec()
			if !spec.Launchable() {
				warn(cmd.ErrOrStderr(), "spec %s names no repository and cannot be launched", spec.BuildSpec)
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), spec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), spec.BuildSpec)
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func printLink(w io.Writer, p *provider.Descriptor, link launch.Link) {
	field(w, "Provider", p.DisplayName)
	field(w, "Spec", link.Spec.BuildSpec)
	if link.URLPath != "" {
		field(w, "Opens", link.URLPath)
	}
	field(w, "Launch URL", link.LaunchURL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, link.Badge)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
