package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/launch"
	"github.com/binderlink/binderlink/pkg/provider"
)

func formCmd(opts *globalOptions) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Build a launch link interactively",
		Long: `Walk through the launch form in the terminal: pick a provider, paste a
repository or its URL, and get the launch URL and badge.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(cmd.OutOrStdout()) {
				return errors.New("E151")
			}

			flags := selectionFlags{baseURL: baseURL}
			base, reg, err := flags.resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, err := launch.NewSelection(reg)
			if err != nil {
				return err
			}

			kind, err := runForm(sel, reg)
			if err != nil {
				return err
			}

			link := sel.Link(kind, base)
			if link.LaunchURL == "" {
				return errors.New("E152").WithDetailf("provider %s, repository %q", link.Provider, link.Repo)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			printLink(cmd.OutOrStdout(), sel.Provider(), link)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL (default from config)")

	return cmd
}

// runForm asks for each field in form order and applies the answers to sel.
func runForm(sel *launch.Selection, reg *provider.Registry) (launch.BadgeKind, error) {
	providerID := sel.Provider().ID
	var providerOpts []huh.Option[string]
	for _, p := range reg.All() {
		providerOpts = append(providerOpts, huh.NewOption(p.DisplayName, p.ID))
	}
	err := huh.NewSelect[string]().
		Title("Repository provider").
		Options(providerOpts...).
		Value(&providerID).
		Run()
	if err != nil {
		return "", err
	}
	if err := sel.SelectProvider(providerID); err != nil {
		return "", err
	}
	p := sel.Provider()

	var repo string
	err = huh.NewInput().
		Title(p.Repo.Label).
		Placeholder(p.Repo.Placeholder).
		Value(&repo).
		Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("%s cannot be empty", p.Repo.Label)
			}
			if _, ok := launch.NormalizeRepo(p, s, ""); !ok {
				return fmt.Errorf("not a %s repository", p.DisplayName)
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	sel.InputRepo(repo)

	if p.Ref.Enabled {
		var ref string
		err = huh.NewInput().
			Title(p.RefLabel()).
			Placeholder(p.Ref.Default).
			Value(&ref).
			Validate(func(s string) error {
				if s == "" && p.Ref.Default == "" {
					return fmt.Errorf("%s is required", p.RefLabel())
				}
				return nil
			}).
			Run()
		if err != nil {
			return "", err
		}
		sel.SetRef(ref)
	}

	pathKind := string(launch.PathFile)
	var kindOpts []huh.Option[string]
	for _, k := range launch.PathKinds {
		kindOpts = append(kindOpts, huh.NewOption(k.DisplayName, string(k.Kind)))
	}
	if err := huh.NewSelect[string]().Title("Open after launch").Options(kindOpts...).Value(&pathKind).Run(); err != nil {
		return "", err
	}
	kind, err := launch.ParsePathKind(pathKind)
	if err != nil {
		return "", err
	}
	sel.SetPathKind(kind)

	pathField := launch.PathKinds[0]
	for _, k := range launch.PathKinds {
		if k.Kind == kind {
			pathField = k
		}
	}
	var path string
	if err := huh.NewInput().Title(pathField.Label).Placeholder(pathField.Placeholder).Value(&path).Run(); err != nil {
		return "", err
	}
	sel.SetPath(path)

	badge := string(launch.BadgeMarkdown)
	err = huh.NewSelect[string]().
		Title("Badge").
		Options(
			huh.NewOption("Markdown", string(launch.BadgeMarkdown)),
			huh.NewOption("reStructuredText", string(launch.BadgeRST)),
		).
		Value(&badge).
		Run()
	if err != nil {
		return "", err
	}
	return launch.ParseBadgeKind(badge)
}
