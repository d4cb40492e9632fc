package provider

import (
	"regexp"

	"github.com/binderlink/binderlink/internal/errors"
)

// RepoGroup is the capture group a detection pattern must declare.
const RepoGroup = "repo"

// DefaultRefLabel labels the reference field when a provider sets none.
const DefaultRefLabel = "Git ref (branch, tag, or commit)"

// Descriptor describes one repository provider.
type Descriptor struct {
	// ID is the short token used in build specs and launch URLs (e.g. "gh").
	ID string `json:"id" yaml:"id" toml:"id"`

	// DisplayName is the human readable provider name.
	DisplayName string `json:"displayName" yaml:"displayName" toml:"displayName"`

	// Repo describes the repository field.
	Repo RepoField `json:"repo" yaml:"repo" toml:"repo"`

	// Ref describes the reference field.
	Ref RefField `json:"ref" yaml:"ref" toml:"ref"`

	// Detect optionally extracts the repository from freeform input.
	Detect *DetectRule `json:"detect,omitempty" yaml:"detect,omitempty" toml:"detect,omitempty"`
}

// RepoField describes the repository input of a provider.
type RepoField struct {
	Label       string `json:"label" yaml:"label" toml:"label"`
	Placeholder string `json:"placeholder" yaml:"placeholder" toml:"placeholder"`

	// URLEncode reports whether repository identifiers are percent-encoded
	// when embedded in a path segment. Providers whose identifiers are
	// already path-safe (and may contain slashes that must survive) leave it
	// false.
	URLEncode bool `json:"urlEncode" yaml:"urlEncode" toml:"urlEncode"`
}

// RefField describes the version reference input of a provider.
type RefField struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Default string `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// DetectRule is a detection pattern whose "repo" group holds the repository.
type DetectRule struct {
	Regex string `json:"regex" yaml:"regex" toml:"regex"`

	re *regexp.Regexp
}

// Pattern returns the compiled detection pattern, or nil when the
// descriptor has no detection rule.
func (d *Descriptor) Pattern() *regexp.Regexp {
	if d.Detect == nil || d.Detect.Regex == "" {
		return nil
	}
	return d.Detect.re
}

// RefLabel returns the label of the reference field.
func (d *Descriptor) RefLabel() string {
	if d.Ref.Label != "" {
		return d.Ref.Label
	}
	return DefaultRefLabel
}

// compile validates the descriptor and compiles its detection pattern.
func (d *Descriptor) compile() error {
	if d.ID == "" {
		return errors.New("E115").WithDetailf("provider %q", d.DisplayName)
	}
	if d.DisplayName == "" {
		d.DisplayName = d.ID
	}
	if d.Detect == nil || d.Detect.Regex == "" {
		return nil
	}

	re, err := regexp.Compile(d.Detect.Regex)
	if err != nil {
		return errors.New("E111").WithDetailf("provider %q", d.ID).Wrap(err)
	}
	if re.SubexpIndex(RepoGroup) < 0 {
		return errors.New("E112").WithDetailf("provider %q: %s", d.ID, d.Detect.Regex)
	}
	d.Detect.re = re
	return nil
}
