package launch

import (
	"net/url"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/provider"
)

// Selection is the state of one launch form session. It starts on the first
// provider of the registry with every field empty. A Selection is owned by a
// single session and is not safe for concurrent use.
type Selection struct {
	registry *provider.Registry
	provider *provider.Descriptor

	repo     string
	ref      string
	rawPath  string
	pathKind PathKind
}

// NewSelection starts a form session over r.
func NewSelection(r *provider.Registry) (*Selection, error) {
	if r == nil || r.Len() == 0 {
		return nil, errors.New("E114")
	}
	return &Selection{
		registry: r,
		provider: r.Default(),
		pathKind: PathFile,
	}, nil
}

// Provider returns the selected provider.
func (s *Selection) Provider() *provider.Descriptor { return s.provider }

// Repo returns the current repository value.
func (s *Selection) Repo() string { return s.repo }

// Ref returns the reference as typed; see EffectiveRef for the resolved one.
func (s *Selection) Ref() string { return s.ref }

// RawPath returns the path field as typed.
func (s *Selection) RawPath() string { return s.rawPath }

// PathKind returns the selected path kind.
func (s *Selection) PathKind() PathKind { return s.pathKind }

// SelectProvider switches to the provider with the given id. The other
// fields keep their values.
func (s *Selection) SelectProvider(id string) error {
	p, err := s.registry.Lookup(id)
	if err != nil {
		return err
	}
	s.provider = p
	return nil
}

// InputRepo feeds raw repository input through the provider's normaliser.
// It reports whether the input was accepted; rejected input leaves the
// repository unchanged.
func (s *Selection) InputRepo(raw string) bool {
	repo, ok := NormalizeRepo(s.provider, raw, s.repo)
	s.repo = repo
	return ok
}

// SetRef sets the reference field.
func (s *Selection) SetRef(ref string) { s.ref = ref }

// SetPath sets the raw path field.
func (s *Selection) SetPath(raw string) { s.rawPath = raw }

// SetPathKind switches the path kind; URLPath re-derives from the current
// raw path.
func (s *Selection) SetPathKind(k PathKind) { s.pathKind = k }

// URLPath returns the URL path derived from the path field and kind.
func (s *Selection) URLPath() string {
	return ResolveURLPath(s.pathKind, s.rawPath)
}

// EffectiveRef returns the resolved reference.
func (s *Selection) EffectiveRef() string {
	return EffectiveRef(s.provider, s.ref)
}

// Spec returns the build spec for the current state.
func (s *Selection) Spec() Spec {
	return BuildSpec(s.provider, s.repo, s.ref, s.URLPath())
}

// ShareURL returns the launch URL for the current state, or "".
func (s *Selection) ShareURL(publicBase *url.URL) string {
	return ShareURL(publicBase, s.provider, s.repo, s.EffectiveRef(), s.URLPath())
}

// Badge returns badge markup for the current state, or "".
func (s *Selection) Badge(kind BadgeKind, publicBase *url.URL) string {
	return BadgeMarkup(kind, s.ShareURL(publicBase), publicBase)
}

// Link returns every derived value of the current state.
func (s *Selection) Link(kind BadgeKind, publicBase *url.URL) Link {
	launchURL := s.ShareURL(publicBase)
	return Link{
		Provider:     s.provider.ID,
		Repo:         s.repo,
		Ref:          s.ref,
		EffectiveRef: s.EffectiveRef(),
		PathKind:     s.pathKind,
		URLPath:      s.URLPath(),
		Spec:         s.Spec(),
		LaunchURL:    launchURL,
		BadgeKind:    kind,
		Badge:        BadgeMarkup(kind, launchURL, publicBase),
	}
}

// Link is the full set of values a form displays for one state.
type Link struct {
	Provider     string    `json:"provider"`
	Repo         string    `json:"repo"`
	Ref          string    `json:"ref"`
	EffectiveRef string    `json:"effectiveRef"`
	PathKind     PathKind  `json:"pathKind"`
	URLPath      string    `json:"urlPath"`
	Spec         Spec      `json:"spec"`
	LaunchURL    string    `json:"launchUrl"`
	BadgeKind    BadgeKind `json:"badgeKind"`
	Badge        string    `json:"badge"`
}
