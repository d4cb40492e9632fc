package launch

import (
	"net/url"
	"strings"

	"github.com/binderlink/binderlink/internal/errors"
	"github.com/binderlink/binderlink/pkg/provider"
)

// Request is a launch request read back from a launch URL.
type Request struct {
	Provider *provider.Descriptor
	Repo     string
	Ref      string
	Launch   LaunchSpec
}

// Spec returns the build spec of the request.
func (r Request) Spec() Spec {
	return BuildSpec(r.Provider, r.Repo, r.Ref, r.Launch.URLPath)
}

// ParseLaunchPath reads the repository and reference from the escaped path
// that follows "/v2/<providerID>/" in a launch URL.
//
// For providers that percent-encode repositories the first segment is the
// repository and the rest is the reference. For the others the last segment
// is the reference and everything before it the repository, so their
// references cannot contain "/".
//
// The URL path from q is kept as given, absolute URLs included, since that
// is what links of the "url" path kind carry. Where it opens is decided by
// LaunchSpec.ServerPath.
func ParseLaunchPath(reg *provider.Registry, providerID, rest string, q url.Values) (Request, error) {
	p, err := reg.Lookup(providerID)
	if err != nil {
		return Request{}, err
	}

	var repoPart, refPart string
	if p.Repo.URLEncode {
		repoPart, refPart, _ = strings.Cut(rest, "/")
	} else if i := strings.LastIndex(rest, "/"); i >= 0 {
		repoPart, refPart = rest[:i], rest[i+1:]
	} else {
		repoPart = rest
	}

	repo, err := url.PathUnescape(repoPart)
	if err != nil {
		return Request{}, errors.New("E123").WithDetailf("repository %q", repoPart).Wrap(err)
	}
	if repo == "" {
		return Request{}, errors.New("E123").WithDetail("missing repository")
	}
	ref, err := url.PathUnescape(refPart)
	if err != nil {
		return Request{}, errors.New("E123").WithDetailf("reference %q", refPart).Wrap(err)
	}

	return Request{
		Provider: p,
		Repo:     repo,
		Ref:      ref,
		Launch:   LaunchSpecFromQuery(q),
	}, nil
}
