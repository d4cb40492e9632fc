package launch

import (
	"net/url"
	"strings"

	"github.com/binderlink/binderlink/pkg/provider"
)

// badgeLogoPath is the badge image served next to the launch endpoints.
const badgeLogoPath = "badge_logo.svg"

// ShareReady reports whether a launch link can be advertised: a repository
// is set and, when the provider uses references, ref is non-empty. ref is
// the resolved reference (see EffectiveRef).
func ShareReady(p *provider.Descriptor, repo, ref string) bool {
	if repo == "" {
		return false
	}
	return !p.Ref.Enabled || ref != ""
}

// BuildShareURL resolves "v2/<providerID>/<encodedRepo>/<ref>" against
// publicBase using standard reference resolution, and sets the urlpath
// query parameter when urlPath is non-empty. ref is the resolved reference.
//
// It returns false, and no URL, when ShareReady reports false.
func BuildShareURL(publicBase *url.URL, p *provider.Descriptor, repo, ref, urlPath string) (*url.URL, bool) {
	if !ShareReady(p, repo, ref) {
		return nil, false
	}

	raw := "v2/" + p.ID + "/" + EncodeRepo(p, repo) + "/" + ref
	rel, err := url.Parse(raw)
	if err != nil {
		// Unencoded input that is not a valid reference, such as a stray '%'.
		rel = rawReference(raw)
	}

	u := publicBase.ResolveReference(rel)
	if urlPath != "" {
		q := u.Query()
		q.Set("urlpath", urlPath)
		u.RawQuery = q.Encode()
	}
	return u, true
}

// rawReference splits a query and fragment off raw as a browser would and
// escapes what remains as a path.
func rawReference(raw string) *url.URL {
	rest, frag, _ := strings.Cut(raw, "#")
	path, query, _ := strings.Cut(rest, "?")
	return &url.URL{Path: path, RawQuery: query, Fragment: frag}
}

// ShareURL is BuildShareURL in string form; it returns "" when no link can
// be built.
func ShareURL(publicBase *url.URL, p *provider.Descriptor, repo, ref, urlPath string) string {
	u, ok := BuildShareURL(publicBase, p, repo, ref, urlPath)
	if !ok {
		return ""
	}
	return u.String()
}

// BadgeLogoURL returns the badge image URL under publicBase.
func BadgeLogoURL(publicBase *url.URL) *url.URL {
	return publicBase.ResolveReference(&url.URL{Path: badgeLogoPath})
}
