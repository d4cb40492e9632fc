package launch

import (
	"net/url"
	"strings"

	"github.com/binderlink/binderlink/pkg/provider"
	"github.com/binderlink/binderlink/pkg/routepath"
)

// Spec is what the launcher is asked to build and open.
type Spec struct {
	// BuildSpec is "<providerID>/<encodedRepo>/<effectiveRef>". Both
	// separators are always present, so the string always has three
	// segments even when the repository or reference is empty.
	BuildSpec string `json:"buildSpec"`

	// Launch describes what to open once the build is running.
	Launch LaunchSpec `json:"launch"`
}

// LaunchSpec is the post-launch part of a Spec.
type LaunchSpec struct {
	// URLPath is opened inside the session; empty opens the default page.
	URLPath string `json:"urlPath"`
}

// EffectiveRef resolves the reference a launch uses: ref itself when given,
// otherwise the provider default. Providers without references always
// resolve to "".
func EffectiveRef(p *provider.Descriptor, ref string) string {
	if !p.Ref.Enabled {
		return ""
	}
	if ref != "" {
		return ref
	}
	return p.Ref.Default
}

// BuildSpec derives the build spec for the given inputs. It performs no
// validation: an empty repo yields an empty middle segment, and deciding
// that such a spec is not launchable is left to the launcher.
func BuildSpec(p *provider.Descriptor, repo, ref, urlPath string) Spec {
	return Spec{
		BuildSpec: p.ID + "/" + EncodeRepo(p, repo) + "/" + EffectiveRef(p, ref),
		Launch:    LaunchSpec{URLPath: urlPath},
	}
}

// Launchable reports whether the spec names a repository.
func (s Spec) Launchable() bool {
	parts := strings.SplitN(s.BuildSpec, "/", 3)
	return len(parts) == 3 && parts[1] != ""
}

// LaunchSpecFromQuery reads the launch part of a launch URL query. The
// legacy labpath and filepath parameters take precedence over urlpath and
// map to "doc/tree/<path>" and "tree/<path>".
func LaunchSpecFromQuery(q url.Values) LaunchSpec {
	switch {
	case q.Has("labpath"):
		return LaunchSpec{URLPath: "doc/tree/" + escapePath(q.Get("labpath"))}
	case q.Has("filepath"):
		return LaunchSpec{URLPath: "tree/" + escapePath(q.Get("filepath"))}
	default:
		return LaunchSpec{URLPath: q.Get("urlpath")}
	}
}

// ServerPath returns URLPath cleaned relative to a server prefix, or "" for
// the server root when the path would leave the prefix.
func (l LaunchSpec) ServerPath() string {
	rel, err := routepath.Relative(l.URLPath)
	if err != nil {
		return ""
	}
	return rel.String()
}

// ServerRedirectURL returns where to send the browser once a server is
// running at serverURL: URLPath resolved under the server URL, with the
// access token appended when one is given. A URL path that would leave the
// server prefix (see routepath.Relative) opens the server root instead.
func (l LaunchSpec) ServerRedirectURL(serverURL *url.URL, token string) *url.URL {
	base := *serverURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
		if base.RawPath != "" {
			base.RawPath += "/"
		}
	}

	rel, err := routepath.Relative(l.URLPath)
	if err != nil {
		rel = routepath.Result{}
	}

	u := base.ResolveReference(rel.URL())
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
