package launch

import (
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/binderlink/binderlink/pkg/provider"
)

// testRegistry mirrors the provider shapes the derivations branch on.
func testRegistry(t *testing.T) *provider.Registry {
	t.Helper()
	r, err := provider.NewRegistry(
		provider.Descriptor{
			ID:   "gh",
			Repo: provider.RepoField{URLEncode: true},
			Ref:  provider.RefField{Enabled: true, Default: "HEAD"},
		},
		provider.Descriptor{
			ID:   "zenodo",
			Repo: provider.RepoField{URLEncode: false},
			Ref:  provider.RefField{Enabled: false},
		},
		provider.Descriptor{
			ID:   "user",
			Repo: provider.RepoField{URLEncode: false},
			Ref:  provider.RefField{Enabled: true},
		},
		provider.Descriptor{
			ID:     "detect",
			Repo:   provider.RepoField{URLEncode: false},
			Ref:    provider.RefField{Enabled: true, Default: "main"},
			Detect: &provider.DetectRule{Regex: `^(?<repo>[\w-]+/[\w-]+)$`},
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func mustGet(t *testing.T, r *provider.Registry, id string) *provider.Descriptor {
	t.Helper()
	p, ok := r.Get(id)
	if !ok {
		t.Fatalf("provider %q not found", id)
	}
	return p
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestEncodeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"org/repo", "org%2Frepo"},
		{"plain-name_1.0", "plain-name_1.0"},
		{"a b", "a%20b"},
		{"q?x#y", "q%3Fx%23y"},
		{"!~*'()", "!~*'()"},
		{"$&+,:;=@", "%24%26%2B%2C%3A%3B%3D%40"},
		{"100%", "100%25"},
		{"é", "%C3%A9"},
		{"https://example.com/r.git", "https%3A%2F%2Fexample.com%2Fr.git"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EncodeComponent(tt.in); got != tt.want {
			t.Errorf("EncodeComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeRepo_RoundTrip(t *testing.T) {
	r := testRegistry(t)
	gh := mustGet(t, r, "gh")
	base := mustURL(t, "https://binder.example.org/")

	repos := []string{
		"org/repo",
		"a/b/c",
		"what?is=this",
		"frag#ment",
		"mixed /?# all",
		"https://gitlab.example.com/group/sub/project.git",
	}
	for _, repo := range repos {
		t.Run(repo, func(t *testing.T) {
			spec := BuildSpec(gh, repo, "", "").BuildSpec
			parts := strings.SplitN(spec, "/", 3)
			if len(parts) != 3 {
				t.Fatalf("spec %q does not have three segments", spec)
			}
			decoded, err := url.PathUnescape(parts[1])
			if err != nil || decoded != repo {
				t.Errorf("spec segment %q decodes to %q (%v), want %q", parts[1], decoded, err, repo)
			}

			u, ok := BuildShareURL(base, gh, repo, "HEAD", "")
			if !ok {
				t.Fatal("expected a share URL")
			}
			escaped := strings.TrimPrefix(u.EscapedPath(), "/v2/gh/")
			seg, _, _ := strings.Cut(escaped, "/")
			decoded, err = url.PathUnescape(seg)
			if err != nil || decoded != repo {
				t.Errorf("URL segment %q decodes to %q (%v), want %q", seg, decoded, err, repo)
			}
		})
	}
}

func TestEncodeRepo_Passthrough(t *testing.T) {
	zen := mustGet(t, testRegistry(t), "zenodo")
	if got := EncodeRepo(zen, "10.5281/zenodo.3242074"); got != "10.5281/zenodo.3242074" {
		t.Errorf("EncodeRepo = %q, want verbatim", got)
	}
}

func TestEffectiveRef(t *testing.T) {
	r := testRegistry(t)
	tests := []struct {
		provider string
		ref      string
		want     string
	}{
		{"gh", "", "HEAD"},
		{"gh", "v1.2", "v1.2"},
		{"zenodo", "", ""},
		{"zenodo", "ignored", ""},
		{"user", "", ""},
		{"user", "analysis", "analysis"},
	}
	for _, tt := range tests {
		if got := EffectiveRef(mustGet(t, r, tt.provider), tt.ref); got != tt.want {
			t.Errorf("EffectiveRef(%s, %q) = %q, want %q", tt.provider, tt.ref, got, tt.want)
		}
	}
}

func TestBuildSpec(t *testing.T) {
	r := testRegistry(t)
	tests := []struct {
		name     string
		provider string
		repo     string
		ref      string
		urlPath  string
		want     string
	}{
		{"default ref", "gh", "org/repo", "", "", "gh/org%2Frepo/HEAD"},
		{"explicit ref", "gh", "org/repo", "main", "", "gh/org%2Frepo/main"},
		{"ref disabled keeps trailing slash", "zenodo", "10.5281/zenodo.1", "", "", "zenodo/10.5281/zenodo.1/"},
		{"ref disabled ignores typed ref", "zenodo", "10.5281/zenodo.1", "v2", "", "zenodo/10.5281/zenodo.1/"},
		{"empty repo", "gh", "", "", "", "gh//HEAD"},
		{"empty everything", "user", "", "", "", "user//"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSpec(mustGet(t, r, tt.provider), tt.repo, tt.ref, tt.urlPath)
			if got.BuildSpec != tt.want {
				t.Errorf("BuildSpec = %q, want %q", got.BuildSpec, tt.want)
			}
		})
	}
}

func TestBuildSpec_CarriesURLPath(t *testing.T) {
	gh := mustGet(t, testRegistry(t), "gh")
	s := BuildSpec(gh, "org/repo", "", "/doc/tree/index.ipynb")
	if s.Launch.URLPath != "/doc/tree/index.ipynb" {
		t.Errorf("Launch.URLPath = %q", s.Launch.URLPath)
	}
}

func TestSpecLaunchable(t *testing.T) {
	gh := mustGet(t, testRegistry(t), "gh")
	if BuildSpec(gh, "", "", "").Launchable() {
		t.Error("empty repo spec should not be launchable")
	}
	if !BuildSpec(gh, "org/repo", "", "").Launchable() {
		t.Error("spec with repo should be launchable")
	}
}

func TestBuildShareURL(t *testing.T) {
	r := testRegistry(t)
	base := mustURL(t, "https://binder.example.org/")

	tests := []struct {
		name     string
		provider string
		repo     string
		ref      string
		urlPath  string
		want     string
	}{
		{
			name:     "encoded repo",
			provider: "gh",
			repo:     "org/repo",
			ref:      "HEAD",
			want:     "https://binder.example.org/v2/gh/org%2Frepo/HEAD",
		},
		{
			name:     "file url path",
			provider: "gh",
			repo:     "org/repo",
			ref:      "HEAD",
			urlPath:  "/doc/tree/index.ipynb",
			want:     "https://binder.example.org/v2/gh/org%2Frepo/HEAD?urlpath=%2Fdoc%2Ftree%2Findex.ipynb",
		},
		{
			name:     "ref disabled",
			provider: "zenodo",
			repo:     "10.5281/zenodo.1",
			want:     "https://binder.example.org/v2/zenodo/10.5281/zenodo.1/",
		},
		{
			name:     "url path with spaces",
			provider: "user",
			repo:     "jdoe",
			ref:      "analysis",
			urlPath:  "/lab/tree/my notes.md",
			want:     "https://binder.example.org/v2/user/jdoe/analysis?urlpath=%2Flab%2Ftree%2Fmy+notes.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShareURL(base, mustGet(t, r, tt.provider), tt.repo, tt.ref, tt.urlPath)
			if got != tt.want {
				t.Errorf("ShareURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildShareURL_Gate(t *testing.T) {
	r := testRegistry(t)
	base := mustURL(t, "https://binder.example.org/")

	if _, ok := BuildShareURL(base, mustGet(t, r, "gh"), "", "HEAD", ""); ok {
		t.Error("empty repo must not produce a URL")
	}
	if got := ShareURL(base, mustGet(t, r, "user"), "jdoe", "", ""); got != "" {
		t.Errorf("required ref unresolved: ShareURL = %q, want empty", got)
	}
	if got := ShareURL(base, mustGet(t, r, "zenodo"), "10.5281/zenodo.1", "", ""); got == "" {
		t.Error("ref-disabled provider must never be gated on ref")
	}
}

func TestBuildShareURL_BaseResolution(t *testing.T) {
	gh := mustGet(t, testRegistry(t), "gh")
	tests := []struct {
		base string
		want string
	}{
		{"https://x", "https://x/v2/gh/a%2Fb/HEAD"},
		{"https://x/", "https://x/v2/gh/a%2Fb/HEAD"},
		{"https://x/binder/", "https://x/binder/v2/gh/a%2Fb/HEAD"},
		{"https://x/binder", "https://x/v2/gh/a%2Fb/HEAD"},
		{"https://x/binder/?q=1#f", "https://x/binder/v2/gh/a%2Fb/HEAD"},
	}
	for _, tt := range tests {
		if got := ShareURL(mustURL(t, tt.base), gh, "a/b", "HEAD", ""); got != tt.want {
			t.Errorf("base %q: ShareURL = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestBuildShareURL_InvalidUnencodedInput(t *testing.T) {
	user := mustGet(t, testRegistry(t), "user")
	base := mustURL(t, "https://x/")
	tests := []struct {
		repo, ref, urlPath string
		want               string
	}{
		{"100%", "p", "", "https://x/v2/user/100%25/p"},
		{"a%zz", "p?x", "", "https://x/v2/user/a%25zz/p?x"},
		{"a%zz", "p#top", "", "https://x/v2/user/a%25zz/p#top"},
		{"a%zz", "p?x#top", "", "https://x/v2/user/a%25zz/p?x#top"},
		{"a%zz", "p?x", "/lab", "https://x/v2/user/a%25zz/p?urlpath=%2Flab&x="},
	}
	for _, tt := range tests {
		got := ShareURL(base, user, tt.repo, tt.ref, tt.urlPath)
		if got != tt.want {
			t.Errorf("ShareURL(%q, %q, %q) = %q, want %q", tt.repo, tt.ref, tt.urlPath, got, tt.want)
		}
	}
}

func TestIdempotence(t *testing.T) {
	r := testRegistry(t)
	base := mustURL(t, "https://binder.example.org/")
	gh := mustGet(t, r, "gh")

	for i := 0; i < 2; i++ {
		a := BuildSpec(gh, "org/repo", "", "/doc/tree/a.ipynb")
		b := BuildSpec(gh, "org/repo", "", "/doc/tree/a.ipynb")
		if a != b {
			t.Errorf("BuildSpec not deterministic: %+v vs %+v", a, b)
		}
		u1 := ShareURL(base, gh, "org/repo", "HEAD", "/doc/tree/a.ipynb")
		u2 := ShareURL(base, gh, "org/repo", "HEAD", "/doc/tree/a.ipynb")
		if u1 != u2 {
			t.Errorf("ShareURL not deterministic: %q vs %q", u1, u2)
		}
	}
	if base.String() != "https://binder.example.org/" {
		t.Errorf("base URL mutated: %q", base)
	}
}

func TestBadgeMarkup(t *testing.T) {
	base := mustURL(t, "https://x/")

	got := BadgeMarkup(BadgeMarkdown, "https://x/v2/gh/a/b", base)
	if want := "[![Binder](https://x/badge_logo.svg)](https://x/v2/gh/a/b)"; got != want {
		t.Errorf("md badge = %q, want %q", got, want)
	}

	got = BadgeMarkup(BadgeRST, "https://x/v2/gh/a/b", base)
	if want := ".. image:: https://x/badge_logo.svg\n :target: https://x/v2/gh/a/b"; got != want {
		t.Errorf("rst badge = %q, want %q", got, want)
	}

	if got := BadgeMarkup(BadgeMarkdown, "", base); got != "" {
		t.Errorf("empty launch URL badge = %q, want empty", got)
	}
	if got := BadgeMarkup(BadgeKind("html"), "https://x/v2/gh/a/b", base); got != "" {
		t.Errorf("unknown kind badge = %q, want empty", got)
	}
}

func TestBadgeLogoURL(t *testing.T) {
	if got := BadgeLogoURL(mustURL(t, "https://x/binder/")).String(); got != "https://x/binder/badge_logo.svg" {
		t.Errorf("BadgeLogoURL = %q", got)
	}
}

func TestParseBadgeKind(t *testing.T) {
	for in, want := range map[string]BadgeKind{"": BadgeMarkdown, "md": BadgeMarkdown, "rst": BadgeRST} {
		got, err := ParseBadgeKind(in)
		if err != nil || got != want {
			t.Errorf("ParseBadgeKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseBadgeKind("html"); err == nil {
		t.Error("ParseBadgeKind(html) should fail")
	}
}

func TestDetectRepo(t *testing.T) {
	re := regexp.MustCompile(`^(?<repo>[\w-]+/[\w-]+)$`)

	if got, ok := DetectRepo(re, "octocat/hello-world"); !ok || got != "octocat/hello-world" {
		t.Errorf("DetectRepo = %q, %v", got, ok)
	}
	if _, ok := DetectRepo(re, "not a repo!!"); ok {
		t.Error("DetectRepo should reject foreign input")
	}

	gh := regexp.MustCompile(`^(https?://github.com/)?(?<repo>.*)`)
	if got, ok := DetectRepo(gh, "https://github.com/org/repo"); !ok || got != "org/repo" {
		t.Errorf("DetectRepo(url) = %q, %v", got, ok)
	}
	if _, ok := DetectRepo(gh, "https://github.com/"); ok {
		t.Error("an empty capture should not be accepted")
	}
}

func TestNormalizeRepo(t *testing.T) {
	r := testRegistry(t)

	detect := mustGet(t, r, "detect")
	if got, ok := NormalizeRepo(detect, "octocat/hello-world", ""); !ok || got != "octocat/hello-world" {
		t.Errorf("NormalizeRepo = %q, %v", got, ok)
	}
	if got, ok := NormalizeRepo(detect, "not a repo!!", "octocat/hello-world"); ok || got != "octocat/hello-world" {
		t.Errorf("rejected input: NormalizeRepo = %q, %v; want prior value", got, ok)
	}

	gh := mustGet(t, r, "gh")
	if got, ok := NormalizeRepo(gh, "half typed ?!", "prior"); !ok || got != "half typed ?!" {
		t.Errorf("no detect rule: NormalizeRepo = %q, %v; want verbatim", got, ok)
	}
}

func TestResolveURLPath(t *testing.T) {
	tests := []struct {
		kind PathKind
		raw  string
		want string
	}{
		{PathFile, "index.ipynb", "/doc/tree/index.ipynb"},
		{PathURL, "/rstudio", "/rstudio"},
		{PathFile, "", ""},
		{PathURL, "", ""},
	}
	for _, tt := range tests {
		if got := ResolveURLPath(tt.kind, tt.raw); got != tt.want {
			t.Errorf("ResolveURLPath(%s, %q) = %q, want %q", tt.kind, tt.raw, got, tt.want)
		}
	}
}

func TestParsePathKind(t *testing.T) {
	for in, want := range map[string]PathKind{"": PathFile, "file": PathFile, "url": PathURL} {
		got, err := ParsePathKind(in)
		if err != nil || got != want {
			t.Errorf("ParsePathKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParsePathKind("folder"); err == nil {
		t.Error("ParsePathKind(folder) should fail")
	}
}
