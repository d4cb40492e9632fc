package launch

import (
	"regexp"

	"github.com/binderlink/binderlink/pkg/provider"
)

// DetectRepo applies a detection pattern to raw input. It returns the text
// captured by the pattern's "repo" group, and true, when the pattern matches
// with a non-empty capture. The pattern decides its own anchoring.
func DetectRepo(re *regexp.Regexp, input string) (string, bool) {
	m := re.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	i := re.SubexpIndex(provider.RepoGroup)
	if i < 0 || m[i] == "" {
		return "", false
	}
	return m[i], true
}

// NormalizeRepo decides the repository value after the user typed input.
//
// Without a detection rule the input is taken verbatim, partial or not.
// With one, the captured repository replaces the value on a match; on a
// miss current is returned unchanged and accepted is false; no error is
// raised and the previous value stays in place.
func NormalizeRepo(p *provider.Descriptor, input, current string) (repo string, accepted bool) {
	re := p.Pattern()
	if re == nil {
		return input, true
	}
	if captured, ok := DetectRepo(re, input); ok {
		return captured, true
	}
	return current, false
}
