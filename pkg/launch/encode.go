package launch

import (
	"github.com/binderlink/binderlink/pkg/provider"
)

const upperhex = "0123456789ABCDEF"

// EncodeRepo returns repo as it appears in a spec or launch URL path: percent
// encoded as one opaque segment when the provider asks for it, verbatim
// otherwise.
func EncodeRepo(p *provider.Descriptor, repo string) string {
	if !p.Repo.URLEncode {
		return repo
	}
	return EncodeComponent(repo)
}

// EncodeComponent percent-encodes s so that it survives as a single URL
// component. Only ASCII letters, digits and -_.!~*'() are left as is;
// every other byte of the UTF-8 encoding becomes %XX.
func EncodeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keepInComponent(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepInComponent(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func keepInComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
