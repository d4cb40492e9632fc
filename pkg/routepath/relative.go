package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Result is a cleaned relative path.
type Result struct {
	// Path is the escaped path, without a leading slash.
	Path string

	// Query is the query string (without leading "?").
	Query string

	// Fragment is the fragment (without leading "#").
	Fragment string

	// Changed indicates if the path was modified during cleaning.
	Changed bool
}

// String reassembles the path, query and fragment.
func (r Result) String() string {
	s := r.Path
	if r.Query != "" {
		s += "?" + r.Query
	}
	if r.Fragment != "" {
		s += "#" + r.Fragment
	}
	return s
}

// URL returns the result as a relative URL reference.
func (r Result) URL() *url.URL {
	u := &url.URL{RawQuery: r.Query}
	if p, err := url.PathUnescape(r.Path); err == nil {
		u.Path = p
		if u.EscapedPath() != r.Path {
			u.RawPath = r.Path
		}
	}
	if f, err := url.PathUnescape(r.Fragment); err == nil {
		u.Fragment = f
	}
	return u
}

// Path cleaning errors.
var (
	ErrAbsoluteURL          = errors.New("path is an absolute URL")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Relative reduces input to a path relative to a server prefix. The input
// may carry a query string and fragment; both are preserved but not
// cleaned.
func Relative(input string) (Result, error) {
	rest, fragment, _ := strings.Cut(input, "#")
	path, query, _ := strings.Cut(rest, "?")

	// SECURITY: Reject backslash; browsers treat it as a slash.
	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}

	// SECURITY: Reject NUL byte (both literal and encoded).
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}

	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}

	trimmed := strings.TrimLeft(path, "/")

	// SECURITY: A colon in the first segment reads as a URL scheme.
	first, _, _ := strings.Cut(trimmed, "/")
	if strings.Contains(first, ":") {
		return Result{}, ErrAbsoluteURL
	}

	segments := strings.Split(trimmed, "/")
	result := make([]string, 0, len(segments))
	trailing := strings.HasSuffix(trimmed, "/")

	for i, seg := range segments {
		last := i == len(segments)-1
		switch dotSegment(seg) {
		case ".":
			trailing = trailing || last
		case "..":
			if len(result) == 0 {
				// SECURITY: ".." escapes the prefix.
				return Result{}, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
			trailing = trailing || last
		default:
			if seg != "" {
				result = append(result, seg)
			}
		}
	}

	cleaned := strings.Join(result, "/")
	if trailing && cleaned != "" {
		cleaned += "/"
	}

	return Result{
		Path:     cleaned,
		Query:    query,
		Fragment: fragment,
		Changed:  cleaned != path,
	}, nil
}

// dotSegment returns "." or ".." for dot segments, including their
// percent-encoded spellings, and "" otherwise.
func dotSegment(seg string) string {
	decoded, err := url.PathUnescape(seg)
	if err != nil {
		return ""
	}
	switch decoded {
	case ".", "..":
		return decoded
	}
	return ""
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] == '%' {
			// Need at least 2 more characters.
			if i+2 >= len(path) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
