package launch

import (
	"net/url"

	"github.com/binderlink/binderlink/internal/errors"
)

// BadgeKind selects the markup language of a launch badge.
type BadgeKind string

const (
	BadgeMarkdown BadgeKind = "md"
	BadgeRST      BadgeKind = "rst"
)

// BadgeKinds lists the supported kinds, default first.
var BadgeKinds = []BadgeKind{BadgeMarkdown, BadgeRST}

// ParseBadgeKind validates a badge kind. The empty string selects Markdown.
func ParseBadgeKind(s string) (BadgeKind, error) {
	switch BadgeKind(s) {
	case "", BadgeMarkdown:
		return BadgeMarkdown, nil
	case BadgeRST:
		return BadgeRST, nil
	default:
		return "", errors.New("E121").WithDetailf("%q", s)
	}
}

// BadgeMarkup renders a launch badge for launchURL. It returns "" when
// launchURL is empty or kind is not a supported kind.
func BadgeMarkup(kind BadgeKind, launchURL string, publicBase *url.URL) string {
	if launchURL == "" {
		return ""
	}
	logo := BadgeLogoURL(publicBase).String()

	switch kind {
	case BadgeMarkdown:
		return "[![Binder](" + logo + ")](" + launchURL + ")"
	case BadgeRST:
		return ".. image:: " + logo + "\n :target: " + launchURL
	default:
		return ""
	}
}
