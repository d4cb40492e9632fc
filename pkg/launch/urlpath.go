package launch

import (
	"github.com/binderlink/binderlink/internal/errors"
)

// PathKind selects how the path field is turned into a URL path.
type PathKind string

const (
	// PathFile opens the path in the document viewer.
	PathFile PathKind = "file"
	// PathURL opens the input as a URL path unchanged.
	PathURL PathKind = "url"
)

// PathKindInfo carries the form labels of a path kind.
type PathKindInfo struct {
	Kind        PathKind `json:"id"`
	DisplayName string   `json:"displayName"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder"`
}

// PathKinds lists the path kinds in form order; the first is the default.
var PathKinds = []PathKindInfo{
	{Kind: PathFile, DisplayName: "File", Label: "File to open (in JupyterLab)", Placeholder: "eg. index.ipynb"},
	{Kind: PathURL, DisplayName: "URL", Label: "URL to open", Placeholder: "eg. /rstudio"},
}

// ParsePathKind validates a path kind. The empty string selects PathFile.
func ParsePathKind(s string) (PathKind, error) {
	switch PathKind(s) {
	case "", PathFile:
		return PathFile, nil
	case PathURL:
		return PathURL, nil
	default:
		return "", errors.New("E122").WithDetailf("%q", s)
	}
}

// ResolveURLPath turns raw path input into the URL path to open. Empty
// input always yields "".
func ResolveURLPath(kind PathKind, raw string) string {
	if raw == "" {
		return ""
	}
	if kind == PathFile {
		// /doc/tree opens documents as well as notebooks.
		return "/doc/tree/" + raw
	}
	return raw
}
