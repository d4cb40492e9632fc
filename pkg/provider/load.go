package provider

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/binderlink/binderlink/internal/errors"
)

// maxRegistrySize bounds registry documents read from disk or S3.
const maxRegistrySize = 1 << 20

// Format is a registry document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// document is the on-disk registry shape shared by every format.
type document struct {
	Providers []Descriptor `json:"providers" yaml:"providers" toml:"providers"`
}

// FormatFromPath picks the registry format from a file name or object key.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New("E116").WithDetailf("%q", path)
	}
}

// Decode parses a registry document and validates it.
func Decode(data []byte, format Format) (*Registry, error) {
	var doc document

	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		_, err = toml.Decode(string(data), &doc)
	default:
		return nil, errors.New("E116").WithDetailf("format %q", format)
	}
	if err != nil {
		return nil, errors.New("E110").WithDetailf("decode %s", format).Wrap(err)
	}

	return NewRegistry(doc.Providers...)
}

// Read decodes a registry from r, refusing documents over 1 MiB.
func Read(r io.Reader, format Format) (*Registry, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxRegistrySize+1))
	if err != nil {
		return nil, errors.New("E110").Wrap(err)
	}
	if len(data) > maxRegistrySize {
		return nil, errors.New("E110").WithDetail("registry document exceeds 1 MiB")
	}
	return Decode(data, format)
}

// LoadFile reads a registry file, choosing the format from its extension.
func LoadFile(path string) (*Registry, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("E110").WithDetailf("%q", path).Wrap(err)
	}
	defer f.Close()

	return Read(f, format)
}

// Encode writes the registry as a document in the given format.
func Encode(w io.Writer, r *Registry, format Format) error {
	doc := document{Providers: make([]Descriptor, 0, r.Len())}
	for _, d := range r.All() {
		doc.Providers = append(doc.Providers, *d)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	default:
		return errors.New("E116").WithDetailf("format %q", format)
	}
}
