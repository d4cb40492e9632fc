package provider

import (
	"github.com/binderlink/binderlink/internal/errors"
)

// Registry is an ordered, immutable table of providers keyed by id.
//
// Descriptors returned by a Registry are shared and must not be modified.
type Registry struct {
	list []Descriptor
	byID map[string]int
}

// NewRegistry validates the descriptors and builds a registry preserving
// their order. The first descriptor is the default selection of a new form.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	if len(descs) == 0 {
		return nil, errors.New("E114")
	}

	r := &Registry{
		list: make([]Descriptor, len(descs)),
		byID: make(map[string]int, len(descs)),
	}
	for i, d := range descs {
		if d.Detect != nil {
			rule := *d.Detect
			d.Detect = &rule
		}
		if err := d.compile(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, errors.New("E113").WithDetailf("%q", d.ID)
		}
		r.list[i] = d
		r.byID[d.ID] = i
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on invalid descriptors.
func MustRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.list)
}

// Default returns the first provider.
func (r *Registry) Default() *Descriptor {
	return &r.list[0]
}

// Get returns the provider with the given id.
func (r *Registry) Get(id string) (*Descriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return &r.list[i], true
}

// Lookup is like Get but returns a coded not-found error.
func (r *Registry) Lookup(id string) (*Descriptor, error) {
	d, ok := r.Get(id)
	if !ok {
		return nil, errors.New("E120").WithDetailf("%q", id)
	}
	return d, nil
}

// All returns the providers in registry order.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, len(r.list))
	for i := range r.list {
		out[i] = &r.list[i]
	}
	return out
}

// IDs returns the provider ids in registry order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.list))
	for i, d := range r.list {
		ids[i] = d.ID
	}
	return ids
}
