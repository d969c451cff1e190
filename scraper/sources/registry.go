package sources

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry maps source identifiers and request labels to adapters.
type Registry struct {
	byID    map[string]Adapter
	byLabel map[string]Adapter
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Adapter),
		byLabel: make(map[string]Adapter),
	}
}

// Default returns a registry holding every built-in listing source.
func Default() *Registry {
	r := NewRegistry()
	for _, a := range []Adapter{Realtor(), Homes(), ColdwellBanker(), Compass(), Exp(), United()} {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds an adapter. IDs and labels must be unique.
func (r *Registry) Register(a Adapter) error {
	if _, dup := r.byID[a.ID()]; dup {
		return eris.Errorf("sources: duplicate source id %q", a.ID())
	}
	if _, dup := r.byLabel[a.Label()]; dup {
		return eris.Errorf("sources: duplicate label %q", a.Label())
	}
	r.byID[a.ID()] = a
	r.byLabel[a.Label()] = a
	r.order = append(r.order, a.ID())
	return nil
}

// Get returns the adapter for id.
func (r *Registry) Get(id string) (Adapter, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, eris.Errorf("sources: unknown source %q", id)
	}
	return a, nil
}

// ByLabel returns the adapter that owns a request label.
func (r *Registry) ByLabel(label string) (Adapter, bool) {
	a, ok := r.byLabel[label]
	return a, ok
}

// Select resolves ids in the order given. Unknown ids are returned separately
// so callers can warn and carry on; repeated ids are selected once.
func (r *Registry) Select(ids []string) ([]Adapter, []string) {
	var (
		selected []Adapter
		unknown  []string
		seen     = make(map[string]struct{}, len(ids))
	)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		a, err := r.Get(id)
		if err != nil {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, a)
	}
	return selected, unknown
}

// All returns every adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

type specFile struct {
	Sources []Spec `yaml:"sources"`
}

// LoadSpecs reads selector-driven source definitions from a YAML file of the form
//
//	sources:
//	  - id: acme
//	    url: https://acme.example/agents?page={page}
//	    max_pages: 5
//	    cards: .agent
//	    name: .agent-name
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read %s", path)
	}

	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "sources: parse %s", path)
	}
	return f.Sources, nil
}

// RegisterSpecs builds and registers an adapter for every spec.
func (r *Registry) RegisterSpecs(specs []Spec) error {
	for _, spec := range specs {
		a, err := NewListAdapter(spec)
		if err != nil {
			return err
		}
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}
