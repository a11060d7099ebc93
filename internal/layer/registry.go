package layer

import (
	"fmt"

	"github.com/felixgeelhaar/complyscan/internal/check"
	"github.com/felixgeelhaar/complyscan/internal/domain"
	"github.com/felixgeelhaar/complyscan/internal/errors"
)

// Registry is the static, ordered collection of rules per layer.
// Registration order is the order findings are emitted in.
type Registry struct {
	files    []check.Unit
	docs     []DocAnalyzer
	deps     []DepAnalyzer
	patterns []PatternUnit
	ids      map[string]check.Meta
	order    []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]check.Meta)}
}

func (r *Registry) admit(d check.Describer, want domain.Layer) error {
	meta := d.Meta()
	if err := meta.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeRuleInvalid, "invalid rule metadata", err)
	}
	if meta.Layer != want {
		return errors.New(errors.ErrCodeRuleInvalid,
			fmt.Sprintf("rule %s declares layer %s but was registered as %s", meta.ID, meta.Layer, want))
	}
	if _, ok := r.ids[meta.ID]; ok {
		return errors.NewRuleDuplicateError(meta.ID)
	}
	r.ids[meta.ID] = meta
	r.order = append(r.order, meta.ID)
	return nil
}

// RegisterUnit adds an L1 file-presence unit
func (r *Registry) RegisterUnit(u check.Unit) error {
	if err := r.admit(u, domain.LayerFilePresence); err != nil {
		return err
	}
	r.files = append(r.files, u)
	return nil
}

// RegisterDoc adds an L2 document analyzer
func (r *Registry) RegisterDoc(a DocAnalyzer) error {
	if err := r.admit(a, domain.LayerDocStructure); err != nil {
		return err
	}
	r.docs = append(r.docs, a)
	return nil
}

// RegisterDep adds an L3 dependency analyzer
func (r *Registry) RegisterDep(a DepAnalyzer) error {
	if err := r.admit(a, domain.LayerDependency); err != nil {
		return err
	}
	r.deps = append(r.deps, a)
	return nil
}

// RegisterPattern adds an L4 pattern unit
func (r *Registry) RegisterPattern(p PatternUnit) error {
	if err := r.admit(p, domain.LayerPattern); err != nil {
		return err
	}
	r.patterns = append(r.patterns, p)
	return nil
}

// Len returns the number of registered rules
func (r *Registry) Len() int { return len(r.order) }

// Lookup returns a rule's metadata
func (r *Registry) Lookup(id string) (check.Meta, bool) {
	m, ok := r.ids[id]
	return m, ok
}

// Metas returns all rule metadata in layer, then registration order
func (r *Registry) Metas() []check.Meta {
	out := make([]check.Meta, 0, len(r.order))
	for _, u := range r.files {
		out = append(out, u.Meta())
	}
	for _, a := range r.docs {
		out = append(out, a.Meta())
	}
	for _, a := range r.deps {
		out = append(out, a.Meta())
	}
	for _, p := range r.patterns {
		out = append(out, p.Meta())
	}
	return out
}

// Filter returns a registry holding only the rules keep accepts
func (r *Registry) Filter(keep func(check.Meta) bool) *Registry {
	out := NewRegistry()
	for _, u := range r.files {
		if keep(u.Meta()) {
			_ = out.RegisterUnit(u)
		}
	}
	for _, a := range r.docs {
		if keep(a.Meta()) {
			_ = out.RegisterDoc(a)
		}
	}
	for _, a := range r.deps {
		if keep(a.Meta()) {
			_ = out.RegisterDep(a)
		}
	}
	for _, p := range r.patterns {
		if keep(p.Meta()) {
			_ = out.RegisterPattern(p)
		}
	}
	return out
}
