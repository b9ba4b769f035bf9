package constraint

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Factory builds a fresh, unconfigured constraint.
type Factory func() Constraint

// Registry maps the aliases used in declarative configuration to factories.
// It is not safe for concurrent registration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the "size" and "type" aliases.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{
			KindSize: NewSize,
			KindType: NewType,
		},
	}
}

// RegisterExtended adds the "image" and "mimetype" aliases to r.
func RegisterExtended(r *Registry) {
	r.factories[KindImage] = NewImage
	r.factories[KindMimeType] = NewMimeType
}

// Register binds alias to factory, replacing any previous binding.
func (r *Registry) Register(alias string, factory Factory) error {
	alias = normalizeAlias(alias)
	if alias == "" {
		return fmt.Errorf("%w: empty alias", ErrInvalidConstraintType)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for alias %q", ErrInvalidConstraintType, alias)
	}
	if isNil(factory()) {
		return fmt.Errorf("%w: factory for alias %q does not produce a constraint", ErrInvalidConstraintType, alias)
	}
	r.factories[alias] = factory
	return nil
}

// Resolve returns the factory bound to alias.
func (r *Registry) Resolve(alias string) (Factory, bool) {
	f, ok := r.factories[normalizeAlias(alias)]
	return f, ok
}

// Build resolves alias and configures a new constraint with expression.
func (r *Registry) Build(alias, expression string) (Constraint, error) {
	factory, ok := r.Resolve(alias)
	if !ok {
		return nil, fmt.Errorf("%w: the constraint alias %q has not been registered", ErrInvalidConstraintType, alias)
	}
	c := factory()
	if isNil(c) {
		return nil, fmt.Errorf("%w: factory for alias %q produced no constraint", ErrInvalidConstraintType, alias)
	}
	if err := c.Configure(expression); err != nil {
		return nil, err
	}
	return c, nil
}

// Aliases lists the registered aliases in lexical order.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.factories))
	for alias := range r.factories {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// isNil also catches a nil pointer stored in the interface.
func isNil(c Constraint) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
