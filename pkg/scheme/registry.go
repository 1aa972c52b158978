package scheme

import (
	"fmt"
	"sort"
	"strings"
)

// Built-in handler identifiers.
const (
	AnonymousHandler = "anonymous"
	PasswordHandler  = "password"
)

// Binding pairs a scheme tag with a handler identifier.
type Binding struct {
	Tag     string `yaml:"tag" json:"tag"`
	Handler string `yaml:"handler" json:"handler"`
}

// DefaultBindings registers every built-in handler under its own identifier.
func DefaultBindings() []Binding {
	return []Binding{
		{Tag: AnonymousHandler, Handler: AnonymousHandler},
		{Tag: PasswordHandler, Handler: PasswordHandler},
	}
}

// Registry resolves scheme tags to handlers.
type Registry struct {
	factories map[string]Factory
	handlers  map[string]Handler
	order     []Binding
	env       Environment
}

// RegistryOption configures a Registry before bindings are resolved.
type RegistryOption func(*Registry)

// WithFactory makes an additional handler identifier available to bindings.
func WithFactory(id string, f Factory) RegistryOption {
	return func(r *Registry) {
		r.factories[id] = f
	}
}

// NewRegistry validates bindings and builds one handler per binding.
func NewRegistry(env Environment, bindings []Binding, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		factories: map[string]Factory{
			AnonymousHandler: NewAnonymous,
			PasswordHandler:  NewCredentials,
		},
		handlers: make(map[string]Handler, len(bindings)),
		env:      env.withDefaults(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i, b := range bindings {
		if b.Tag == "" {
			return nil, &BindingError{Index: i, Handler: b.Handler, Reason: "empty tag"}
		}
		if strings.Contains(b.Tag, ":") {
			return nil, &BindingError{Index: i, Tag: b.Tag, Handler: b.Handler, Reason: "tag must not contain ':'"}
		}
		if _, dup := r.handlers[b.Tag]; dup {
			return nil, &BindingError{Index: i, Tag: b.Tag, Handler: b.Handler, Reason: "duplicate tag"}
		}
		factory, ok := r.factories[b.Handler]
		if !ok {
			return nil, &BindingError{Index: i, Tag: b.Tag, Handler: b.Handler, Reason: "unknown handler"}
		}
		h, err := factory(b.Tag, r.env)
		if err != nil {
			return nil, &BindingError{Index: i, Tag: b.Tag, Handler: b.Handler, Reason: "cannot create handler", Err: err}
		}
		r.handlers[b.Tag] = h
		r.order = append(r.order, b)
	}
	return r, nil
}

// Lookup returns the handler for tag.
func (r *Registry) Lookup(tag string) (Handler, error) {
	h, ok := r.handlers[tag]
	r.env.Metrics.RecordSchemeLookup(ok)
	if !ok {
		r.env.Logger.Debug("no handler for scheme %q", tag)
		return nil, &UnsupportedSchemeError{Tag: tag}
	}
	return h, nil
}

// LookupTokenType returns the handler for the URI scheme of tokenType.
func (r *Registry) LookupTokenType(tokenType string) (Handler, error) {
	tag, ok := TagOf(tokenType)
	if !ok {
		r.env.Metrics.RecordSchemeLookup(false)
		return nil, &UnsupportedSchemeError{Tag: tokenType}
	}
	return r.Lookup(tag)
}

// IsSupported checks if a tag is registered.
func (r *Registry) IsSupported(tag string) bool {
	_, ok := r.handlers[tag]
	return ok
}

// Bindings returns the registered bindings in configuration order.
func (r *Registry) Bindings() []Binding {
	out := make([]Binding, len(r.order))
	copy(out, r.order)
	return out
}

// Tags returns the registered tags sorted alphabetically.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.handlers))
	for tag := range r.handlers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// HandlerIDs returns the handler identifiers bindings may use.
func (r *Registry) HandlerIDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Environment returns the environment handlers were built with.
func (r *Registry) Environment() Environment {
	return r.env
}

func (b Binding) String() string {
	return fmt.Sprintf("%s=%s", b.Tag, b.Handler)
}
