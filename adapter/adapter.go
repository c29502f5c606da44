package adapter

import (
	"context"

	"github.com/awantoch/portflow/port"
)

// Adapter is one Port AI operation: it builds the request for an item's
// parameters and performs the call. Implement this to add an operation.
type Adapter interface {
	ID() string
	Describe() Description
	Execute(ctx context.Context, sess *Session, params port.Params) (map[string]any, error)
}

// Description is the operation's menu entry.
type Description struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
	Required    []string `json:"required,omitempty"`
}

// Session carries what every item in a batch shares: the client, the bearer
// token fetched once for the batch and the active profile.
type Session struct {
	Client  *port.Client
	Token   string
	Profile *port.Profile
}

// profile returns the session's profile, falling back to the default one.
func (s *Session) profile() *port.Profile {
	if s == nil || s.Profile == nil {
		return port.PortAPIAIProfile
	}
	return s.Profile
}

// withDefaults applies the profile's defaults for operation to absent parameters.
func (s *Session) withDefaults(operation string, params port.Params) port.Params {
	return params.WithDefaults(s.profile().DefaultsFor(operation))
}

// Registry holds adapters in registration order.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// NewDefaultRegistry registers the three Port AI operations in menu order.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&InvokeAgentAdapter{})
	r.Register(&GeneralInvokeAdapter{})
	r.Register(&GetInvocationAdapter{})
	return r
}

// Register adds a, replacing any adapter with the same ID in place.
func (r *Registry) Register(a Adapter) {
	if _, exists := r.adapters[a.ID()]; !exists {
		r.order = append(r.order, a.ID())
	}
	r.adapters[a.ID()] = a
}

// Get retrieves a registered adapter by ID.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs returns adapter IDs in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.adapters[id])
	}
	return out
}

// Lookup is Get with an *port.UnknownOperationError for unregistered IDs.
func (r *Registry) Lookup(id string) (Adapter, error) {
	if a, ok := r.Get(id); ok {
		return a, nil
	}
	return nil, &port.UnknownOperationError{Operation: id, Valid: r.IDs()}
}
