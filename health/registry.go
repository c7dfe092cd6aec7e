package health

import (
	"fmt"
	"sync"
)

// NamedProbe pairs a probe with the name it was registered under.
type NamedProbe struct {
	Name  string
	Probe Probe
}

// Registry holds an ordered, name-unique set of probes. It never invokes the
// probes it holds.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: Probes and Names return registration order.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe under name. Registering an existing name replaces
// the probe and keeps its original position.
func (r *Registry) Register(name string, p Probe) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProbe)
	}
	if p == nil {
		return fmt.Errorf("%w: nil probe for %q", ErrInvalidProbe, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.probes[name]; !exists {
		r.order = append(r.order, name)
	}
	r.probes[name] = p
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, p Probe) {
	if err := r.Register(name, p); err != nil {
		panic(err)
	}
}

// Unregister removes the probe registered under name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.probes[name]; !ok {
		return fmt.Errorf("%w: %q", ErrProbeNotFound, name)
	}
	delete(r.probes, name)

	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Lookup returns the probe registered under name.
func (r *Registry) Lookup(name string) (Probe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.probes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProbeNotFound, name)
	}
	return p, nil
}

// Probes returns a snapshot of the registered probes in registration order.
func (r *Registry) Probes() []NamedProbe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NamedProbe, len(r.order))
	for i, name := range r.order {
		out[i] = NamedProbe{Name: name, Probe: r.probes[name]}
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered probes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
