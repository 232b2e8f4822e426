package config

import (
	"fmt"
	"sync"
)

// Change describes one committed parameter update.
type Change struct {
	Name string `json:"name"`
	Old  any    `json:"old"`
	New  any    `json:"new"`
}

// Observer is told about committed parameter changes.
type Observer interface {
	ParamChanged(Change)
}

// ParamValue is a parameter with its current value.
type ParamValue struct {
	Param
	Value any `json:"value"`
}

// Registry is the thread-safe store of parameter values.
type Registry struct {
	mu        sync.RWMutex
	params    []Param
	index     map[string]int
	values    map[string]any
	observers []Observer
}

// NewRegistry returns a registry holding DefaultParams at their defaults.
func NewRegistry() *Registry {
	r := &Registry{
		params: DefaultParams(),
		index:  make(map[string]int),
		values: make(map[string]any),
	}
	for i, p := range r.params {
		r.index[p.Name] = i
		r.values[p.Name] = p.Default
	}
	return r
}

// AddObserver registers o for change notifications.
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Get returns the current value of a parameter.
func (r *Registry) Get(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return v, nil
}

// Set coerces value to the parameter's kind, clamps it into range and stores
// it. It returns the value actually stored.
func (r *Registry) Set(name string, value any) (any, error) {
	stored, err := r.apply(map[string]any{name: value})
	if err != nil {
		return nil, err
	}
	return stored[name], nil
}

// Apply sets several parameters at once. Either every value is stored or,
// if any name is unknown or any value invalid, none is.
func (r *Registry) Apply(values map[string]any) error {
	_, err := r.apply(values)
	return err
}

func (r *Registry) apply(values map[string]any) (map[string]any, error) {
	r.mu.Lock()

	coerced := make(map[string]any, len(values))
	for name, v := range values {
		i, ok := r.index[name]
		if !ok {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
		c, err := r.params[i].coerce(v)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		coerced[name] = c
	}

	var changes []Change
	for _, p := range r.params {
		v, ok := coerced[p.Name]
		if !ok {
			continue
		}
		if old := r.values[p.Name]; old != v {
			changes = append(changes, Change{Name: p.Name, Old: old, New: v})
			r.values[p.Name] = v
		}
	}
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	for _, c := range changes {
		for _, o := range observers {
			o.ParamChanged(c)
		}
	}
	return coerced, nil
}

// Reset restores every parameter to its default.
func (r *Registry) Reset() {
	defaults := make(map[string]any, len(r.params))
	for _, p := range r.params {
		defaults[p.Name] = p.Default
	}
	// Defaults always coerce
	_ = r.Apply(defaults)
}

// Params lists every parameter with its current value, in table order.
func (r *Registry) Params() []ParamValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ParamValue, len(r.params))
	for i, p := range r.params {
		out[i] = ParamValue{Param: p, Value: r.values[p.Name]}
	}
	return out
}

// Values returns a copy of all current values keyed by name.
func (r *Registry) Values() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Snapshot captures every parameter under one read lock.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshotFrom(r.values)
}
