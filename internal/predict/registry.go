package predict

import (
	"fmt"
	"sort"
)

// Registry maps routes to predictors. It is filled at startup and read-only
// afterwards.
type Registry struct {
	byRoute map[string]*Predictor
}

// NewRegistry indexes predictors by route; routes must be unique
func NewRegistry(predictors ...*Predictor) (*Registry, error) {
	r := &Registry{byRoute: make(map[string]*Predictor, len(predictors))}
	for _, p := range predictors {
		if other, dup := r.byRoute[p.Route()]; dup {
			return nil, fmt.Errorf("route %q served by both %s and %s", p.Route(), other.Name(), p.Name())
		}
		r.byRoute[p.Route()] = p
	}
	return r, nil
}

// Get returns the predictor for route
func (r *Registry) Get(route string) (*Predictor, error) {
	p, ok := r.byRoute[route]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, route)
	}
	return p, nil
}

// All returns predictors sorted by route
func (r *Registry) All() []*Predictor {
	out := make([]*Predictor, 0, len(r.byRoute))
	for _, p := range r.byRoute {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Route() < out[j].Route() })
	return out
}

// Len is the number of registered variants
func (r *Registry) Len() int {
	return len(r.byRoute)
}
