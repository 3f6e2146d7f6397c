package ecs

import "reflect"

// Resources is a typed side-table of ambient values, at most one per Go
// type, held independently of any World. The clone-merge package threads
// a Resources value into its spawn handlers so a mapped clone can consult
// process-wide state (an asset table, a physics context) while producing
// a target component from a source one.
type Resources struct {
	byType map[reflect.Type]any
}

// NewResources returns an empty resource table.
func NewResources() *Resources {
	return &Resources{byType: make(map[reflect.Type]any)}
}

// AddResource stores res, replacing any previous value of the same type.
func AddResource[T any](r *Resources, res *T) {
	r.byType[reflect.TypeOf(res)] = res
}

// GetResource returns the stored *T, or ok == false if none was added.
func GetResource[T any](r *Resources) (*T, bool) {
	v, ok := r.byType[reflect.TypeOf((*T)(nil))]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// HasResource reports whether a *T was added.
func HasResource[T any](r *Resources) bool {
	_, ok := r.byType[reflect.TypeOf((*T)(nil))]
	return ok
}
