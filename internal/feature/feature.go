// Package feature is a minimal stand-in for the feature-type registry
// and feature builder spec.md §1 names as an external collaborator:
// just enough to let FEATURE and FEATURETYPE tree entries round-trip
// through the object store in tests, without a full geometry/attribute
// schema system.
package feature

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Type describes a named feature type: its attribute names in
// declaration order. Real feature types also carry geometry/CRS
// metadata; that is out of this core's scope.
type Type struct {
	Name       string
	Attributes []string
}

// Feature is a single feature's attribute values, keyed by attribute
// name.
type Feature struct {
	TypeName   string
	Attributes map[string]any
}

// Registry maps feature-type names to their Type definitions.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewRegistry returns an empty feature-type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// Register adds or replaces a feature type.
func (r *Registry) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
}

// Lookup returns the Type registered under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Encode serializes a Feature for storage as a FEATURE object's payload.
func Encode(f Feature) ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses a FEATURE object's payload back into a Feature.
func Decode(data []byte) (Feature, error) {
	var f Feature
	if err := json.Unmarshal(data, &f); err != nil {
		return Feature{}, fmt.Errorf("feature: decode: %w", err)
	}
	return f, nil
}

// EncodeType serializes a Type for storage as a FEATURETYPE object's
// payload.
func EncodeType(t Type) ([]byte, error) {
	return json.Marshal(t)
}

// DecodeType parses a FEATURETYPE object's payload back into a Type.
func DecodeType(data []byte) (Type, error) {
	var t Type
	if err := json.Unmarshal(data, &t); err != nil {
		return Type{}, fmt.Errorf("feature: decode type: %w", err)
	}
	return t, nil
}
