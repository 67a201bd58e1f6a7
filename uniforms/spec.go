// Package uniforms describes the tunable parameters a fragment shader exposes
// and the values currently assigned to them.
package uniforms

import (
	"errors"
	"fmt"
	"slices"
)

// Value is the current value of a uniform: one component for Scalar and Bool,
// up to four for vectors.
type Value []float64

// Scalar returns the first component, or 0 for an empty value.
func (v Value) Scalar() float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func (v Value) Clone() Value { return slices.Clone(v) }

// Components returns exactly n float32 components. A value whose length is
// not n is treated as a scalar and broadcast across all n components.
func (v Value) Components(n int) []float32 {
	out := make([]float32, n)
	if len(v) == n {
		for i, c := range v {
			out[i] = float32(c)
		}
		return out
	}
	s := float32(v.Scalar())
	for i := range out {
		out[i] = s
	}
	return out
}

// ValueMap maps a uniform name to its current value.
type ValueMap map[string]Value

// Clone returns a deep copy; nil stays nil.
func (m ValueMap) Clone() ValueMap {
	if m == nil {
		return nil
	}
	out := make(ValueMap, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether both maps hold the same names and components.
func (m ValueMap) Equal(other ValueMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		o, ok := other[k]
		if !ok || !slices.Equal(v, o) {
			return false
		}
	}
	return true
}

// Spec declares one tunable uniform.
type Spec struct {
	Name    string   `yaml:"name"`
	Kind    Kind     `yaml:"type"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Step    *float64 `yaml:"step,omitempty"`
	Default Value    `yaml:"default,flow"`
	Label   string   `yaml:"label,omitempty"`
	Group   string   `yaml:"group,omitempty"`
}

// Clone returns a copy sharing no memory with s.
func (s Spec) Clone() Spec {
	s.Min = cloneFloat(s.Min)
	s.Max = cloneFloat(s.Max)
	s.Step = cloneFloat(s.Step)
	s.Default = s.Default.Clone()
	return s
}

// Title is the label shown next to the control.
func (s Spec) Title() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Range returns the slider bounds, defaulting to [0, 1] with step 0.01.
func (s Spec) Range() (min, max, step float64) {
	min, max, step = 0, 1, 0.01
	if s.Min != nil {
		min = *s.Min
	}
	if s.Max != nil {
		max = *s.Max
	}
	if s.Step != nil {
		step = *s.Step
	}
	return min, max, step
}

// DefaultValue is the value a control starts from. Vector defaults are
// reduced to their first component because controls are scalar sliders.
func (s Spec) DefaultValue() Value {
	if len(s.Default) == 0 {
		return Value{0}
	}
	return Value{s.Default[0]}
}

// CloneSpecs deep-copies a spec list; nil stays nil.
func CloneSpecs(specs []Spec) []Spec {
	if specs == nil {
		return nil
	}
	out := make([]Spec, len(specs))
	for i, s := range specs {
		out[i] = s.Clone()
	}
	return out
}

// EqualSpecs reports whether two spec lists are identical element by element.
func EqualSpecs(a, b []Spec) bool {
	return slices.EqualFunc(a, b, func(x, y Spec) bool {
		return x.Name == y.Name && x.Kind == y.Kind && x.Label == y.Label && x.Group == y.Group &&
			equalFloat(x.Min, y.Min) && equalFloat(x.Max, y.Max) && equalFloat(x.Step, y.Step) &&
			slices.Equal(x.Default, y.Default)
	})
}

// Defaults builds a ValueMap holding exactly one entry per spec.
func Defaults(specs []Spec) ValueMap {
	values := make(ValueMap, len(specs))
	for _, s := range specs {
		values[s.Name] = s.DefaultValue()
	}
	return values
}

// Lookup returns the spec with the given name.
func Lookup(specs []Spec, name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

var ErrDuplicateName = errors.New("duplicate uniform name")

// Validate checks name uniqueness and that every default matches its kind.
func Validate(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	var errs []error
	for i, s := range specs {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("uniform %d: empty name", i))
			continue
		}
		if _, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateName, s.Name))
		}
		seen[s.Name] = struct{}{}
		if n := len(s.Default); n != 0 && n != s.Kind.Arity() {
			errs = append(errs, fmt.Errorf("uniform %s: default has %d components, %s needs %d", s.Name, n, s.Kind, s.Kind.Arity()))
		}
	}
	return errors.Join(errs...)
}

// Float is a helper for the optional Min/Max/Step fields.
func Float(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
