package renderer

import (
	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/shader"
	"github.com/richinsley/goshaderlab/uniforms"
)

type binding struct {
	name string
	kind uniforms.Kind
	loc  graphics.Location
}

// BindingTable caches the live uniform locations of one linked program.
// Reserved uniforms come first, followed by the user specs in declaration
// order. Names the program does not use are left out.
type BindingTable struct {
	entries []binding
	index   map[string]int
}

var reservedKinds = map[string]uniforms.Kind{
	shader.ResolutionUniform: uniforms.Vector(2),
	shader.MouseUniform:      uniforms.Vector(2),
	shader.TimeUniform:       uniforms.Scalar(),
}

// NewBindingTable looks up every reserved name and every spec in program.
// A spec reusing a reserved name is bound with the reserved kind.
func NewBindingTable(dev graphics.Device, program graphics.Program, specs []uniforms.Spec) *BindingTable {
	t := &BindingTable{index: make(map[string]int)}
	add := func(name string, kind uniforms.Kind) {
		if _, dup := t.index[name]; dup {
			return
		}
		loc, ok := dev.UniformLocation(program, name)
		if !ok {
			return
		}
		t.index[name] = len(t.entries)
		t.entries = append(t.entries, binding{name: name, kind: kind, loc: loc})
	}
	for _, name := range shader.ReservedUniforms {
		add(name, reservedKinds[name])
	}
	for _, s := range specs {
		if shader.IsReserved(s.Name) {
			continue
		}
		add(s.Name, s.Kind)
	}
	return t
}

// Location returns the cached location for name.
func (t *BindingTable) Location(name string) (graphics.Location, bool) {
	i, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.entries[i].loc, true
}

// Names lists the bound uniforms in upload order.
func (t *BindingTable) Names() []string {
	names := make([]string, len(t.entries))
	for i, b := range t.entries {
		names[i] = b.name
	}
	return names
}

func (t *BindingTable) Len() int { return len(t.entries) }

// Upload sends the reserved values, then every user value with a live
// location. A user value never replaces a reserved one.
func (t *BindingTable) Upload(dev graphics.Device, reserved, values uniforms.ValueMap) {
	for _, b := range t.entries {
		v, ok := reserved[b.name]
		if !ok {
			if shader.IsReserved(b.name) {
				continue
			}
			if v, ok = values[b.name]; !ok {
				continue
			}
		}
		upload(dev, b, v)
	}
}

func upload(dev graphics.Device, b binding, v uniforms.Value) {
	switch {
	case b.kind.IsBool():
		// 1f is accepted by both bool and float declarations.
		var f float32
		if v.Scalar() != 0 {
			f = 1
		}
		dev.Uniform1f(b.loc, f)
	case b.kind.IsVector():
		dev.Uniformfv(b.loc, v.Components(b.kind.Arity()))
	default:
		dev.Uniform1f(b.loc, float32(v.Scalar()))
	}
}
