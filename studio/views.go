package studio

import (
	"fmt"
	"log"

	"github.com/richinsley/goshaderlab/store"
	"github.com/richinsley/goshaderlab/uniforms"
)

// View is anything refreshed from store snapshots.
type View interface {
	Update(st store.State)
}

// Editor mirrors the shader text of the store.
type Editor struct {
	text string
}

func (e *Editor) Update(st store.State) { e.text = st.CurrentShaderSource }

func (e *Editor) Text() string { return e.text }

// Control is the view model of one uniform control.
type Control struct {
	Name   string
	Label  string
	Group  string
	Toggle bool
	Min    float64
	Max    float64
	Step   float64
	Value  float64
}

// Display formats the value the way it is shown next to the control.
func (c Control) Display() string {
	if c.Toggle {
		if c.Value != 0 {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf("%.3f", c.Value)
}

// Controls holds one control per uniform spec, rebuilt whenever the specs
// or values change.
type Controls struct {
	specs    []uniforms.Spec
	values   uniforms.ValueMap
	controls []Control
	builds   int
}

func (c *Controls) Update(st store.State) {
	if c.builds > 0 && uniforms.EqualSpecs(c.specs, st.UniformSpecs) && c.values.Equal(st.UniformValues) {
		return
	}
	c.specs = st.UniformSpecs
	c.values = st.UniformValues
	c.controls = c.controls[:0]
	for _, s := range c.specs {
		min, max, step := s.Range()
		c.controls = append(c.controls, Control{
			Name:   s.Name,
			Label:  s.Title(),
			Group:  s.Group,
			Toggle: s.Kind.IsBool(),
			Min:    min,
			Max:    max,
			Step:   step,
			Value:  c.values[s.Name].Scalar(),
		})
	}
	c.builds++
}

// Controls returns the controls in spec order.
func (c *Controls) Controls() []Control {
	return append([]Control(nil), c.controls...)
}

func (c *Controls) Control(name string) (Control, bool) {
	for _, ctl := range c.controls {
		if ctl.Name == name {
			return ctl, true
		}
	}
	return Control{}, false
}

// ErrorPanel shows the last compile diagnostic. It is hidden when there is
// none.
type ErrorPanel struct {
	message string
	// OnChange, when set, is called each time the message changes.
	OnChange func(message string)
}

func (p *ErrorPanel) Update(st store.State) {
	if st.LastCompileError == p.message {
		return
	}
	p.message = st.LastCompileError
	if p.OnChange != nil {
		p.OnChange(p.message)
	}
}

func (p *ErrorPanel) Visible() bool   { return p.message != "" }
func (p *ErrorPanel) Message() string { return p.message }

// Engine is the part of the renderer the preview drives.
type Engine interface {
	Compile(body string, specs []uniforms.Spec)
	SetUniformValues(values uniforms.ValueMap)
}

// Preview keeps an Engine in sync with the store: the shader is recompiled
// when its text or specs change and values are pushed when they change.
type Preview struct {
	engine      Engine
	source      string
	specs       []uniforms.Spec
	values      uniforms.ValueMap
	synced      bool
	unsupported error
}

func NewPreview(engine Engine) *Preview {
	return &Preview{engine: engine}
}

func (p *Preview) Update(st store.State) {
	if p.unsupported != nil {
		return
	}
	if !p.synced || st.CurrentShaderSource != p.source || !uniforms.EqualSpecs(st.UniformSpecs, p.specs) {
		p.source = st.CurrentShaderSource
		p.specs = st.UniformSpecs
		p.engine.Compile(p.source, p.specs)
	}
	if !p.synced || !st.UniformValues.Equal(p.values) {
		p.values = st.UniformValues
		p.engine.SetUniformValues(p.values)
	}
	p.synced = true
}

// Recompile compiles the last seen source again.
func (p *Preview) Recompile() {
	if p.unsupported != nil || !p.synced {
		return
	}
	p.engine.Compile(p.source, p.specs)
}

// SetUnsupported switches the preview off for good after a fatal context
// failure.
func (p *Preview) SetUnsupported(err error) {
	p.unsupported = err
	log.Printf("Preview unavailable: %v", err)
}

// Status is the text shown in place of the preview, or "" while it renders.
func (p *Preview) Status() string {
	if p.unsupported != nil {
		return "unsupported environment: no usable graphics context"
	}
	return ""
}
