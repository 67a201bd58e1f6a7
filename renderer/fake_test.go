package renderer

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/richinsley/goshaderlab/graphics"
)

var uniformDecl = regexp.MustCompile(`\buniform\s+(\w+)\s+(\w+)\s*;`)

type uniformCall struct {
	loc    graphics.Location
	floats []float32
}

type fakeUniform struct {
	name, typ string
}

type fakeProgram struct {
	uniforms []fakeUniform
}

// fakeDevice records the calls the renderer makes. A program exposes every
// uniform declared in its fragment source, at the index of the declaration.
// Uploads that GL would refuse for the declared type land in rejected.
type fakeDevice struct {
	next uint32

	shaderSource map[graphics.Shader]string
	programs     map[graphics.Program]*fakeProgram
	vaos         map[graphics.VertexArray]bool
	buffers      map[graphics.Buffer]bool

	failVertex   string
	failFragment string
	failLink     string
	vertexError  error

	used      graphics.Program
	bound     graphics.VertexArray
	viewports [][4]int
	draws     int
	clears    int
	clearRGBA [4]float32
	uploads   []uniformCall
	rejected  []string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		shaderSource: make(map[graphics.Shader]string),
		programs:     make(map[graphics.Program]*fakeProgram),
		vaos:         make(map[graphics.VertexArray]bool),
		buffers:      make(map[graphics.Buffer]bool),
	}
}

func (d *fakeDevice) id() uint32 {
	d.next++
	return d.next
}

func (d *fakeDevice) CompileShader(stage graphics.Stage, source string) (graphics.Shader, error) {
	if d.vertexError != nil && stage == graphics.VertexStage {
		return 0, d.vertexError
	}
	if stage == graphics.VertexStage && d.failVertex != "" {
		return 0, &graphics.CompileError{Stage: stage, Log: d.failVertex}
	}
	if stage == graphics.FragmentStage && d.failFragment != "" {
		return 0, &graphics.CompileError{Stage: stage, Log: d.failFragment}
	}
	s := graphics.Shader(d.id())
	d.shaderSource[s] = source
	return s, nil
}

func (d *fakeDevice) DeleteShader(s graphics.Shader) { delete(d.shaderSource, s) }

func (d *fakeDevice) LinkProgram(vs, fs graphics.Shader) (graphics.Program, error) {
	p := graphics.Program(d.id())
	fp := &fakeProgram{}
	for _, m := range uniformDecl.FindAllStringSubmatch(d.shaderSource[fs], -1) {
		fp.uniforms = append(fp.uniforms, fakeUniform{name: m[2], typ: m[1]})
	}
	d.programs[p] = fp
	if d.failLink != "" {
		return p, &graphics.CompileError{Link: true, Log: d.failLink}
	}
	return p, nil
}

func (d *fakeDevice) DeleteProgram(p graphics.Program) { delete(d.programs, p) }
func (d *fakeDevice) UseProgram(p graphics.Program)    { d.used = p }

func (d *fakeDevice) UniformLocation(p graphics.Program, name string) (graphics.Location, bool) {
	fp, ok := d.programs[p]
	if !ok {
		return -1, false
	}
	for i, u := range fp.uniforms {
		if u.name == name {
			return graphics.Location(i), true
		}
	}
	return -1, false
}

func (d *fakeDevice) declared(loc graphics.Location) fakeUniform {
	fp, ok := d.programs[d.used]
	if !ok || loc < 0 || int(loc) >= len(fp.uniforms) {
		return fakeUniform{}
	}
	return fp.uniforms[loc]
}

func (d *fakeDevice) Uniform1f(loc graphics.Location, v float32) {
	if u := d.declared(loc); u.typ != "float" && u.typ != "bool" {
		d.rejected = append(d.rejected, "1f on "+u.typ+" "+u.name)
		return
	}
	d.uploads = append(d.uploads, uniformCall{loc: loc, floats: []float32{v}})
}

func (d *fakeDevice) Uniformfv(loc graphics.Location, v []float32) {
	if u := d.declared(loc); u.typ != fmt.Sprintf("vec%d", len(v)) {
		d.rejected = append(d.rejected, fmt.Sprintf("%dfv on %s %s", len(v), u.typ, u.name))
		return
	}
	d.uploads = append(d.uploads, uniformCall{loc: loc, floats: append([]float32(nil), v...)})
}

func (d *fakeDevice) NewVertexArray(vertices []float32) (graphics.VertexArray, graphics.Buffer, error) {
	if len(vertices) != 6 {
		return 0, 0, errors.New("expected a single triangle")
	}
	vao, vbo := graphics.VertexArray(d.id()), graphics.Buffer(d.id())
	d.vaos[vao] = true
	d.buffers[vbo] = true
	return vao, vbo, nil
}

func (d *fakeDevice) BindVertexArray(vao graphics.VertexArray)   { d.bound = vao }
func (d *fakeDevice) DeleteVertexArray(vao graphics.VertexArray) { delete(d.vaos, vao) }
func (d *fakeDevice) DeleteBuffer(b graphics.Buffer)             { delete(d.buffers, b) }

func (d *fakeDevice) Viewport(x, y, width, height int) {
	d.viewports = append(d.viewports, [4]int{x, y, width, height})
}

func (d *fakeDevice) Clear(r, g, b, a float32) {
	d.clears++
	d.clearRGBA = [4]float32{r, g, b, a}
}

func (d *fakeDevice) DrawTriangles(first, count int) { d.draws++ }

// uploaded returns the last upload made to name in the used program.
func (d *fakeDevice) uploaded(name string) (uniformCall, bool) {
	loc, ok := d.UniformLocation(d.used, name)
	if !ok {
		return uniformCall{}, false
	}
	for i := len(d.uploads) - 1; i >= 0; i-- {
		if d.uploads[i].loc == loc {
			return d.uploads[i], true
		}
	}
	return uniformCall{}, false
}

type fakeSurface struct {
	width, height float64
	ratio         float64
	px, py        float64
	dev           graphics.Device
	err           error
}

func (s *fakeSurface) Size() (float64, float64)         { return s.width, s.height }
func (s *fakeSurface) PixelRatio() float64              { return s.ratio }
func (s *fakeSurface) Pointer() (float64, float64)      { return s.px, s.py }
func (s *fakeSurface) Device() (graphics.Device, error) { return s.dev, s.err }
