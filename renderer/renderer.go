// Package renderer owns the GPU program for the live fragment shader and
// draws it once per frame into a host surface.
package renderer

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/richinsley/goshaderlab/frame"
	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/shader"
	"github.com/richinsley/goshaderlab/uniforms"
)

// State is the observable lifecycle stage of a Renderer.
type State int

const (
	Uninitialized State = iota
	ContextReady
	Linked
	Running
	// CompileFailed is only observable from inside the compile error callback.
	CompileFailed
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case ContextReady:
		return "context-ready"
	case Linked:
		return "linked"
	case Running:
		return "running"
	case CompileFailed:
		return "compile-failed"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type program struct {
	handle   graphics.Program
	source   shader.Source
	bindings *BindingTable
}

// Renderer is not safe for concurrent use. All methods must be called from
// the thread owning the graphics context.
type Renderer struct {
	loop           *frame.Loop
	onCompileError func(error)

	surface graphics.Surface
	dev     graphics.Device
	vao     graphics.VertexArray
	vbo     graphics.Buffer

	active *program
	values uniforms.ValueMap

	viewWidth, viewHeight int
	origin                time.Duration
	haveOrigin            bool

	unavailable bool
	reporting   bool
	disposed    bool
}

// New creates a Renderer drawing on sched. onCompileError receives the
// outcome of every Compile: nil on success, otherwise a *ShaderCompileError
// or *ShaderLinkError, or ErrContextUnavailable when there is no context to
// compile against. It may be nil.
func New(sched frame.Scheduler, onCompileError func(error)) *Renderer {
	r := &Renderer{onCompileError: onCompileError}
	r.loop = frame.NewLoop(sched, r.drawFrame)
	return r
}

// Initialize acquires the graphics context and creates the full-screen
// triangle. Any failure wraps ErrContextUnavailable and leaves the Renderer
// permanently unable to draw.
func (r *Renderer) Initialize(surface graphics.Surface) error {
	if r.disposed {
		return ErrDisposed
	}
	if r.dev != nil {
		return nil
	}
	if r.unavailable {
		return ErrContextUnavailable
	}

	dev, err := surface.Device()
	if err == nil && dev == nil {
		err = fmt.Errorf("surface returned no device")
	}
	if err != nil {
		r.unavailable = true
		return fmt.Errorf("%w: %v", ErrContextUnavailable, err)
	}
	vao, vbo, err := dev.NewVertexArray(shader.FullscreenTriangle[:])
	if err != nil {
		r.unavailable = true
		return fmt.Errorf("%w: vertex array: %v", ErrContextUnavailable, err)
	}

	r.surface = surface
	r.dev = dev
	r.vao = vao
	r.vbo = vbo
	log.Printf("Renderer initialized")
	return nil
}

// State reports the current lifecycle stage.
func (r *Renderer) State() State {
	switch {
	case r.disposed:
		return Disposed
	case r.reporting:
		return CompileFailed
	case r.dev == nil:
		return Uninitialized
	case r.active == nil:
		return ContextReady
	case r.loop.Running():
		return Running
	}
	return Linked
}

// Compile wraps body, builds a new program and, on success, makes it the
// active one. Failures never replace the active program; they are reported
// through the callback only.
func (r *Renderer) Compile(body string, specs []uniforms.Spec) {
	if r.disposed || r.dev == nil {
		r.report(ErrContextUnavailable)
		return
	}
	src := shader.Transform(body)
	p, err := r.build(src, specs)
	if err != nil {
		log.Printf("Shader compile failed: %v", err)
		r.report(err)
		return
	}

	if r.active != nil {
		r.dev.DeleteProgram(r.active.handle)
	}
	r.active = p
	r.haveOrigin = false
	r.report(nil)
}

func (r *Renderer) build(src shader.Source, specs []uniforms.Spec) (*program, error) {
	vs, err := r.dev.CompileShader(graphics.VertexStage, src.Vertex)
	if err != nil {
		return nil, &ShaderCompileError{Stage: graphics.VertexStage, Log: shader.RemapDiagnostics(driverLog(err))}
	}
	defer r.dev.DeleteShader(vs)

	fs, err := r.dev.CompileShader(graphics.FragmentStage, src.Fragment)
	if err != nil {
		return nil, &ShaderCompileError{Stage: graphics.FragmentStage, Log: shader.RemapDiagnostics(driverLog(err))}
	}
	defer r.dev.DeleteShader(fs)

	handle, err := r.dev.LinkProgram(vs, fs)
	if err != nil {
		if handle != 0 {
			r.dev.DeleteProgram(handle)
		}
		return nil, &ShaderLinkError{Log: shader.RemapDiagnostics(driverLog(err))}
	}

	return &program{
		handle:   handle,
		source:   src,
		bindings: NewBindingTable(r.dev, handle, specs),
	}, nil
}

func (r *Renderer) report(err error) {
	if r.onCompileError == nil {
		return
	}
	if err != nil {
		r.reporting = true
		defer func() { r.reporting = false }()
	}
	r.onCompileError(err)
}

// SetUniformValues replaces the values uploaded from the next frame on.
func (r *Renderer) SetUniformValues(values uniforms.ValueMap) {
	r.values = values.Clone()
}

// Start begins drawing, restarting the loop if it already runs. It does
// nothing once the context is known to be unavailable or after Dispose.
func (r *Renderer) Start() {
	if r.disposed || r.unavailable {
		return
	}
	r.loop.Start()
}

// Dispose stops the loop and releases the program, buffer and vertex array.
// It may be called any number of times.
func (r *Renderer) Dispose() {
	r.loop.Cancel()
	if r.disposed {
		return
	}
	r.disposed = true
	if r.dev == nil {
		return
	}
	if r.active != nil {
		r.dev.DeleteProgram(r.active.handle)
		r.active = nil
	}
	r.dev.DeleteVertexArray(r.vao)
	r.dev.DeleteBuffer(r.vbo)
	r.vao, r.vbo = 0, 0
	log.Printf("Renderer disposed")
}

// ActiveProgram returns the handle of the program being drawn, or 0.
func (r *Renderer) ActiveProgram() graphics.Program {
	if r.active == nil {
		return 0
	}
	return r.active.handle
}

// ActiveSource returns the transformed source of the active program.
func (r *Renderer) ActiveSource() (shader.Source, bool) {
	if r.active == nil {
		return shader.Source{}, false
	}
	return r.active.source, true
}

// BoundUniforms lists the uniforms of the active program that have a live
// location, in upload order.
func (r *Renderer) BoundUniforms() []string {
	if r.active == nil {
		return nil
	}
	return r.active.bindings.Names()
}

// BackingSize is the last viewport applied, in device pixels.
func (r *Renderer) BackingSize() (width, height int) {
	return r.viewWidth, r.viewHeight
}

func (r *Renderer) drawFrame(now time.Duration) {
	p := r.active
	if p == nil || r.dev == nil {
		return
	}

	w, h := r.surface.Size()
	ratio := r.surface.PixelRatio()
	if ratio <= 0 {
		ratio = 1
	}
	bw := int(math.Floor(w * ratio))
	bh := int(math.Floor(h * ratio))
	if bw != r.viewWidth || bh != r.viewHeight {
		r.dev.Viewport(0, 0, bw, bh)
		r.viewWidth, r.viewHeight = bw, bh
	}

	if !r.haveOrigin {
		r.origin = now
		r.haveOrigin = true
	}
	elapsed := (now - r.origin).Seconds()

	px, py := r.surface.Pointer()
	reserved := uniforms.ValueMap{
		shader.ResolutionUniform: {float64(bw), float64(bh)},
		shader.MouseUniform:      {px * ratio, float64(bh) - py*ratio},
		shader.TimeUniform:       {elapsed},
	}

	r.dev.UseProgram(p.handle)
	r.dev.BindVertexArray(r.vao)
	p.bindings.Upload(r.dev, reserved, r.values)
	r.dev.Clear(0, 0, 0, 1)
	r.dev.DrawTriangles(0, 3)
}
