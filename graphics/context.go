package graphics

import "fmt"

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	if s == VertexStage {
		return "vertex"
	}
	return "fragment"
}

// Handles are opaque GPU object names. Zero is never a valid object.
type (
	Shader      uint32
	Program     uint32
	Buffer      uint32
	VertexArray uint32
)

// Location is a uniform location inside a linked program.
type Location int32

// Surface is the host-owned drawable the renderer presents into.
type Surface interface {
	// Size returns the logical (CSS-like) size of the drawable.
	Size() (width, height float64)
	// PixelRatio is the number of backing pixels per logical unit.
	PixelRatio() float64
	// Pointer returns the pointer position in logical units, origin top-left.
	Pointer() (x, y float64)
	// Device acquires the graphics context bound to this surface.
	Device() (Device, error)
}

// Device is the subset of a GPU graphics context the renderer drives.
// All calls are synchronous and must happen on the thread owning the context.
type Device interface {
	// CompileShader returns a *CompileError carrying the info log on failure.
	// A shader that failed to compile is released before returning.
	CompileShader(stage Stage, source string) (Shader, error)
	DeleteShader(s Shader)
	// LinkProgram returns a *CompileError on failure. A non-zero program
	// returned alongside an error must still be deleted by the caller.
	LinkProgram(vertex, fragment Shader) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	// UniformLocation reports false when the program has no live uniform
	// with that name.
	UniformLocation(p Program, name string) (Location, bool)
	// Uniform1f uploads a float or bool uniform.
	Uniform1f(loc Location, v float32)
	// Uniformfv uploads a vec2, vec3 or vec4 depending on len(v).
	Uniformfv(loc Location, v []float32)

	// NewVertexArray uploads vertices (2 floats per vertex, attribute 0) into
	// a static buffer and returns the vertex array describing it.
	NewVertexArray(vertices []float32) (VertexArray, Buffer, error)
	BindVertexArray(vao VertexArray)
	DeleteVertexArray(vao VertexArray)
	DeleteBuffer(b Buffer)

	Viewport(x, y, width, height int)
	Clear(r, g, b, a float32)
	DrawTriangles(first, count int)
}

// PixelReader is implemented by devices that can read back the framebuffer.
type PixelReader interface {
	// ReadPixels fills dst with width*height RGBA8 pixels, bottom row first.
	ReadPixels(width, height int, dst []byte) error
}

// CompileError is returned by a Device when a stage fails to compile or a
// program fails to link. Log is the raw driver/translator info log.
type CompileError struct {
	Stage Stage
	Link  bool
	Log   string
}

func (e *CompileError) Error() string {
	if e.Link {
		return fmt.Sprintf("failed to link program: %s", e.Log)
	}
	return fmt.Sprintf("failed to compile %s shader: %s", e.Stage, e.Log)
}
