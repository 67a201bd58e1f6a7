// Package gldevice implements graphics.Device on an OpenGL 4.1 core context.
// Fragment sources are GLSL ES 3.00 and are translated to GLSL 4.10 before
// compilation; uniform lookups go through the translator's name mapping.
package gldevice

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/translator"
	gst "github.com/richinsley/goshadertranslator"
)

var (
	glInitOnce sync.Once
	glInitErr  error
)

// Device must only be used on the thread that owns the current GL context.
type Device struct {
	translator *gst.ShaderTranslator
	// user uniform name -> translated name, per fragment shader and program
	shaderNames  map[graphics.Shader]map[string]string
	programNames map[graphics.Program]map[string]string
}

// New loads the GL entry points for the current context and prepares the
// shader translator.
func New() (*Device, error) {
	glInitOnce.Do(func() {
		glInitErr = gl.Init()
	})
	if glInitErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", glInitErr)
	}
	t, err := translator.Get()
	if err != nil {
		return nil, err
	}
	return &Device{
		translator:   t,
		shaderNames:  make(map[graphics.Shader]map[string]string),
		programNames: make(map[graphics.Program]map[string]string),
	}, nil
}

// Version reports the GL version string of the current context.
func Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *Device) CompileShader(stage graphics.Stage, source string) (graphics.Shader, error) {
	var names map[string]string
	shaderType := uint32(gl.VERTEX_SHADER)
	if stage == graphics.FragmentStage {
		shaderType = gl.FRAGMENT_SHADER
		out, err := d.translator.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
		if err != nil {
			return 0, &graphics.CompileError{Stage: stage, Log: err.Error()}
		}
		source = out.Code
		names = make(map[string]string, len(out.Variables))
		for name, v := range out.Variables {
			names[name] = v.MappedName
		}
	} else {
		source = desktopVertex(source)
	}

	s := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csources, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(s, logLength, nil, gl.Str(logText))
		gl.DeleteShader(s)
		return 0, &graphics.CompileError{Stage: stage, Log: strings.TrimRight(logText, "\x00")}
	}
	if names != nil {
		d.shaderNames[graphics.Shader(s)] = names
	}
	return graphics.Shader(s), nil
}

// desktopVertex retargets the fixed ES vertex stage to desktop GLSL; the
// body is valid in both.
func desktopVertex(source string) string {
	return strings.Replace(source, "#version 300 es", "#version 410 core", 1)
}

func (d *Device) DeleteShader(s graphics.Shader) {
	gl.DeleteShader(uint32(s))
	delete(d.shaderNames, s)
}

func (d *Device) LinkProgram(vertex, fragment graphics.Shader) (graphics.Program, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vertex))
	gl.AttachShader(program, uint32(fragment))
	gl.LinkProgram(program)
	gl.DetachShader(program, uint32(vertex))
	gl.DetachShader(program, uint32(fragment))

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		return graphics.Program(program), &graphics.CompileError{Link: true, Log: strings.TrimRight(logText, "\x00")}
	}
	d.programNames[graphics.Program(program)] = d.shaderNames[fragment]
	return graphics.Program(program), nil
}

func (d *Device) DeleteProgram(p graphics.Program) {
	gl.DeleteProgram(uint32(p))
	delete(d.programNames, p)
}

func (d *Device) UseProgram(p graphics.Program) {
	gl.UseProgram(uint32(p))
}

func (d *Device) UniformLocation(p graphics.Program, name string) (graphics.Location, bool) {
	mapped, ok := d.programNames[p][name]
	if !ok {
		return -1, false
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(mapped+"\x00"))
	if loc < 0 {
		return -1, false
	}
	return graphics.Location(loc), true
}

func (d *Device) Uniform1f(loc graphics.Location, v float32) {
	gl.Uniform1f(int32(loc), v)
}

func (d *Device) Uniformfv(loc graphics.Location, v []float32) {
	switch len(v) {
	case 2:
		gl.Uniform2fv(int32(loc), 1, &v[0])
	case 3:
		gl.Uniform3fv(int32(loc), 1, &v[0])
	case 4:
		gl.Uniform4fv(int32(loc), 1, &v[0])
	}
}

func (d *Device) NewVertexArray(vertices []float32) (graphics.VertexArray, graphics.Buffer, error) {
	if len(vertices) == 0 {
		return 0, 0, fmt.Errorf("no vertices")
	}
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	if vao == 0 || vbo == 0 {
		return 0, 0, fmt.Errorf("failed to allocate vertex objects")
	}
	return graphics.VertexArray(vao), graphics.Buffer(vbo), nil
}

func (d *Device) BindVertexArray(vao graphics.VertexArray) {
	gl.BindVertexArray(uint32(vao))
}

func (d *Device) DeleteVertexArray(vao graphics.VertexArray) {
	v := uint32(vao)
	gl.DeleteVertexArrays(1, &v)
}

func (d *Device) DeleteBuffer(b graphics.Buffer) {
	v := uint32(b)
	gl.DeleteBuffers(1, &v)
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) DrawTriangles(first, count int) {
	gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
}

// ReadPixels reads the default framebuffer as tightly packed RGBA8.
func (d *Device) ReadPixels(width, height int, dst []byte) error {
	if len(dst) < width*height*4 {
		return fmt.Errorf("pixel buffer too small: %d bytes for %dx%d", len(dst), width, height)
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return nil
}

var (
	_ graphics.Device      = (*Device)(nil)
	_ graphics.PixelReader = (*Device)(nil)
)
