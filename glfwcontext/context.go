package glfwcontext

import (
	"log"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/goshaderlab/gldevice"
	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/options"
)

// Context is a glfw window with an OpenGL 4.1 core context. It implements
// graphics.Surface.
type Context struct {
	window *glfw.Window
	device *gldevice.Device
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
}

// New creates the window described by opts. A hidden window is used for
// offline recording.
func New(opts *options.StudioOptions, visible bool) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(*opts.Width, *opts.Height, "goshaderlab", nil, nil)
	if err != nil {
		return nil, err
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	win.MakeContextCurrent()
	if visible {
		glfw.SwapInterval(1)
	}
	return c, nil
}

// RegisterKeyCallback registers f to run when key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.SetShouldClose(true)
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	}
}

// Size returns the window size in screen coordinates.
func (c *Context) Size() (float64, float64) {
	w, h := c.window.GetSize()
	return float64(w), float64(h)
}

// PixelRatio is the framebuffer to window scale, 2 on most HiDPI displays.
func (c *Context) PixelRatio() float64 {
	fbWidth, _ := c.window.GetFramebufferSize()
	winWidth, _ := c.window.GetSize()
	if winWidth <= 0 || fbWidth <= 0 {
		return 1
	}
	return float64(fbWidth) / float64(winWidth)
}

// Pointer returns the cursor position in screen coordinates, origin top-left.
func (c *Context) Pointer() (float64, float64) {
	return c.window.GetCursorPos()
}

// Device returns the GL device of this window, creating it on first use.
func (c *Context) Device() (graphics.Device, error) {
	if c.device != nil {
		return c.device, nil
	}
	c.window.MakeContextCurrent()
	dev, err := gldevice.New()
	if err != nil {
		return nil, err
	}
	log.Printf("OpenGL %s", gldevice.Version())
	c.device = dev
	return dev, nil
}

// GLDevice returns the device created by Device, or nil.
func (c *Context) GLDevice() *gldevice.Device {
	return c.device
}

func (c *Context) SetTitle(title string) {
	c.window.SetTitle(title)
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics initializes GLFW. Must be called from the main thread.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// TerminateGraphics shuts down GLFW. Must be called from the main thread.
func TerminateGraphics() {
	glfw.Terminate()
	log.Printf("GLFW Terminated")
}

var _ graphics.Surface = (*Context)(nil)
