package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/goshaderlab/graphics"
)

// ErrContextUnavailable is returned by Initialize when the surface cannot
// provide a graphics context. It is fatal for the Renderer instance.
var ErrContextUnavailable = errors.New("graphics context unavailable")

// ErrDisposed is returned by Initialize on a disposed Renderer.
var ErrDisposed = errors.New("renderer disposed")

// ShaderCompileError reports a stage that failed to compile. Log line numbers
// are relative to the user's fragment body.
type ShaderCompileError struct {
	Stage graphics.Stage
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("%s shader compile error: %s", e.Stage, e.Log)
}

// ShaderLinkError reports a program that failed to link.
type ShaderLinkError struct {
	Log string
}

func (e *ShaderLinkError) Error() string {
	return "shader link error: " + e.Log
}

// driverLog extracts the info log from a device error.
func driverLog(err error) string {
	var ce *graphics.CompileError
	if errors.As(err, &ce) {
		return ce.Log
	}
	return err.Error()
}
