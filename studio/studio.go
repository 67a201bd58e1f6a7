// Package studio wires the store to the editor, the uniform controls, the
// error panel and the live preview, and implements the studio actions.
package studio

import (
	"errors"
	"log"
	"strings"

	"github.com/richinsley/goshaderlab/graphics"
	"github.com/richinsley/goshaderlab/procgen"
	"github.com/richinsley/goshaderlab/renderer"
	"github.com/richinsley/goshaderlab/shader"
	"github.com/richinsley/goshaderlab/store"
	"github.com/richinsley/goshaderlab/uniforms"
)

// Runner is the full renderer surface the studio drives.
type Runner interface {
	Engine
	Initialize(surface graphics.Surface) error
	Start()
	Dispose()
}

// CompileErrorHandler returns a renderer error callback that records the
// diagnostic in s. A nil error clears it.
func CompileErrorHandler(s *store.Store) func(error) {
	return func(err error) {
		s.SetCompileError(Message(err))
	}
}

// Message is the text shown in the error panel for a compile outcome. It
// is empty only for a nil error.
func Message(err error) string {
	var ce *renderer.ShaderCompileError
	var le *renderer.ShaderLinkError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce) && strings.TrimSpace(ce.Log) != "":
		return ce.Log
	case errors.As(err, &le) && strings.TrimSpace(le.Log) != "":
		return le.Log
	}
	return err.Error()
}

// Studio is not safe for concurrent use.
type Studio struct {
	store  *store.Store
	runner Runner

	Editor   *Editor
	Controls *Controls
	Errors   *ErrorPanel
	Preview  *Preview

	unsubscribe []func()
}

func New(s *store.Store, r Runner) *Studio {
	return &Studio{
		store:    s,
		runner:   r,
		Editor:   &Editor{},
		Controls: &Controls{},
		Errors:   &ErrorPanel{},
		Preview:  NewPreview(r),
	}
}

// Open initializes the renderer on surface, loads the base template into an
// empty store, syncs every view and starts drawing. A context failure
// disables the preview and is returned; the other views keep working.
func (st *Studio) Open(surface graphics.Surface) error {
	initErr := st.runner.Initialize(surface)
	if initErr != nil {
		st.Preview.SetUnsupported(initErr)
	}

	for _, v := range []View{st.Editor, st.Controls, st.Errors, st.Preview} {
		st.unsubscribe = append(st.unsubscribe, st.store.Subscribe(v.Update))
	}
	if st.store.State().CurrentShaderSource == "" {
		st.store.SetShader(shader.BaseTemplate)
	} else {
		snap := st.store.State()
		for _, v := range []View{st.Editor, st.Controls, st.Errors, st.Preview} {
			v.Update(snap)
		}
	}

	if initErr != nil {
		return initErr
	}
	st.runner.Start()
	return nil
}

// Close detaches the views and releases the renderer.
func (st *Studio) Close() {
	for _, unsub := range st.unsubscribe {
		unsub()
	}
	st.unsubscribe = nil
	st.runner.Dispose()
}

// Edit replaces the shader text; the preview recompiles it.
func (st *Studio) Edit(source string) {
	st.store.SetShader(source)
}

// Run compiles the current shader again.
func (st *Studio) Run() {
	st.Preview.Recompile()
}

// SetUniform is the control callback.
func (st *Studio) SetUniform(name string, v float64) {
	st.store.SetUniform(name, uniforms.Value{v})
}

// Randomize draws a new seed and generates a shader from it.
func (st *Studio) Randomize() {
	st.store.RandomizeSeed()
	seed := st.store.State().Seed
	st.store.SetShader(procgen.Generate(uint32(seed)))
	log.Printf("Generated shader for seed %d", seed)
}

// Mutate draws a new seed and generates a shader from its mutated form.
func (st *Studio) Mutate() {
	st.store.RandomizeSeed()
	seed := st.store.State().Seed
	st.store.SetShader(procgen.Generate(procgen.Mutate(uint32(seed))))
	log.Printf("Generated mutated shader for seed %d", seed)
}

// SavePreset saves the current shader under title. An empty title saves
// nothing.
func (st *Studio) SavePreset(title string) (store.Preset, bool) {
	if title == "" {
		return store.Preset{}, false
	}
	p := st.store.SavePreset(store.PresetInput{
		Title:       title,
		Description: "Saved from the studio",
		Tags:        []string{"custom"},
	})
	log.Printf("Saved preset %q (%s)", p.Title, p.ID)
	return p, true
}

// LoadPreset loads a saved preset by ID.
func (st *Studio) LoadPreset(id string) bool {
	p, ok := st.store.Preset(id)
	if !ok {
		return false
	}
	st.store.LoadPreset(p)
	return true
}
