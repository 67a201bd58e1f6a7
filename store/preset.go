package store

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	"github.com/richinsley/goshaderlab/uniforms"
	"gopkg.in/yaml.v3"
)

// PresetVersion is written into every new preset.
const PresetVersion = 1

// Preset is a saved shader with its uniform specs and seed. Presets are
// never modified after they are created.
type Preset struct {
	ID             string          `yaml:"id"`
	Title          string          `yaml:"title"`
	Description    string          `yaml:"description,omitempty"`
	Seed           int             `yaml:"seed"`
	FragmentSource string          `yaml:"fragment"`
	UniformSpecs   []uniforms.Spec `yaml:"uniforms"`
	Tags           []string        `yaml:"tags,omitempty"`
	CreatedAt      time.Time       `yaml:"created_at"`
	Version        int             `yaml:"version"`
}

func (p Preset) Clone() Preset {
	out := p
	out.UniformSpecs = uniforms.CloneSpecs(p.UniformSpecs)
	out.Tags = slices.Clone(p.Tags)
	return out
}

// PresetInput carries the user-supplied fields of a new preset.
type PresetInput struct {
	Title       string
	Description string
	Tags        []string
}

// SavePreset captures the current shader, specs and seed as a new preset and
// puts it at the front of the preset list. The current uniform values become
// the defaults of the captured specs, so loading the preset restores them.
func (s *Store) SavePreset(in PresetInput) Preset {
	p := Preset{
		ID:             s.newID(),
		Title:          in.Title,
		Description:    in.Description,
		Seed:           s.state.Seed,
		FragmentSource: s.state.CurrentShaderSource,
		UniformSpecs:   captureSpecs(s.state.UniformSpecs, s.state.UniformValues),
		Tags:           slices.Clone(in.Tags),
		CreatedAt:      s.now(),
		Version:        PresetVersion,
	}
	s.state.Presets = append([]Preset{p.Clone()}, s.state.Presets...)
	s.notify()
	return p
}

func captureSpecs(specs []uniforms.Spec, values uniforms.ValueMap) []uniforms.Spec {
	out := uniforms.CloneSpecs(specs)
	for i := range out {
		v, ok := values[out[i].Name]
		if !ok || len(v) == 0 {
			continue
		}
		switch {
		case len(v) == out[i].Kind.Arity():
			out[i].Default = v.Clone()
		case len(out[i].Default) > 0:
			out[i].Default[0] = v[0]
		default:
			out[i].Default = uniforms.Value{v[0]}
		}
	}
	return out
}

// LoadPreset replaces the shader, specs, values and seed with those of p and
// marks it selected. p itself is left untouched.
func (s *Store) LoadPreset(p Preset) {
	s.state.CurrentShaderSource = p.FragmentSource
	s.state.UniformSpecs = uniforms.CloneSpecs(p.UniformSpecs)
	s.state.UniformValues = uniforms.Defaults(p.UniformSpecs)
	s.state.Seed = p.Seed
	s.state.SelectedPresetID = p.ID
	s.notify()
}

// Preset looks up a saved preset by ID.
func (s *Store) Preset(id string) (Preset, bool) {
	for _, p := range s.state.Presets {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return Preset{}, false
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// WritePresets encodes presets as a YAML document.
func WritePresets(w io.Writer, presets []Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(presetFile{Presets: presets}); err != nil {
		return fmt.Errorf("error encoding presets: %w", err)
	}
	return enc.Close()
}

// ReadPresets decodes a document written by WritePresets. Presets with
// invalid uniform specs are rejected.
func ReadPresets(r io.Reader) ([]Preset, error) {
	var f presetFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("error decoding presets: %w", err)
	}
	for _, p := range f.Presets {
		if err := uniforms.Validate(p.UniformSpecs); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.ID, err)
		}
	}
	return f.Presets, nil
}

// LoadPresetFile reads presets from path. A missing file yields no presets.
func LoadPresetFile(path string) ([]Preset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPresets(f)
}

// SavePresetFile writes the store's presets to path.
func (s *Store) SavePresetFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePresets(f, s.state.Presets); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("Saved %d presets to %s", len(s.state.Presets), path)
	return nil
}
