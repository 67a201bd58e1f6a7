// Package store holds the studio state: the current shader, its uniform specs
// and values, the seed and the saved presets. Every change is pushed to
// subscribers as an independent snapshot.
package store

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/richinsley/goshaderlab/uniforms"
)

// DefaultSeed is the seed of a fresh store.
const DefaultSeed = 1337

// SeedUniform is updated alongside the seed when the current specs expose it.
const SeedUniform = "u_seed"

// State is a snapshot of the store. Values obtained from the store are
// copies and may be modified freely.
type State struct {
	CurrentShaderSource string
	UniformSpecs        []uniforms.Spec
	UniformValues       uniforms.ValueMap
	Presets             []Preset
	Seed                int
	SelectedPresetID    string
	LastCompileError    string
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.UniformSpecs = uniforms.CloneSpecs(s.UniformSpecs)
	out.UniformValues = s.UniformValues.Clone()
	if s.Presets != nil {
		out.Presets = make([]Preset, len(s.Presets))
		for i, p := range s.Presets {
			out.Presets[i] = p.Clone()
		}
	}
	return out
}

// IDGenerator returns a new unique preset ID on every call.
type IDGenerator func() string

type subscriber struct {
	fn     func(State)
	active bool
}

// Store is not safe for concurrent use.
type Store struct {
	state State

	newID      IDGenerator
	now        func() time.Time
	randomSeed func() int
	initial    []Preset

	subs       []*subscriber
	queue      []State
	delivering bool
}

type Option func(*Store)

// WithIDGenerator replaces the default UUIDv4 preset IDs.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock sets the time source used for preset creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSeedSource sets the source RandomizeSeed draws from.
func WithSeedSource(next func() int) Option {
	return func(s *Store) { s.randomSeed = next }
}

// WithPresets seeds the preset list, for example from a preset file. Reset
// restores this list.
func WithPresets(presets []Preset) Option {
	return func(s *Store) {
		s.initial = make([]Preset, len(presets))
		for i, p := range presets {
			s.initial[i] = p.Clone()
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		newID:      uuid.NewString,
		now:        time.Now,
		randomSeed: func() int { return rand.IntN(10000) },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.initialState()
	return s
}

func (s *Store) initialState() State {
	specs := uniforms.DefaultSpecs()
	st := State{
		UniformSpecs:  specs,
		UniformValues: uniforms.Defaults(specs),
		Seed:          DefaultSeed,
	}
	if s.initial != nil {
		st.Presets = make([]Preset, len(s.initial))
		for i, p := range s.initial {
			st.Presets[i] = p.Clone()
		}
	}
	return st
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every mutation, in
// subscription order. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	sub := &subscriber{fn: fn, active: true}
	s.subs = append(s.subs, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		for i, other := range s.subs {
			if other == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// notify queues a snapshot of the current state. A mutation made by a
// subscriber is delivered once the snapshot being delivered has reached
// every subscriber.
func (s *Store) notify() {
	s.queue = append(s.queue, s.state.Clone())
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() {
		s.delivering = false
		s.queue = nil
	}()

	for len(s.queue) > 0 {
		snap := s.queue[0]
		s.queue = s.queue[1:]
		subs := append([]*subscriber(nil), s.subs...)
		for _, sub := range subs {
			if sub.active {
				sub.fn(snap.Clone())
			}
		}
	}
}

func (s *Store) SetShader(source string) {
	s.state.CurrentShaderSource = source
	s.notify()
}

// SetUniform sets one value. Names without a spec are ignored, but
// subscribers are still notified.
func (s *Store) SetUniform(name string, v uniforms.Value) {
	if _, ok := s.state.UniformValues[name]; ok {
		s.state.UniformValues[name] = v.Clone()
	}
	s.notify()
}

// SetUniforms replaces the values of every named uniform in values. The key
// set stays equal to the current spec names.
func (s *Store) SetUniforms(values uniforms.ValueMap) {
	next := s.state.UniformValues.Clone()
	for name, v := range values {
		if _, ok := next[name]; ok {
			next[name] = v.Clone()
		}
	}
	s.state.UniformValues = next
	s.notify()
}

// SetUniformSpecs replaces the spec list and rebuilds every value from the
// new defaults.
func (s *Store) SetUniformSpecs(specs []uniforms.Spec) {
	s.state.UniformSpecs = uniforms.CloneSpecs(specs)
	s.state.UniformValues = uniforms.Defaults(specs)
	s.notify()
}

// SetSeed stores seed and mirrors it into u_seed when that spec exists.
func (s *Store) SetSeed(seed int) {
	s.state.Seed = seed
	if _, ok := s.state.UniformValues[SeedUniform]; ok {
		s.state.UniformValues[SeedUniform] = uniforms.Value{float64(seed)}
	}
	s.notify()
}

// SetCompileError records the latest compile diagnostic; "" clears it.
func (s *Store) SetCompileError(message string) {
	s.state.LastCompileError = message
	s.notify()
}

// RandomizeSeed draws a new seed in [0, 10000) and applies it with SetSeed.
func (s *Store) RandomizeSeed() {
	s.SetSeed(s.randomSeed())
}

// Reset restores the state of a freshly constructed store.
func (s *Store) Reset() {
	s.state = s.initialState()
	s.notify()
}
