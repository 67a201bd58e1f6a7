// Package settings persists the studio preferences as YAML, merged over
// embedded defaults on load.
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FileName is the settings file stored in the user config directory.
const FileName = "goshaderlab-settings.yaml"

// Settings holds the user preferences.
type Settings struct {
	Resolution    string `yaml:"resolution"`
	FPS           int    `yaml:"fps"`
	ColorSpace    string `yaml:"color_space"`
	UIDensity     string `yaml:"ui_density"`
	AudioInput    string `yaml:"audio_input"`
	BackendExport bool   `yaml:"backend_export"`
}

// Defaults returns the embedded default settings.
func Defaults() Settings {
	var s Settings
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		panic(fmt.Sprintf("settings: parsing embedded defaults: %v", err))
	}
	return s
}

// Dimensions maps the resolution preset to a frame size.
func (s Settings) Dimensions() (width, height int) {
	switch s.Resolution {
	case "720p":
		return 1280, 720
	case "1440p":
		return 2560, 1440
	case "4k", "2160p":
		return 3840, 2160
	}
	return 1920, 1080
}

// DefaultPath returns the settings file in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Store keeps the current settings in memory and writes every change to its
// file. File errors are logged; the in-memory settings stay authoritative.
type Store struct {
	path      string
	current   Settings
	listeners []*listener
}

type listener struct {
	fn func(Settings)
}

// Open loads path merged over the defaults. A missing or unreadable file
// leaves the defaults in place. An empty path keeps settings in memory only.
func Open(path string) *Store {
	s := &Store{path: path, current: Defaults()}
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to load settings: %v", err)
		}
		return s
	}
	merged := s.current
	if err := yaml.Unmarshal(data, &merged); err != nil {
		log.Printf("Failed to load settings: parsing %s: %v", path, err)
		return s
	}
	s.current = merged
	return s
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings { return s.current }

// Update applies fn to the settings, persists them and notifies listeners.
func (s *Store) Update(fn func(*Settings)) {
	next := s.current
	fn(&next)
	s.current = next
	s.persist()
	s.notify()
}

// Reset restores the defaults.
func (s *Store) Reset() {
	s.current = Defaults()
	s.persist()
	s.notify()
}

// Subscribe calls fn with the current settings immediately and after every
// change.
func (s *Store) Subscribe(fn func(Settings)) (unsubscribe func()) {
	l := &listener{fn: fn}
	s.listeners = append(s.listeners, l)
	fn(s.current)
	return func() {
		for i, other := range s.listeners {
			if other == l {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	for _, l := range append([]*listener(nil), s.listeners...) {
		l.fn(s.current)
	}
}

func (s *Store) persist() {
	if s.path == "" {
		return
	}
	data, err := yaml.Marshal(s.current)
	if err != nil {
		log.Printf("Failed to persist settings: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		log.Printf("Failed to persist settings: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		log.Printf("Failed to persist settings: %v", err)
	}
}
