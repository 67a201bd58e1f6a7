// Package procgen assembles fragment shaders from a fixed module library,
// driven by a seed. The same seed always yields byte-identical source.
package procgen

import "strings"

const (
	minModules = 2
	maxModules = 4
)

// Select draws the module count and a shuffled subset of lib. lib is not
// modified.
func Select(seed uint32, lib []Module) []Module {
	rng := NewMulberry32(seed)
	count := minModules + rng.Intn(maxModules-minModules+1)
	count = min(count, len(lib))

	shuffled := make([]Module, len(lib))
	copy(shuffled, lib)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:count]
}

// Generate returns the full fragment source for seed using Library.
func Generate(seed uint32) string {
	return GenerateFrom(seed, Library)
}

// GenerateFrom is Generate over a caller-supplied library.
func GenerateFrom(seed uint32, lib []Module) string {
	selected := Select(seed, lib)

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	for i, m := range selected {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Body)
	}
	b.WriteString("\n\n")
	b.WriteString(mainBody)
	return b.String()
}

// Mutate derives the seed used by the studio's mutate action.
func Mutate(seed uint32) uint32 {
	return seed ^ 0xDEADBEEF
}
