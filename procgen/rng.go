package procgen

// Mulberry32 is a 32-bit pseudo-random generator. Its output stream is fully
// determined by the seed, on every platform.
type Mulberry32 struct {
	state uint32
}

func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the state and returns the next 32-bit output.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns the next draw in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / (1 << 32)
}

// Intn returns floor(Float64() * n).
func (m *Mulberry32) Intn(n int) int {
	return int(m.Float64() * float64(n))
}
