package audio

import (
	"log"
	"math"
	"sync"

	fft "github.com/mjibson/go-dsp/fft"
	"github.com/richinsley/goshaderlab/store"
	"github.com/richinsley/goshaderlab/uniforms"
)

const (
	fftSize     = 2048
	historySize = fftSize * 4

	minDecibels = -100.0
	maxDecibels = -30.0
)

// Uniform names fed from the analyzer when the current specs declare them.
const (
	LevelUniform  = "u_audio"
	BassUniform   = "u_bass"
	MidUniform    = "u_mid"
	TrebleUniform = "u_treble"
)

// Levels summarize the most recent audio, each in [0, 1].
type Levels struct {
	Level  float64 // peak-equivalent amplitude of the signal
	Bass   float64 // 20 Hz - 250 Hz
	Mid    float64 // 250 Hz - 2 kHz
	Treble float64 // 2 kHz - 8 kHz
}

// Apply writes the levels into the store for every audio uniform the
// current specs declare. It reports whether anything was written.
func (l Levels) Apply(s *store.Store) bool {
	candidates := map[string]float64{
		LevelUniform:  l.Level,
		BassUniform:   l.Bass,
		MidUniform:    l.Mid,
		TrebleUniform: l.Treble,
	}
	values := make(uniforms.ValueMap)
	for _, spec := range s.State().UniformSpecs {
		if v, ok := candidates[spec.Name]; ok {
			values[spec.Name] = uniforms.Value{v}
		}
	}
	if len(values) == 0 {
		return false
	}
	s.SetUniforms(values)
	return true
}

// Analyzer keeps a rolling history of samples and reduces it to Levels.
// Writes may come from any goroutine; Levels is meant for the render thread.
type Analyzer struct {
	// Smoothing is the weight of the previous band value, in [0, 1).
	Smoothing float64

	sampleRate int
	window     []float64

	mutex   sync.Mutex
	history []float32
	pos     int

	last Levels
}

func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{
		Smoothing:  0.8,
		sampleRate: sampleRate,
		window:     blackmanWindow(fftSize),
		history:    make([]float32, historySize),
	}
}

// Listen consumes chunks from ch on its own goroutine until ch is closed.
// The returned channel is closed when the listener exits.
func (a *Analyzer) Listen(ch <-chan []float32) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for samples := range ch {
			a.Write(samples)
		}
		log.Printf("Audio channel closed. Analyzer listener exiting.")
	}()
	return done
}

// Write appends samples to the history.
func (a *Analyzer) Write(samples []float32) {
	a.mutex.Lock()
	for _, s := range samples {
		a.history[a.pos] = s
		a.pos = (a.pos + 1) % historySize
	}
	a.mutex.Unlock()
}

func (a *Analyzer) recent(n int) []float32 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make([]float32, n)
	for i := range out {
		out[i] = a.history[(a.pos-n+i+historySize)%historySize]
	}
	return out
}

// Levels analyzes the latest fftSize samples.
func (a *Analyzer) Levels() Levels {
	samples := a.recent(fftSize)

	var sumSquares float64
	windowed := make([]float64, fftSize)
	for i, s := range samples {
		sumSquares += float64(s) * float64(s)
		windowed[i] = float64(s) * a.window[i]
	}
	rms := math.Sqrt(sumSquares / fftSize)

	spectrum := fft.FFTReal(windowed)
	binHz := float64(a.sampleRate) / fftSize
	band := func(lo, hi float64) float64 {
		first := max(1, int(math.Ceil(lo/binHz)))
		last := min(fftSize/2-1, int(math.Floor(hi/binHz)))
		if last < first {
			return 0
		}
		var sum float64
		for i := first; i <= last; i++ {
			re, im := real(spectrum[i]), imag(spectrum[i])
			magnitude := math.Sqrt(re*re+im*im) * (2.0 / fftSize)
			sum += scaleDecibels(20 * math.Log10(magnitude+1e-9))
		}
		return sum / float64(last-first+1)
	}

	next := Levels{
		Level:  math.Min(1, rms*math.Sqrt2),
		Bass:   band(20, 250),
		Mid:    band(250, 2000),
		Treble: band(2000, 8000),
	}
	k := a.Smoothing
	a.last = Levels{
		Level:  next.Level,
		Bass:   k*a.last.Bass + (1-k)*next.Bass,
		Mid:    k*a.last.Mid + (1-k)*next.Mid,
		Treble: k*a.last.Treble + (1-k)*next.Treble,
	}
	return a.last
}

func scaleDecibels(db float64) float64 {
	switch {
	case db < minDecibels:
		return 0
	case db > maxDecibels:
		return 1
	}
	return (db - minDecibels) / (maxDecibels - minDecibels)
}

// blackmanWindow generates a Blackman window.
func blackmanWindow(size int) []float64 {
	window := make([]float64, size)
	a0 := 0.42
	a1 := 0.5
	a2 := 0.08
	invSize := 1.0 / float64(size-1)
	for i := range window {
		t := float64(i) * invSize
		window[i] = a0 - (a1 * math.Cos(2*math.Pi*t)) + (a2 * math.Cos(4*math.Pi*t))
	}
	return window
}
