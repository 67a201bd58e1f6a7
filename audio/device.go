package audio

// Microphone capture uses portaudio.
// macos:	brew install portaudio
// debian:	sudo apt-get install portaudio19-dev
// windows:	pacman -S mingw-w64-x86_64-portaudio

// Device produces a stream of mono float32 sample chunks.
type Device interface {
	// Start begins capture and returns a receive-only channel of chunks.
	Start() (<-chan []float32, error)
	// Stop terminates capture and closes the channel.
	Stop() error
	SampleRate() int
}

// NullDevice is a silent Device, used when audio input is off.
type NullDevice struct {
	rate int
	ch   chan []float32
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{rate: sampleRate}
}

// Start returns a channel that stays open and silent until Stop.
func (d *NullDevice) Start() (<-chan []float32, error) {
	d.ch = make(chan []float32)
	return d.ch, nil
}

func (d *NullDevice) Stop() error {
	if d.ch != nil {
		close(d.ch)
		d.ch = nil
	}
	return nil
}

func (d *NullDevice) SampleRate() int { return d.rate }
