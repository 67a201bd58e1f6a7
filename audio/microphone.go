package audio

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
)

// chunkBacklog is the number of captured chunks buffered for a slow reader.
const chunkBacklog = 16

// Microphone captures mono audio from the default input device.
type Microphone struct {
	rate    int
	stream  *portaudio.Stream
	chunks  chan []float32
	dropped int
}

// NewMicrophone initializes portaudio; Stop terminates it again.
func NewMicrophone(sampleRate int) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &Microphone{rate: sampleRate}, nil
}

func (m *Microphone) capture(in []float32) {
	// portaudio reuses in between callbacks.
	chunk := append([]float32(nil), in...)
	select {
	case m.chunks <- chunk:
	default:
		m.dropped++
		if m.dropped%100 == 1 {
			log.Printf("Audio reader is behind, %d chunks dropped", m.dropped)
		}
	}
}

func (m *Microphone) Start() (<-chan []float32, error) {
	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, err
	}
	if host.DefaultInputDevice == nil {
		return nil, fmt.Errorf("no default audio input device")
	}

	params := portaudio.HighLatencyParameters(host.DefaultInputDevice, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(m.rate)

	m.chunks = make(chan []float32, chunkBacklog)
	stream, err := portaudio.OpenStream(params, m.capture)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	m.stream = stream
	log.Printf("Capturing %s at %d Hz", host.DefaultInputDevice.Name, m.rate)
	return m.chunks, nil
}

// Stop closes the stream and the chunk channel and terminates portaudio.
func (m *Microphone) Stop() error {
	var err error
	if m.stream != nil {
		err = m.stream.Close()
		m.stream = nil
		close(m.chunks)
		log.Printf("Microphone capture stopped")
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func (m *Microphone) SampleRate() int { return m.rate }

var _ Device = (*Microphone)(nil)
