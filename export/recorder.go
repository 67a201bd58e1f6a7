// Package export renders a fixed number of frames at a fixed frame rate and
// streams the pixels to a Sink, typically an ffmpeg process.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/richinsley/goshaderlab/frame"
	"github.com/richinsley/goshaderlab/graphics"
)

// Sink receives tightly packed RGBA8 frames, bottom row first.
type Sink interface {
	WriteFrame(rgba []byte) error
	Close() error
}

// Recorder drives a frame.Queue with synthetic timestamps, so the output
// does not depend on how fast frames render.
type Recorder struct {
	Queue  *frame.Queue
	Reader graphics.PixelReader
	Width  int
	Height int
	FPS    int
	// AfterFrame, when set, runs after each frame is read back, for example
	// to swap buffers of a visible window.
	AfterFrame func()
}

// FrameCount is the number of frames covering duration.
func (r *Recorder) FrameCount(duration time.Duration) int {
	if r.FPS <= 0 || duration <= 0 {
		return 0
	}
	return int(math.Ceil(duration.Seconds() * float64(r.FPS)))
}

// Record renders duration worth of frames into sink and closes it. It
// returns the number of frames written.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, sink Sink) (int, error) {
	if r.Width <= 0 || r.Height <= 0 || r.FPS <= 0 {
		sink.Close()
		return 0, fmt.Errorf("invalid recording format %dx%d@%d", r.Width, r.Height, r.FPS)
	}

	total := r.FrameCount(duration)
	buf := make([]byte, r.Width*r.Height*4)
	written := 0
	var err error
	for i := 0; i < total; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		now := time.Duration(i) * time.Second / time.Duration(r.FPS)
		if r.Queue.Tick(now) == 0 {
			err = errors.New("nothing scheduled a frame; is the renderer started?")
			break
		}
		if err = r.Reader.ReadPixels(r.Width, r.Height, buf); err != nil {
			break
		}
		if err = sink.WriteFrame(buf); err != nil {
			break
		}
		if r.AfterFrame != nil {
			r.AfterFrame()
		}
		written++
	}

	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	log.Printf("Recorded %d/%d frames", written, total)
	return written, err
}
