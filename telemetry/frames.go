// Package telemetry measures frame pacing and writes periodic summaries as
// CSV.
package telemetry

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the frame intervals of one window.
type Summary struct {
	ElapsedSec float64 `csv:"elapsed_sec"`
	Frames     int     `csv:"frames"`
	MeanMS     float64 `csv:"mean_ms"`
	StdDevMS   float64 `csv:"stddev_ms"`
	P95MS      float64 `csv:"p95_ms"`
	MaxMS      float64 `csv:"max_ms"`
	FPS        float64 `csv:"fps"`
}

// FrameStats keeps the intervals between the most recent frames.
type FrameStats struct {
	windowSize int
	intervals  []float64 // ms, ring buffer
	writeIndex int
	count      int
	last       time.Duration
	started    bool
}

// NewFrameStats tracks up to windowSize intervals; 120 when windowSize < 1.
func NewFrameStats(windowSize int) *FrameStats {
	if windowSize < 1 {
		windowSize = 120
	}
	return &FrameStats{
		windowSize: windowSize,
		intervals:  make([]float64, windowSize),
	}
}

// Frame records a frame timestamp. The first call only sets the origin.
func (f *FrameStats) Frame(now time.Duration) {
	if f.started {
		f.intervals[f.writeIndex] = float64(now-f.last) / float64(time.Millisecond)
		f.writeIndex = (f.writeIndex + 1) % f.windowSize
		if f.count < f.windowSize {
			f.count++
		}
	}
	f.last = now
	f.started = true
}

// Count is the number of intervals currently in the window.
func (f *FrameStats) Count() int { return f.count }

// Summary computes statistics over the current window.
func (f *FrameStats) Summary() Summary {
	s := Summary{ElapsedSec: f.last.Seconds(), Frames: f.count}
	if f.count == 0 {
		return s
	}
	samples := slices.Clone(f.intervals[:f.count])
	slices.Sort(samples)

	s.MeanMS = stat.Mean(samples, nil)
	if f.count > 1 {
		s.StdDevMS = stat.StdDev(samples, nil)
	}
	s.P95MS = stat.Quantile(0.95, stat.Empirical, samples, nil)
	s.MaxMS = samples[len(samples)-1]
	if s.MeanMS > 0 {
		s.FPS = 1000 / s.MeanMS
	}
	return s
}

// Reset empties the window but keeps the last timestamp as origin.
func (f *FrameStats) Reset() {
	f.count = 0
	f.writeIndex = 0
}
