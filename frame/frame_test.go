package frame

import (
	"testing"
	"time"
)

func TestLoopReschedulesEachTick(t *testing.T) {
	q := NewQueue()
	var stamps []time.Duration
	l := NewLoop(q, func(now time.Duration) { stamps = append(stamps, now) })
	l.Start()

	for i := 1; i <= 3; i++ {
		q.Tick(time.Duration(i) * time.Millisecond)
	}
	if len(stamps) != 3 {
		t.Fatalf("got %d ticks, want 3", len(stamps))
	}
	if stamps[2] != 3*time.Millisecond {
		t.Errorf("last timestamp %v", stamps[2])
	}
	if q.Pending() != 1 {
		t.Errorf("pending = %d, want 1", q.Pending())
	}
}

func TestLoopStartIsIdempotent(t *testing.T) {
	q := NewQueue()
	n := 0
	l := NewLoop(q, func(time.Duration) { n++ })
	l.Start()
	l.Start()
	l.Start()
	if q.Pending() != 1 {
		t.Fatalf("pending = %d after repeated Start, want 1", q.Pending())
	}
	q.Tick(0)
	if n != 1 {
		t.Errorf("body ran %d times, want 1", n)
	}
}

func TestLoopCancel(t *testing.T) {
	q := NewQueue()
	n := 0
	l := NewLoop(q, func(time.Duration) { n++ })

	l.Cancel() // nothing pending
	l.Start()
	q.Tick(0)
	l.Cancel()
	l.Cancel()
	if l.Running() {
		t.Error("loop still running after Cancel")
	}
	if q.Pending() != 0 {
		t.Errorf("pending = %d after Cancel", q.Pending())
	}
	q.Tick(time.Millisecond)
	if n != 1 {
		t.Errorf("body ran %d times, want 1", n)
	}
}

func TestLoopCancelFromBody(t *testing.T) {
	q := NewQueue()
	var l *Loop
	n := 0
	l = NewLoop(q, func(time.Duration) {
		n++
		l.Cancel()
	})
	l.Start()
	q.Tick(0)
	q.Tick(1)
	if n != 1 || q.Pending() != 0 {
		t.Errorf("ran %d, pending %d", n, q.Pending())
	}
}

func TestQueueCancelWithinBatch(t *testing.T) {
	q := NewQueue()
	ran := map[string]bool{}
	var second Handle
	q.RequestFrame(func(time.Duration) {
		ran["first"] = true
		q.CancelFrame(second)
	})
	second = q.RequestFrame(func(time.Duration) { ran["second"] = true })

	if got := q.Tick(0); got != 1 {
		t.Errorf("Tick ran %d callbacks, want 1", got)
	}
	if !ran["first"] || ran["second"] {
		t.Errorf("ran = %v", ran)
	}
}
