// Package frame provides a cancellable repeating per-frame task on top of a
// host scheduler that fires callbacks at display refresh boundaries.
package frame

import "time"

// Callback receives a monotonic timestamp measured from an arbitrary origin.
type Callback func(now time.Duration)

// Handle identifies one pending request. Zero means no request.
type Handle uint64

// Scheduler runs a callback once at the next frame boundary.
type Scheduler interface {
	RequestFrame(cb Callback) Handle
	// CancelFrame drops a pending request. Unknown or zero handles are ignored.
	CancelFrame(h Handle)
}

// Loop is a repeating task. Each tick runs the body and then requests the
// next frame, until Cancel is called.
type Loop struct {
	sched   Scheduler
	body    Callback
	pending Handle
	running bool
}

func NewLoop(sched Scheduler, body Callback) *Loop {
	return &Loop{sched: sched, body: body}
}

// Start schedules the first tick. Starting a running loop cancels the pending
// tick and schedules a fresh one, so there is never more than one pending.
func (l *Loop) Start() {
	l.Cancel()
	l.running = true
	l.pending = l.sched.RequestFrame(l.tick)
}

// Cancel stops the loop. Safe to call when nothing is pending.
func (l *Loop) Cancel() {
	if l.pending != 0 {
		l.sched.CancelFrame(l.pending)
		l.pending = 0
	}
	l.running = false
}

func (l *Loop) Running() bool {
	return l.running
}

func (l *Loop) tick(now time.Duration) {
	l.pending = 0
	if !l.running {
		return
	}
	l.body(now)
	// the body may have cancelled or restarted the loop
	if l.running && l.pending == 0 {
		l.pending = l.sched.RequestFrame(l.tick)
	}
}
