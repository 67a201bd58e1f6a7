package frame

import "time"

type request struct {
	handle Handle
	cb     Callback
}

// Queue is a Scheduler driven explicitly by the host: each call to Tick runs
// the callbacks requested before it. Callbacks requested while a tick is
// running wait for the next tick.
type Queue struct {
	next    Handle
	pending []request
	// handles of the running batch cancelled mid-tick
	dropped map[Handle]struct{}
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) RequestFrame(cb Callback) Handle {
	q.next++
	q.pending = append(q.pending, request{handle: q.next, cb: cb})
	return q.next
}

func (q *Queue) CancelFrame(h Handle) {
	for i, r := range q.pending {
		if r.handle == h {
			q.pending = append(q.pending[:i:i], q.pending[i+1:]...)
			return
		}
	}
	if q.dropped != nil {
		q.dropped[h] = struct{}{}
	}
}

// Tick fires the current batch of requests with timestamp now and reports how
// many ran. A request cancelled by an earlier callback in the same batch does
// not run.
func (q *Queue) Tick(now time.Duration) int {
	batch := q.pending
	q.pending = nil
	q.dropped = make(map[Handle]struct{})
	defer func() { q.dropped = nil }()

	ran := 0
	for _, r := range batch {
		if _, ok := q.dropped[r.handle]; ok {
			continue
		}
		r.cb(now)
		ran++
	}
	return ran
}

// Pending reports the number of requests waiting for the next tick.
func (q *Queue) Pending() int {
	return len(q.pending)
}
