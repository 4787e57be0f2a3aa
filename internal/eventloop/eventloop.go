// Package eventloop implements the host's job queues (spec §4.6, §5):
// a microtask queue drained to empty between every macrotask and a timer
// heap for setTimeout/setInterval. No goroutine is started: Run and RunOnce
// wait for the next due timer on the calling goroutine.
package eventloop

import (
	"container/heap"
	"sync"
	"time"
)

type Microtask func()

// Macrotask is a job with an associated timer id (0 for non-timer jobs like
// queued I/O callbacks) so clearTimeout/clearInterval can cancel it before
// it fires.
type Macrotask struct {
	ID       uint32
	Fn       func()
	Repeats  bool
	Interval time.Duration
}

type timerEntry struct {
	id      uint32
	fireAt  time.Time
	task    Macrotask
	index   int
	cancelled bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) { e := x.(*timerEntry); e.index = len(*h); *h = append(*h, e) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Loop owns the microtask queue, the timer heap, and a count of outstanding
// timers that HasPendingWork reports; Run itself stops once the heap is empty.
type Loop struct {
	mu sync.Mutex

	microtasks []Microtask
	timers     timerHeap
	timerByID  map[uint32]*timerEntry
	nextID     uint32

	wake chan struct{}

	// InlineThreshold is the wait at or below which Run/RunOnce use
	// time.Sleep instead of a time.Timer; both block the calling goroutine.
	// Nothing in the engine sets it, so it stays at zero.
	InlineThreshold time.Duration

	outstanding int
}

func NewLoop() *Loop {
	return &Loop{
		timerByID: make(map[uint32]*timerEntry),
		wake:      make(chan struct{}, 1),
	}
}

// QueueMicrotask implements spec's EnqueueJob for the promise/microtask
// queue: queueMicrotask, Promise reaction jobs, async function resumption.
func (l *Loop) QueueMicrotask(fn Microtask) {
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
}

// DrainMicrotasks runs every queued microtask to completion, including ones
// newly queued by a microtask while draining — spec requires the queue to
// be fully emptied before the next macrotask runs.
func (l *Loop) DrainMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.microtasks[0]
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()
		task()
	}
}

// SetTimer implements setTimeout/setInterval: it schedules fn to run on the
// loop goroutine after delay (or every interval if repeats), returning a
// cancellable id.
func (l *Loop) SetTimer(delay time.Duration, repeats bool, fn func()) uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	entry := &timerEntry{
		id:     id,
		fireAt: time.Now().Add(delay),
		task:   Macrotask{ID: id, Fn: fn, Repeats: repeats, Interval: delay},
	}
	heap.Push(&l.timers, entry)
	l.timerByID[id] = entry
	l.outstanding++
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return id
}

func (l *Loop) ClearTimer(id uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.timerByID[id]; ok && !entry.cancelled {
		entry.cancelled = true
		delete(l.timerByID, id)
		l.outstanding--
	}
}

// Run drives the loop until there are no pending timers and the microtask
// queue is empty: DrainMicrotasks after every fired timer, matching spec's
// "perform a microtask checkpoint" after each task.
func (l *Loop) Run() {
	for {
		l.DrainMicrotasks()

		l.mu.Lock()
		if len(l.timers) == 0 {
			l.mu.Unlock()
			return
		}
		next := l.timers[0]
		wait := time.Until(next.fireAt)
		l.mu.Unlock()

		if wait > 0 {
			if wait <= l.InlineThreshold {
				time.Sleep(wait)
			} else {
				timer := time.NewTimer(wait)
				<-timer.C
			}
		}

		l.mu.Lock()
		if len(l.timers) == 0 {
			l.mu.Unlock()
			continue
		}
		entry := heap.Pop(&l.timers).(*timerEntry)
		if entry.cancelled {
			l.mu.Unlock()
			continue
		}
		delete(l.timerByID, entry.id)
		l.outstanding--
		if entry.task.Repeats {
			entry.fireAt = time.Now().Add(entry.task.Interval)
			entry.cancelled = false
			heap.Push(&l.timers, entry)
			l.timerByID[entry.id] = entry
			l.outstanding++
		}
		fn := entry.task.Fn
		l.mu.Unlock()

		fn()
	}
}

// RunOnce fires at most one due timer (sleeping until it's due first if
// needed) and reports whether it took an entry off the heap; a cancelled
// entry is dropped without firing and still reports true. Callers that need to pump the loop
// from inside a blocking wait (await's synchronous drain, see
// internal/evaluator) use this instead of Run so they stop as soon as
// nothing more is scheduled rather than looping forever.
func (l *Loop) RunOnce() bool {
	l.mu.Lock()
	if len(l.timers) == 0 {
		l.mu.Unlock()
		return false
	}
	next := l.timers[0]
	wait := time.Until(next.fireAt)
	l.mu.Unlock()

	if wait > 0 {
		if wait <= l.InlineThreshold {
			time.Sleep(wait)
		} else {
			timer := time.NewTimer(wait)
			<-timer.C
		}
	}

	l.mu.Lock()
	if len(l.timers) == 0 {
		l.mu.Unlock()
		return false
	}
	entry := heap.Pop(&l.timers).(*timerEntry)
	if entry.cancelled {
		l.mu.Unlock()
		return true
	}
	delete(l.timerByID, entry.id)
	l.outstanding--
	if entry.task.Repeats {
		entry.fireAt = time.Now().Add(entry.task.Interval)
		entry.cancelled = false
		heap.Push(&l.timers, entry)
		l.timerByID[entry.id] = entry
		l.outstanding++
	}
	fn := entry.task.Fn
	l.mu.Unlock()

	fn()
	l.DrainMicrotasks()
	return true
}

// HasPendingWork reports whether the loop would still do anything if Run
// were called — used by an embedding host's own event loop integration to
// decide whether to keep the process alive.
func (l *Loop) HasPendingWork() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.microtasks) > 0 || l.outstanding > 0
}
