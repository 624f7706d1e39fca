// README: Cooperative scheduler: every mutation runs as one serialized step.
package sched

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrInvalidPeriod = errors.New("period must be positive")

// idleWait bounds how long Run sleeps when nothing is queued.
const idleWait = time.Minute

// Loop owns a priority queue of timed tasks and a step lock. Tasks and
// callers of Do never run concurrently with each other, so state touched
// only from inside steps needs no further locking.
type Loop struct {
	clock Clock
	log   logrus.FieldLogger

	step sync.Mutex

	mu    sync.Mutex
	queue taskHeap
	byID  map[TaskID]*task
	seq   uint64
	wake  chan struct{}
}

func NewLoop(clock Clock, log logrus.FieldLogger) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loop{
		clock: clock,
		log:   log,
		byID:  make(map[TaskID]*task),
		wake:  make(chan struct{}, 1),
	}
}

func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Do runs fn as a single step. It must not be called from inside a step.
func (l *Loop) Do(fn func()) {
	l.step.Lock()
	defer l.step.Unlock()
	fn()
}

// After schedules fn to run once, d from now. Safe to call from inside a step.
func (l *Loop) After(d time.Duration, name string, fn func()) TaskID {
	return l.schedule(l.clock.Now().Add(d), 0, name, fn)
}

// Every schedules fn to run each period, the first run one period from now.
func (l *Loop) Every(period time.Duration, name string, fn func()) (TaskID, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	return l.schedule(l.clock.Now().Add(period), period, name, fn), nil
}

func (l *Loop) schedule(at time.Time, period time.Duration, name string, fn func()) TaskID {
	l.mu.Lock()
	l.seq++
	t := &task{id: TaskID(l.seq), name: name, at: at, period: period, seq: l.seq, fn: fn}
	heap.Push(&l.queue, t)
	l.byID[t.id] = t
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t.id
}

// Cancel drops a pending task. It reports false when the task already ran
// (one-shot) or never existed.
func (l *Loop) Cancel(id TaskID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.byID[id]
	if !ok {
		return false
	}
	delete(l.byID, id)
	if t.index >= 0 {
		heap.Remove(&l.queue, t.index)
	}
	return true
}

func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

func (l *Loop) next() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queue.Len() == 0 {
		return time.Time{}, false
	}
	return l.queue[0].at, true
}

// popDue removes the earliest task due at now. Recurring tasks are put back
// before they run so a step may cancel its own schedule.
func (l *Loop) popDue(now time.Time) *task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queue.Len() == 0 || l.queue[0].at.After(now) {
		return nil
	}
	t := heap.Pop(&l.queue).(*task)
	if t.period <= 0 {
		delete(l.byID, t.id)
		return t
	}
	next := t.at.Add(t.period)
	if !next.After(now) {
		// missed periods are dropped, like time.Ticker
		next = now.Add(t.period)
	}
	l.seq++
	again := &task{id: t.id, name: t.name, at: next, period: t.period, seq: l.seq, fn: t.fn}
	heap.Push(&l.queue, again)
	l.byID[t.id] = again
	return t
}

// RunDue executes, in fire-time order, every task due at the current clock
// reading and returns how many ran.
func (l *Loop) RunDue() int {
	n := 0
	for {
		t := l.popDue(l.clock.Now())
		if t == nil {
			return n
		}
		l.Do(func() { l.runTask(t) })
		n++
	}
}

func (l *Loop) runTask(t *task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{"task": t.name, "panic": r}).Error("scheduled task panicked")
		}
	}()
	t.fn()
}

// Run drives the loop on wall time until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		l.RunDue()

		wait := idleWait
		if at, ok := l.next(); ok {
			wait = at.Sub(l.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-l.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Advance moves a ManualClock forward by d, stopping at each fire time on
// the way so every task observes its own scheduled instant.
func (l *Loop) Advance(d time.Duration) {
	mc, ok := l.clock.(*ManualClock)
	if !ok {
		panic("sched: Advance requires a ManualClock")
	}
	target := mc.Now().Add(d)
	for {
		at, ok := l.next()
		if !ok || at.After(target) {
			break
		}
		mc.Set(at)
		l.RunDue()
	}
	mc.Set(target)
}
