// README: Fire-time ordered task heap backing the loop.
package sched

import "time"

type TaskID uint64

type task struct {
	id     TaskID
	name   string
	at     time.Time
	period time.Duration
	seq    uint64
	fn     func()
	index  int
}

// taskHeap orders by fire time, then by insertion sequence so tasks due at
// the same instant run in the order they were scheduled.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
