package game

import (
	"container/heap"
	"time"
)

type scheduledEvent struct {
	at   time.Time
	seq  uint64
	name string
	fn   func(now time.Time)
}

type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*scheduledEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Schedule holds the pending timed events of a room: respawns and delayed
// evictions. Events run on the room goroutine during a tick, earliest first,
// ties in the order they were scheduled.
type Schedule struct {
	events eventHeap
	seq    uint64
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

// At arms fn to run at the first tick at or after when.
func (s *Schedule) At(when time.Time, name string, fn func(now time.Time)) {
	s.seq++
	heap.Push(&s.events, &scheduledEvent{at: when, seq: s.seq, name: name, fn: fn})
}

// RunDue runs every event due at now and returns how many ran. Events
// scheduled by a running event for a time not after now run in the same call.
func (s *Schedule) RunDue(now time.Time) int {
	ran := 0
	for len(s.events) > 0 && !s.events[0].at.After(now) {
		e := heap.Pop(&s.events).(*scheduledEvent)
		e.fn(now)
		ran++
	}
	return ran
}

// Clear drops every pending event.
func (s *Schedule) Clear() {
	s.events = nil
}

func (s *Schedule) Len() int {
	return len(s.events)
}
