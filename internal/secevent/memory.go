// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package secevent

import (
	"slices"
	"sync"
	"time"
)

// Memory is a synchronous in-process [Recorder] that keeps every event.
// It backs tests and local tooling.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// Record appends the event.
func (memory *Memory) Record(name string, details Details, severity Severity) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	memory.events = append(memory.events, Event{
		Name:       name,
		Severity:   severity,
		Details:    details,
		OccurredAt: time.Now(),
	})
}

// Events returns a copy of everything recorded so far.
func (memory *Memory) Events() []Event {
	memory.mu.Lock()
	defer memory.mu.Unlock()
	return slices.Clone(memory.events)
}

// Last returns the most recent event, if any.
func (memory *Memory) Last() (Event, bool) {
	memory.mu.Lock()
	defer memory.mu.Unlock()

	if len(memory.events) == 0 {
		return Event{}, false
	}
	return memory.events[len(memory.events)-1], true
}
