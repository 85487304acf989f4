// File: internal/concurrency/eventloop.go
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop is the agent's async telemetry sink: Logger/Metrics/Tracer calls
// that would otherwise touch I/O on the cooperative do_work path instead
// Push an api.Event here, and a dedicated goroutine drains it in batches.
// This keeps the hot path non-blocking while still giving observability
// backends ordered, batched delivery.
//
// Backed by a lock-free MPMC ring (LockFreeQueue) rather than a channel, so
// Push never contends with the drain goroutine beyond a handful of atomics.

package concurrency

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/rtc-agent/api"
)

type Event = api.Event

type EventHandler interface {
	// HandleEvent processes a single Event.
	HandleEvent(ev Event)
}

// EventLoop implements a batched, lock-free poller with dynamic handler registration.
type EventLoop struct {
	handlers   atomic.Value // stores []EventHandler slice (atomically swapped)
	handlersMu sync.Mutex   // protects writes to handlers slice
	inbox      *LockFreeQueue[Event]
	batchSize  int
	quitCh     chan struct{}
	doneCh     chan struct{}
	running    atomic.Bool
}

// NewEventLoop creates a new EventLoop with batchSize and ringCapacity parameters.
func NewEventLoop(batchSize, ringCapacity int) *EventLoop {
	el := &EventLoop{
		inbox:     NewLockFreeQueue[Event](ringCapacity),
		batchSize: batchSize,
		quitCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	el.handlers.Store([]EventHandler{})
	return el
}

// RegisterHandler adds a new event handler atomically and safely.
func (el *EventLoop) RegisterHandler(h EventHandler) {
	el.handlersMu.Lock()
	defer el.handlersMu.Unlock()
	oldHandlers := el.handlers.Load().([]EventHandler)
	newHandlers := make([]EventHandler, len(oldHandlers)+1)
	copy(newHandlers, oldHandlers)
	newHandlers[len(oldHandlers)] = h
	el.handlers.Store(newHandlers)
}

// UnregisterHandler removes a handler safely, if present.
func (el *EventLoop) UnregisterHandler(h EventHandler) {
	el.handlersMu.Lock()
	defer el.handlersMu.Unlock()
	oldHandlers := el.handlers.Load().([]EventHandler)
	newHandlers := make([]EventHandler, 0, len(oldHandlers))
	for _, handler := range oldHandlers {
		if handler != h {
			newHandlers = append(newHandlers, handler)
		}
	}
	el.handlers.Store(newHandlers)
}

// Run starts the event loop which batches events and dispatches them to handlers.
// It runs until Stop is called.
func (el *EventLoop) Run() {
	if !el.running.CompareAndSwap(false, true) {
		return // Already running
	}
	defer func() {
		close(el.doneCh)
		el.running.Store(false)
	}()

	batch := make([]Event, 0, el.batchSize)
	backoff := time.Nanosecond
	const maxBackoff = time.Millisecond

	for {
		batch = batch[:0]
		for i := 0; i < el.batchSize; i++ {
			ev, ok := el.inbox.Dequeue()
			if !ok {
				break
			}
			batch = append(batch, ev)
		}

		if len(batch) == 0 {
			select {
			case <-el.quitCh:
				return
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}

		handlers := el.handlers.Load().([]EventHandler)
		for _, ev := range batch {
			for _, handler := range handlers {
				handler.HandleEvent(ev)
			}
		}
		backoff = time.Nanosecond
	}
}

// Pending returns approximate count of buffered events waiting in inbox.
func (el *EventLoop) Pending() int {
	return el.inbox.Len()
}

// Push adds an event to the event loop's inbox for processing.
// Non-blocking, returns false if inbox is full.
func (el *EventLoop) Push(ev Event) bool {
	return el.inbox.Enqueue(ev)
}

// Stop signals the Run loop to exit and waits for completion.
func (el *EventLoop) Stop() {
	select {
	case <-el.quitCh:
		// already closed
	default:
		close(el.quitCh)
	}
	if el.running.Load() {
		<-el.doneCh
	}
}
