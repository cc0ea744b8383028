package provider

import (
	"sync"

	"github.com/google/uuid"
)

type subscription struct {
	handle  SubscriptionHandle
	kind    EventKind
	handler Handler
}

// Emitter keeps provider event handlers and dispatches events to them on a
// single goroutine, in emission order.
type Emitter struct {
	mu    sync.Mutex
	subs  []subscription
	queue chan Event
	stop  chan struct{}
	once  sync.Once
}

// NewEmitter starts a dispatcher. Call Close to stop it.
func NewEmitter() *Emitter {
	e := &Emitter{
		queue: make(chan Event, 64),
		stop:  make(chan struct{}),
	}
	go e.dispatch()
	return e
}

// Subscribe registers h for events of kind.
func (e *Emitter) Subscribe(kind EventKind, h Handler) SubscriptionHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	handle := SubscriptionHandle(uuid.NewString())
	e.subs = append(e.subs, subscription{handle: handle, kind: kind, handler: h})
	return handle
}

// Unsubscribe removes a handler. It reports whether the handle was known.
func (e *Emitter) Unsubscribe(handle SubscriptionHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.handle == handle {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Emit queues ev for dispatch. It blocks while the queue is full and drops
// the event once the emitter is closed.
func (e *Emitter) Emit(ev Event) {
	select {
	case e.queue <- ev:
	case <-e.stop:
	}
}

// Close stops the dispatcher. Queued events are discarded.
func (e *Emitter) Close() {
	e.once.Do(func() { close(e.stop) })
}

func (e *Emitter) dispatch() {
	for {
		select {
		case <-e.stop:
			return
		case ev := <-e.queue:
			for _, h := range e.handlersFor(ev.Kind) {
				h(ev)
			}
		}
	}
}

func (e *Emitter) handlersFor(kind EventKind) []Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	var hs []Handler
	for _, s := range e.subs {
		if s.kind == kind {
			hs = append(hs, s.handler)
		}
	}
	return hs
}
