// Package events provides fan out delivery of node event messages to any
// number of registered listeners, such as websocket clients.
package events

import (
	"fmt"
	"sync"
)

// Events maintains the set of registered listener channels keyed by a
// unique id so proving and aggregation events can be broadcast.
type Events struct {
	mu        sync.RWMutex
	listeners map[string]chan string
}

// New constructs an Events value for registering listeners and sending
// them messages.
func New() *Events {
	return &Events{
		listeners: make(map[string]chan string),
	}
}

// Shutdown closes and removes every channel that was handed out by Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.listeners {
		delete(evt.listeners, id)
		close(ch)
	}
}

// Acquire registers the specified id and returns a channel for receiving
// events. Calling Acquire again with the same id returns the same channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.listeners[id]; exists {
		return ch
	}

	// A slow websocket writer must not stall the proving loop, so sends
	// are non blocking and this buffer absorbs short receiver delays.
	const messageBuffer = 100

	ch := make(chan string, messageBuffer)
	evt.listeners[id] = ch
	return ch
}

// Release closes and removes the channel registered under the specified id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.listeners[id]
	if !exists {
		return fmt.Errorf("id %q is not registered", id)
	}

	delete(evt.listeners, id)
	close(ch)
	return nil
}

// Send delivers the message to every registered listener. A listener whose
// buffer is full misses the message rather than blocking the sender.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.listeners {
		select {
		case ch <- s:
		default:
		}
	}
}

// Sendf formats the message before delivering it to every listener.
func (evt *Events) Sendf(format string, args ...any) {
	evt.Send(fmt.Sprintf(format, args...))
}
