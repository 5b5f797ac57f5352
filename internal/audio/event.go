package audio

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// EventKind identifies which NotificationClient method an Event is for.
type EventKind int

const (
	EventDefaultDeviceChanged EventKind = iota + 1
	EventDeviceAdded
	EventDeviceRemoved
	EventDeviceStateChanged
	EventPropertyValueChanged
)

func (k EventKind) String() string {
	switch k {
	case EventDefaultDeviceChanged:
		return "default-device-changed"
	case EventDeviceAdded:
		return "device-added"
	case EventDeviceRemoved:
		return "device-removed"
	case EventDeviceStateChanged:
		return "device-state-changed"
	case EventPropertyValueChanged:
		return "property-value-changed"
	}
	return "unknown"
}

// Event is one platform notification, captured on the platform's thread.
type Event struct {
	Kind     EventKind
	DeviceID string
	Flow     DataFlow
	Role     Role
	State    DeviceState
	Key      PropertyKey
}

// Deliver calls the NotificationClient method matching e.Kind.
func (e Event) Deliver(c NotificationClient) {
	switch e.Kind {
	case EventDefaultDeviceChanged:
		c.OnDefaultDeviceChanged(e.Flow, e.Role, e.DeviceID)
	case EventDeviceAdded:
		c.OnDeviceAdded(e.DeviceID)
	case EventDeviceRemoved:
		c.OnDeviceRemoved(e.DeviceID)
	case EventDeviceStateChanged:
		c.OnDeviceStateChanged(e.DeviceID, e.State)
	case EventPropertyValueChanged:
		c.OnPropertyValueChanged(e.DeviceID, e.Key)
	}
}

// DefaultQueueSize is the number of undelivered events a Queue buffers
// before it starts dropping.
const DefaultQueueSize = 64

// Queue hands events from platform callback threads to a single dispatcher
// goroutine, so the client sees one event at a time in arrival order.
// Post never blocks: a platform thread must not wait on the client.
type Queue struct {
	client NotificationClient
	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
}

// NewQueue starts the dispatcher. Close must be called to stop it.
func NewQueue(client NotificationClient, size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	q := &Queue{
		client: client,
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
	go q.dispatch()
	return q
}

// Post enqueues ev. It returns false if the queue is closed or full.
func (q *Queue) Post(ev Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.events <- ev:
		return true
	default:
		n := q.dropped.Add(1)
		log.Warn().Str("event", ev.Kind.String()).Str("device_id", ev.DeviceID).Uint64("dropped_total", n).Msg("Notification queue full, dropping event")
		return false
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops accepting events, delivers what is already queued and waits
// for the dispatcher to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) dispatch() {
	defer close(q.done)
	for ev := range q.events {
		q.deliver(ev)
	}
}

func (q *Queue) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", ev.Kind.String()).Msg("Notification client panicked")
		}
	}()
	ev.Deliver(q.client)
}
