package events

import (
	"sync"
	"time"
)

// Type tags the shape of an event's Payload.
type Type string

const (
	TransporterUpdate       Type = "transporter_update"
	TransporterStatusUpdate Type = "transporter_status_update"
	WorkloadUpdate          Type = "workload_update"
	TransportStatusUpdate   Type = "transport_status_update"
	TransportCompleted      Type = "transport_completed"
	TransportLog            Type = "transport_log"
	NewTransporter          Type = "new_transporter"
	ClockTick               Type = "clock_tick"
	SimulationEvent         Type = "simulation_event"
)

// Event is a single outbound notification. Payload is a JSON-shaped map
// keyed by field name, matching the wire contract external presentation
// layers consume; Go callers typically build one with the New* helpers
// below rather than constructing the map by hand.
type Event struct {
	Type      Type
	Timestamp time.Time
	Payload   map[string]any
}

func newEvent(t Type, payload map[string]any) *Event {
	return &Event{Type: t, Timestamp: time.Now(), Payload: payload}
}

// NewTransporterUpdate reports a transporter's planned path and per-edge
// travel durations (simulated seconds), emitted once up front so a UI can
// animate the whole leg.
func NewTransporterUpdate(name string, path []string, durations []float64) *Event {
	return newEvent(TransporterUpdate, map[string]any{
		"name": name, "path": path, "durations": durations,
	})
}

// NewTransporterStatusUpdate reports an active/inactive/resting/idle
// status change for a transporter.
func NewTransporterStatusUpdate(name, status string) *Event {
	return newEvent(TransporterStatusUpdate, map[string]any{
		"name": name, "status": status,
	})
}

// NewWorkloadUpdate reports a transporter's current cumulative workload.
func NewWorkloadUpdate(name string, workload float64) *Event {
	return newEvent(WorkloadUpdate, map[string]any{
		"name": name, "workload": workload,
	})
}

// NewTransportStatusUpdate reports a request's lifecycle status change.
func NewTransportStatusUpdate(requestID, status string) *Event {
	return newEvent(TransportStatusUpdate, map[string]any{
		"request": requestID, "status": status,
	})
}

// NewTransportCompleted reports a completed request: the worker, the
// request's origin, and its destination.
func NewTransportCompleted(worker, origin, destination string) *Event {
	return newEvent(TransportCompleted, map[string]any{
		"worker": worker, "origin": origin, "destination": destination,
	})
}

// NewTransportLog carries a free-form operational message.
func NewTransportLog(message string) *Event {
	return newEvent(TransportLog, map[string]any{"message": message})
}

// NewTransporterJoined reports a transporter added to the fleet.
func NewTransporterJoined(name, location string) *Event {
	return newEvent(NewTransporter, map[string]any{
		"name": name, "location": location,
	})
}

// NewClockTick carries the current simulated time.
func NewClockTick(simTime float64) *Event {
	return newEvent(ClockTick, map[string]any{"sim_time": simTime})
}

// NewSimulationEvent carries an arbitrary simulator notification (started,
// stopped, request generated).
func NewSimulationEvent(fields map[string]any) *Event {
	return newEvent(SimulationEvent, fields)
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker fans published events out to every current subscriber. Publish
// never blocks on a subscriber: a subscriber whose buffer is full simply
// misses the event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker. Call Start before Publish.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the distribution loop. Subscriber channels are left open;
// callers should Unsubscribe explicitly.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := make(Subscriber, 128)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes and closes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish delivers event to every subscriber. It never blocks the
// caller: delivery failures (a saturated broker, a stopped broker) are
// simply dropped, matching the sink's fire-and-forget contract.
func (b *Broker) Publish(event *Event) {
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	default:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
