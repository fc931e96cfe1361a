package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/dispatcher/pkg/clock"
	"github.com/cuemby/dispatcher/pkg/events"
	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/strategy"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// Config configures a Dispatcher at startup. Fields mirror the
// configuration contract: speed factor, re-plan coalescing window, ILP
// solver timeout, and the per-worker rest parameters applied to every
// transporter added after construction.
type Config struct {
	Graph                *graph.Graph
	SpeedFactor          float64
	ReplanCoalesceWindow time.Duration
	ILPTimeout           time.Duration
	RestThreshold        float64
	RestDuration         float64 // simulated seconds
	Strategy             strategy.Strategy
}

// Dispatcher orchestrates request intake, re-planning, and per-worker
// movement. mu is the single dispatcher lock: it guards fleet and
// request membership and plan application; it is never held across a
// blocking operation (a strategy solve, a movement sleep).
type Dispatcher struct {
	mu sync.Mutex

	graph     *graph.Graph
	fleet     map[string]*transporter.Transporter
	workerCtx map[string]context.Context
	requests  map[string]*request.Request
	strategy  strategy.Strategy
	version   uint64

	planning bool
	dirty    bool

	speedFactor          float64
	replanCoalesceWindow time.Duration
	ilpTimeout           time.Duration
	restThreshold        float64
	restDuration         float64 // simulated seconds

	clock  *clock.Clock
	broker *events.Broker

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

// New creates a Dispatcher. Start begins its clock tick and is separate
// so callers can subscribe to the event broker first.
func New(cfg Config) *Dispatcher {
	speed := cfg.SpeedFactor
	if speed <= 0 {
		speed = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		graph:                cfg.Graph,
		fleet:                make(map[string]*transporter.Transporter),
		workerCtx:            make(map[string]context.Context),
		requests:             make(map[string]*request.Request),
		strategy:             cfg.Strategy,
		speedFactor:          speed,
		replanCoalesceWindow: cfg.ReplanCoalesceWindow,
		ilpTimeout:           cfg.ILPTimeout,
		restThreshold:        cfg.RestThreshold,
		restDuration:         cfg.RestDuration,
		clock:                clock.New(speed),
		broker:               events.NewBroker(),
		baseCtx:              ctx,
		baseCancel:           cancel,
	}
	return d
}

// Start begins the event broker and the clock's periodic tick.
func (d *Dispatcher) Start() {
	d.broker.Start()
	d.clock.Tick(100*time.Millisecond, func(simTime float64) {
		d.broker.Publish(events.NewClockTick(simTime))
	})
}

// Stop tears down the clock, cancels every in-flight movement, and stops
// the event broker.
func (d *Dispatcher) Stop() {
	d.baseCancel()
	d.clock.Stop()
	d.broker.Stop()
}

// EventBroker exposes the outbound event sink (C9) for subscribers.
func (d *Dispatcher) EventBroker() *events.Broker {
	return d.broker
}

// Graph returns the (read-only after startup) hospital graph.
func (d *Dispatcher) Graph() *graph.Graph {
	return d.graph
}

// Transporters returns a consistent snapshot of every registered worker.
func (d *Dispatcher) Transporters() []transporter.Snapshot {
	d.mu.Lock()
	fleet := make([]*transporter.Transporter, 0, len(d.fleet))
	for _, t := range d.fleet {
		fleet = append(fleet, t)
	}
	d.mu.Unlock()

	out := make([]transporter.Snapshot, len(fleet))
	for i, t := range fleet {
		out[i] = t.Snapshot()
	}
	return out
}

// Requests returns a consistent snapshot of every known request,
// including terminal ones (callers filter as needed).
func (d *Dispatcher) Requests() []request.Snapshot {
	d.mu.Lock()
	reqs := make([]*request.Request, 0, len(d.requests))
	for _, r := range d.requests {
		reqs = append(reqs, r)
	}
	d.mu.Unlock()

	out := make([]request.Snapshot, len(reqs))
	for i, r := range reqs {
		out[i] = r.Snapshot()
	}
	return out
}

// assignableRequestsLocked returns every request a re-plan may place:
// pending requests, plus ongoing requests whose worker has not yet
// departed for the origin. Caller must hold mu.
func (d *Dispatcher) assignableRequestsLocked() []*request.Request {
	out := make([]*request.Request, 0, len(d.requests))
	for _, r := range d.requests {
		if r.IsReassignable() {
			out = append(out, r)
		}
	}
	return out
}

// workerContext returns the per-worker cancellation context created when
// the worker was added, or the dispatcher's base context if unknown.
func (d *Dispatcher) workerContext(name string) context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ctx, ok := d.workerCtx[name]; ok {
		return ctx
	}
	return d.baseCtx
}

func (d *Dispatcher) activeFleetLocked() []*transporter.Transporter {
	out := make([]*transporter.Transporter, 0, len(d.fleet))
	for _, t := range d.fleet {
		out = append(out, t)
	}
	return out
}
