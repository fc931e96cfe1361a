package dispatcher

import (
	"context"

	"github.com/google/uuid"

	"github.com/cuemby/dispatcher/pkg/events"
	"github.com/cuemby/dispatcher/pkg/metrics"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/strategy"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// AddTransporter registers a new worker, active, standing at the lounge.
// It starts that worker's background workload-decay loop and schedules a
// re-plan (fleet grew).
func (d *Dispatcher) AddTransporter(name string) (string, *Error) {
	if name == "" {
		return "", validationErr("transporter name must not be empty")
	}

	d.mu.Lock()
	if _, exists := d.fleet[name]; exists {
		d.mu.Unlock()
		return "", validationErr("transporter %q already exists", name)
	}
	t := transporter.New(name, d.restThreshold, d.restDuration)
	ctx, cancel := context.WithCancel(d.baseCtx)
	t.BindCancel(cancel)
	d.fleet[name] = t
	d.workerCtx[name] = ctx
	d.version++
	d.mu.Unlock()

	go d.runDecayLoop(ctx, t)
	d.broker.Publish(events.NewTransporterJoined(name, transporter.LoungeNode))
	d.triggerReplan()

	return transporter.LoungeNode, nil
}

// RemoveTransporter deregisters a worker. Its in-flight movement is
// cancelled at the next edge boundary; a pinned current task is aborted
// (cancelled, per the movement error policy) since no other worker can
// take over work already committed to it. Queued-but-not-started
// requests remain Pending in the master set and are picked up by the
// next re-plan.
func (d *Dispatcher) RemoveTransporter(name string) *Error {
	d.mu.Lock()
	t, ok := d.fleet[name]
	if !ok {
		d.mu.Unlock()
		return validationErr("transporter %q not found", name)
	}
	delete(d.fleet, name)
	delete(d.workerCtx, name)
	d.version++
	d.mu.Unlock()

	t.SetInactive()
	t.Cancel()

	if cur := t.CurrentTask(); cur != nil {
		cur.MarkCancelled()
		t.SetCurrentTask(nil)
		d.broker.Publish(events.NewTransportLog("transporter " + name + " removed mid-task; aborting " + cur.ID))
	}
	t.SetQueue(nil)
	return nil
}

// SetTransporterStatus marks a worker active or inactive. Reactivating
// schedules a re-plan; deactivating does not — an inactive worker simply
// stops receiving new assignments. A leg already under way is driven to
// its end; the worker's next MoveTo fails with ErrInactive, which aborts
// the task that leg was for.
func (d *Dispatcher) SetTransporterStatus(name string, active bool) *Error {
	d.mu.Lock()
	t, ok := d.fleet[name]
	d.mu.Unlock()
	if !ok {
		return validationErr("transporter %q not found", name)
	}

	if active {
		t.SetActive()
		d.broker.Publish(events.NewTransporterStatusUpdate(name, "active"))
		d.triggerReplan()
	} else {
		t.SetInactive()
		d.broker.Publish(events.NewTransporterStatusUpdate(name, "inactive"))
	}
	return nil
}

// CreateRequest admits a new pending request and schedules a re-plan.
func (d *Dispatcher) CreateRequest(origin, destination string, transportType request.TransportType, urgent bool) (string, *Error) {
	if !d.graph.HasNode(origin) {
		return "", validationErr("unknown origin node %q", origin)
	}
	if !d.graph.HasNode(destination) {
		return "", validationErr("unknown destination node %q", destination)
	}

	id := uuid.New().String()
	r := request.New(id, origin, destination, transportType, urgent)

	d.mu.Lock()
	d.requests[id] = r
	d.version++
	d.mu.Unlock()

	metrics.RequestsCreated.Inc()
	d.broker.Publish(events.NewTransportStatusUpdate(id, string(request.Pending)))
	d.triggerReplan()
	return id, nil
}

// RemoveRequest cancels a known request. A request already completed
// stays completed: cancellation cannot regress a terminal state.
func (d *Dispatcher) RemoveRequest(id string) *Error {
	d.mu.Lock()
	r, ok := d.requests[id]
	d.mu.Unlock()
	if !ok {
		return validationErr("request %q not found", id)
	}
	r.MarkCancelled()
	d.broker.Publish(events.NewTransportStatusUpdate(id, string(r.Status())))
	return nil
}

// ReturnHome sends an idle worker back to the lounge outside of any plan.
// It refuses on a busy worker rather than interrupting committed work.
func (d *Dispatcher) ReturnHome(name string) *Error {
	d.mu.Lock()
	t, ok := d.fleet[name]
	d.mu.Unlock()
	if !ok {
		return validationErr("transporter %q not found", name)
	}
	if t.IsBusy() {
		return movementErr("transporter %q is busy", name)
	}

	err := t.MoveTo(d.baseCtx, d.graph, transporter.LoungeNode, d.speedFactor, func(path []string, durations []float64) {
		d.broker.Publish(events.NewTransporterUpdate(name, path, durations))
	})
	if err != nil {
		return movementErr("transporter %q cannot reach the lounge: %v", name, err)
	}
	return nil
}

// SetStrategy swaps the active planner and schedules a re-plan.
func (d *Dispatcher) SetStrategy(s strategy.Strategy) *Error {
	if s == nil {
		return validationErr("strategy must not be nil")
	}
	d.mu.Lock()
	d.strategy = s
	d.mu.Unlock()
	d.triggerReplan()
	return nil
}

// DeployPlan triggers a re-plan on demand.
func (d *Dispatcher) DeployPlan() *Error {
	d.triggerReplan()
	return nil
}
