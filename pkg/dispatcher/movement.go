package dispatcher

import (
	"context"
	"time"

	"github.com/cuemby/dispatcher/pkg/events"
	"github.com/cuemby/dispatcher/pkg/log"
	"github.com/cuemby/dispatcher/pkg/metrics"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// decayInterval is the simulated-time period between a worker's
// background workload-decay ticks; the clock's speed factor converts it
// to the wall-clock cadence.
const decayInterval = 5 * time.Second

// decayAmount is how much workload a single decay tick erodes.
const decayAmount = 1.0

// runMovementLoop drives one worker through r and then, as long as its
// queue keeps being refilled by re-plans, through whatever is queued
// next, until the worker goes idle or is removed. It runs on its own
// goroutine, started by applyPlanLocked whenever an idle worker is
// handed a task.
func (d *Dispatcher) runMovementLoop(name string, r *request.Request) {
	for {
		t, ok := d.lookupTransporter(name)
		if !ok {
			return
		}
		ctx := d.workerContext(name)

		d.broker.Publish(events.NewTransportStatusUpdate(r.ID, string(request.Ongoing)))
		r.MarkDeparted()

		if err := t.MoveTo(ctx, d.graph, r.Origin, d.speedFactor, func(path []string, durations []float64) {
			d.broker.Publish(events.NewTransporterUpdate(name, path, durations))
		}); err != nil {
			d.abortMovement(name, t, r, err)
			return
		}

		if err := t.MoveTo(ctx, d.graph, r.Destination, d.speedFactor, func(path []string, durations []float64) {
			d.broker.Publish(events.NewTransporterUpdate(name, path, durations))
		}); err != nil {
			d.abortMovement(name, t, r, err)
			return
		}

		r.MarkCompleted()
		metrics.RequestsCompleted.Inc()
		metrics.RequestCompletionSeconds.Observe(time.Since(r.CreatedAt).Seconds() * d.speedFactor)
		d.broker.Publish(events.NewTransportCompleted(name, r.Origin, r.Destination))
		d.broker.Publish(events.NewTransportStatusUpdate(r.ID, string(request.Completed)))
		d.broker.Publish(events.NewWorkloadUpdate(name, t.Workload()))
		t.SetCurrentTask(nil)

		if t.ShouldRest() {
			d.runRestCycle(ctx, name, t)
			return
		}

		next, ok := t.PopQueueHead()
		if !ok {
			d.broker.Publish(events.NewTransporterStatusUpdate(name, "idle"))
			return
		}
		t.SetCurrentTask(next)
		next.MarkOngoing(name)
		next.SetAssignee(name)
		r = next
	}
}

// abortMovement reacts to a MoveTo failure (inactive worker, removed
// worker, unreachable node) mid-task: the request is cancelled since no
// other worker can resume work already committed to this one, and the
// worker is left idle for the next re-plan to consider.
func (d *Dispatcher) abortMovement(name string, t *transporter.Transporter, r *request.Request, cause error) {
	r.MarkCancelled()
	t.SetCurrentTask(nil)
	d.broker.Publish(events.NewTransportStatusUpdate(r.ID, string(request.Cancelled)))
	d.broker.Publish(events.NewTransportLog("transporter " + name + " aborted " + r.ID + ": " + cause.Error()))
}

// runRestCycle sends a worker to the lounge, holds it there for its
// configured rest duration, then returns it to service and schedules a
// re-plan so its queue (held but not consumed while resting) can resume.
func (d *Dispatcher) runRestCycle(ctx context.Context, name string, t *transporter.Transporter) {
	logger := log.WithRestCycle(name)

	t.EnterRest()
	metrics.RestCyclesTotal.Inc()
	logger.Info().Msg("entering rest")
	d.broker.Publish(events.NewTransporterStatusUpdate(name, "resting"))

	if err := t.MoveTo(ctx, d.graph, transporter.LoungeNode, d.speedFactor, func(path []string, durations []float64) {
		d.broker.Publish(events.NewTransporterUpdate(name, path, durations))
	}); err != nil {
		logger.Warn().Err(err).Msg("could not reach the lounge")
		d.broker.Publish(events.NewTransportLog("transporter " + name + " could not reach the lounge: " + err.Error()))
	}

	timer := time.NewTimer(d.clock.RealDuration(t.RestDuration()))
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	t.ExitRest()
	logger.Info().Msg("rest complete, returning to service")
	d.broker.Publish(events.NewTransporterStatusUpdate(name, "active"))
	d.triggerReplan()
}

// runDecayLoop is the single persistent background goroutine that erodes
// a worker's cumulative workload while it is idle, until its context is
// cancelled (the worker was removed). One is started per transporter, at
// AddTransporter.
func (d *Dispatcher) runDecayLoop(ctx context.Context, t *transporter.Transporter) {
	interval := d.clock.RealDuration(decayInterval.Seconds())
	if interval <= 0 {
		interval = decayInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.DecayWorkload(decayAmount)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) lookupTransporter(name string) (*transporter.Transporter, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.fleet[name]
	return t, ok
}
