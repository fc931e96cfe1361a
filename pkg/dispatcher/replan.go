package dispatcher

import (
	"fmt"
	"time"

	"github.com/cuemby/dispatcher/pkg/events"
	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/log"
	"github.com/cuemby/dispatcher/pkg/metrics"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/strategy"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// estimatePlanMakespan approximates the completion time of the
// last-finishing worker under plan: each worker's queue estimate sums
// estimateTravelTime across its assigned requests in order, ignoring
// the fact that later legs start from an already-visited node rather
// than the worker's current position. That approximation is acceptable
// for an observability gauge; it is never used to drive assignment.
func estimatePlanMakespan(s strategy.Strategy, fleet []*transporter.Transporter, plan strategy.Plan, g *graph.Graph) float64 {
	byName := make(map[string]*transporter.Transporter, len(fleet))
	for _, t := range fleet {
		byName[t.Name()] = t
	}

	var makespan float64
	for name, queue := range plan {
		t, ok := byName[name]
		if !ok {
			continue
		}
		var total float64
		for _, r := range queue {
			if e, ok := s.EstimateTravelTime(t, r, g); ok {
				total += e
			}
		}
		if total > makespan {
			makespan = total
		}
	}
	return makespan
}

// strategyLabel derives a low-cardinality metric label from a strategy's
// concrete type, since Strategy itself carries no name.
func (d *Dispatcher) strategyLabel(s strategy.Strategy) string {
	switch v := s.(type) {
	case *strategy.ILP:
		return fmt.Sprintf("ilp_%s", v.Mode)
	case *strategy.Random:
		return "random"
	default:
		return "unknown"
	}
}

// triggerReplan schedules a re-plan. Multiple triggers arriving while a
// solve is already in flight collapse into the dirty flag, so at most
// one extra solve runs after the current one finishes; re-plans never
// run concurrently with each other.
func (d *Dispatcher) triggerReplan() {
	d.mu.Lock()
	if d.planning {
		d.dirty = true
		d.mu.Unlock()
		return
	}
	d.planning = true
	d.mu.Unlock()

	go d.planLoop()
}

func (d *Dispatcher) planLoop() {
	for {
		d.awaitCoalesceWindow()
		d.solveAndApply()

		d.mu.Lock()
		if d.dirty {
			d.dirty = false
			d.mu.Unlock()
			continue
		}
		d.planning = false
		d.mu.Unlock()
		return
	}
}

// awaitCoalesceWindow holds the upcoming solve back by the configured
// re-plan coalescing window, so triggers arriving in a burst settle into
// a single solve instead of one per trigger. A zero window (the default)
// solves immediately. Returns early if the dispatcher is stopped.
func (d *Dispatcher) awaitCoalesceWindow() {
	if d.replanCoalesceWindow <= 0 {
		return
	}
	timer := time.NewTimer(d.replanCoalesceWindow)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-d.baseCtx.Done():
	}
}

// solveAndApply captures a snapshot under the lock, runs the strategy
// solve outside it, then applies the result under the lock if no
// committed mutation raced it.
func (d *Dispatcher) solveAndApply() {
	d.mu.Lock()
	fleet := d.activeFleetLocked()
	requests := d.assignableRequestsLocked()
	g := d.graph
	s := d.strategy
	snapshotVersion := d.version
	d.mu.Unlock()

	if s == nil {
		return
	}

	timer := metrics.NewTimer()
	plan, ok := s.Plan(fleet, requests, g)
	strategyLabel := d.strategyLabel(s)
	logger := log.WithStrategy(strategyLabel)
	timer.ObserveDurationVec(metrics.PlanningLatency, strategyLabel)
	if !ok {
		metrics.PlansProduced.WithLabelValues(strategyLabel, "infeasible").Inc()
		err := planningErr("strategy %s returned no-plan, leaving state unchanged", strategyLabel)
		logger.Warn().Msg(err.Error())
		d.broker.Publish(events.NewTransportLog("re-plan failed: " + err.Error()))
		return
	}
	makespan := estimatePlanMakespan(s, fleet, plan, g)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.version != snapshotVersion {
		// A mutation committed while the solve was running; the plan is
		// stale. Leave dirty set (triggerReplan already handles this via
		// whatever fired the mutation) and skip application.
		d.dirty = true
		return
	}
	if err := validatePlanLocked(plan); err != nil {
		// Internal invariant violated (a queue entry is already terminal).
		// Refuse to apply; retry once whatever produced the stale entry is
		// reconciled.
		metrics.PlansProduced.WithLabelValues(strategyLabel, "refused").Inc()
		logger.Error().Msg(err.Error())
		d.broker.Publish(events.NewTransportLog("re-plan refused: " + err.Error()))
		d.dirty = true
		return
	}
	metrics.PlansProduced.WithLabelValues(strategyLabel, "applied").Inc()
	d.applyPlanLocked(plan)
	metrics.PlanMakespanSeconds.Set(makespan)
}

// validatePlanLocked refuses a plan that assigns an already-terminal
// request to a worker's queue — a planning bug, since a completed or
// cancelled request is never reassignable (see Request.IsReassignable)
// and should never have reached the strategy's input set. Caller must
// hold mu.
func validatePlanLocked(plan strategy.Plan) *Error {
	for name, queue := range plan {
		for _, r := range queue {
			if r.IsTerminal() {
				return internalErr("plan for %s contains terminal request %s", name, r.ID)
			}
		}
	}
	return nil
}

// applyPlanLocked is the Executor (C6): for each worker in plan, preserve
// an in-flight current task, hold a resting worker's new queue without
// starting it, or pop the head of an idle worker's queue and start its
// movement loop. Caller must hold mu.
func (d *Dispatcher) applyPlanLocked(plan strategy.Plan) {
	for name, queue := range plan {
		t, ok := d.fleet[name]
		if !ok {
			continue
		}

		// A request pinned to its worker (already departed) never moves,
		// whichever worker the plan names for it.
		assignable := make([]*request.Request, 0, len(queue))
		for _, r := range queue {
			if r.IsReassignable() {
				assignable = append(assignable, r)
			}
		}
		queue = assignable

		switch {
		case t.ShiftState() == transporter.ShiftResting:
			t.SetQueue(queue)

		case t.CurrentTask() != nil:
			cur := t.CurrentTask()
			filtered := make([]*request.Request, 0, len(queue))
			for _, r := range queue {
				if r.Origin == cur.Origin && r.Destination == cur.Destination && r.ID == cur.ID {
					continue
				}
				filtered = append(filtered, r)
			}
			t.SetQueue(filtered)

		case len(queue) > 0:
			head, rest := queue[0], queue[1:]
			t.SetQueue(rest)
			t.SetCurrentTask(head)
			head.MarkOngoing(name)
			head.SetAssignee(name)
			go d.runMovementLoop(name, head)

		default:
			t.SetCurrentTask(nil)
			t.SetQueue(nil)
		}
	}
}
