package transporter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
)

// LoungeNode is the designated rest destination every transporter returns
// to when it crosses its workload threshold.
const LoungeNode = "Transporter Lounge"

// Status is a transporter's availability for new plans.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ShiftState is a transporter's working/resting substate.
type ShiftState string

const (
	ShiftWorking ShiftState = "working"
	ShiftResting ShiftState = "resting"
)

// ErrInactive is returned by MoveTo when the transporter is not active.
var ErrInactive = errors.New("transporter: inactive")

// ErrUnreachable is returned by MoveTo when no path exists to the destination.
var ErrUnreachable = errors.New("transporter: destination unreachable")

// Transporter is a single worker moving requests through the hospital
// graph. All mutable fields are guarded by mu; callers read a consistent
// view via the Snapshot method rather than touching fields directly.
type Transporter struct {
	mu sync.Mutex

	name        string
	currentNode string
	status      Status
	shiftState  ShiftState

	currentTask *request.Request
	queue       []*request.Request

	workload      float64
	restThreshold float64
	restDuration  float64 // simulated seconds

	cancel context.CancelFunc
}

// Snapshot is an immutable copy of a Transporter's state for readers
// (event emission, the command API, metrics sampling) that must not race
// with the transporter's own movement loop.
type Snapshot struct {
	Name        string
	CurrentNode string
	Status      Status
	ShiftState  ShiftState
	CurrentTask *request.Request
	Queue       []*request.Request
	Workload    float64
	IsBusy      bool
}

// New creates a transporter starting at the lounge, active, idle.
// restDuration is expressed in simulated seconds, consistent with edge
// weights and workload.
func New(name string, restThreshold float64, restDuration float64) *Transporter {
	return &Transporter{
		name:          name,
		currentNode:   LoungeNode,
		status:        StatusActive,
		shiftState:    ShiftWorking,
		restThreshold: restThreshold,
		restDuration:  restDuration,
	}
}

func (t *Transporter) Name() string { return t.name }

// BindCancel attaches the cancellation func the Dispatcher invokes when
// this transporter is removed, interrupting any in-flight MoveTo at its
// next edge boundary.
func (t *Transporter) BindCancel(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel interrupts this transporter's in-flight movement, if any.
func (t *Transporter) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (t *Transporter) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	queue := make([]*request.Request, len(t.queue))
	copy(queue, t.queue)
	return Snapshot{
		Name:        t.name,
		CurrentNode: t.currentNode,
		Status:      t.status,
		ShiftState:  t.shiftState,
		CurrentTask: t.currentTask,
		Queue:       queue,
		Workload:    t.workload,
		IsBusy:      t.currentTask != nil,
	}
}

func (t *Transporter) CurrentNode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentNode
}

func (t *Transporter) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Transporter) SetActive() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusActive
}

func (t *Transporter) SetInactive() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusInactive
}

func (t *Transporter) IsBusy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentTask != nil
}

func (t *Transporter) CurrentTask() *request.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentTask
}

// SetCurrentTask assigns the worker's in-flight task. Pass nil to clear it.
func (t *Transporter) SetCurrentTask(r *request.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentTask = r
}

// Queue returns a copy of the worker's pending task list, in order.
func (t *Transporter) Queue() []*request.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*request.Request, len(t.queue))
	copy(out, t.queue)
	return out
}

// SetQueue replaces the worker's queue wholesale, as the Executor does
// when applying a fresh plan.
func (t *Transporter) SetQueue(q []*request.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append([]*request.Request(nil), q...)
}

// PopQueueHead removes and returns the first queued request, if any.
func (t *Transporter) PopQueueHead() (*request.Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return nil, false
	}
	head := t.queue[0]
	t.queue = t.queue[1:]
	return head, true
}

func (t *Transporter) Workload() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workload
}

// AddWorkload increments cumulative workload by delta (the weight of a
// just-completed leg).
func (t *Transporter) AddWorkload(delta float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workload += delta
}

// DecayWorkload subtracts amount from cumulative workload, floored at
// zero, but only while the worker is idle — decay never erodes the
// workload backing an in-flight task's estimate.
func (t *Transporter) DecayWorkload(amount float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentTask != nil {
		return
	}
	t.workload -= amount
	if t.workload < 0 {
		t.workload = 0
	}
}

// ShouldRest reports whether cumulative workload has crossed the rest
// threshold. A threshold of zero or less disables mandatory rest.
func (t *Transporter) ShouldRest() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restThreshold > 0 && t.workload >= t.restThreshold
}

// RestDuration returns the configured rest length in simulated seconds.
func (t *Transporter) RestDuration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restDuration
}

func (t *Transporter) ShiftState() ShiftState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shiftState
}

// EnterRest marks the worker resting. The caller (the Dispatcher's
// movement loop) is responsible for driving it to LoungeNode and sleeping
// for RestDuration before calling ExitRest.
func (t *Transporter) EnterRest() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shiftState = ShiftResting
}

func (t *Transporter) ExitRest() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shiftState = ShiftWorking
}

// MoveTo drives the transporter step by step along the shortest path to
// dst, sleeping weight(u,v)/speedFactor of wall time per edge. onPlanned,
// if non-nil, is called once up front with the full path and per-edge
// simulated durations so a UI can animate the whole leg; currentNode
// still advances at each step, and workload grows by the path's total
// weight once the whole leg succeeds. Returns ErrInactive or ErrUnreachable without
// moving, and respects ctx cancellation at each edge boundary.
func (t *Transporter) MoveTo(ctx context.Context, g *graph.Graph, dst string, speedFactor float64, onPlanned func(path []string, durations []float64)) error {
	t.mu.Lock()
	if t.status == StatusInactive {
		t.mu.Unlock()
		return ErrInactive
	}
	src := t.currentNode
	t.mu.Unlock()

	path, _, ok := g.ShortestPath(src, dst)
	if !ok {
		return ErrUnreachable
	}
	if len(path) <= 1 {
		return nil
	}

	durations := make([]float64, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		w, _ := g.EdgeWeight(path[i], path[i+1])
		durations[i] = w
	}
	if onPlanned != nil {
		onPlanned(path, durations)
	}

	if speedFactor <= 0 {
		speedFactor = 1
	}

	var traveled float64
	for i, edgeWeight := range durations {
		sleepFor := time.Duration(edgeWeight / speedFactor * float64(time.Second))
		timer := time.NewTimer(sleepFor)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		t.mu.Lock()
		t.currentNode = path[i+1]
		t.mu.Unlock()
		traveled += edgeWeight
	}

	t.AddWorkload(traveled)
	return nil
}
