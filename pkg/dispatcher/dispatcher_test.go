package dispatcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/strategy"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddEdge(transporter.LoungeNode, "A", 1))
	require.NoError(t, g.AddEdge("A", "B", 5))
	require.NoError(t, g.AddEdge("B", "C", 10))
	return g
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition did not become true within %s", timeout)
}

// TestScenarioS1SingleWorkerSingleRequest follows the worker from A to C
// via B and asserts it ends at C with the request completed. The engine
// always starts a worker at the lounge, so the lounge-to-A leg's weight
// is folded into the final workload rather than omitted, unlike the
// idealized two-edge scenario.
func TestScenarioS1SingleWorkerSingleRequest(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{
		Graph:       g,
		SpeedFactor: 2000,
		Strategy:    strategy.NewILP(strategy.Makespan, 0),
	})
	d.Start()
	defer d.Stop()

	_, errc := d.AddTransporter("W")
	require.Nil(t, errc)

	id, errc := d.CreateRequest("A", "C", request.Stretcher, false)
	require.Nil(t, errc)

	waitFor(t, 2*time.Second, func() bool {
		for _, r := range d.Requests() {
			if r.ID == id {
				return r.Status == request.Completed
			}
		}
		return false
	})

	var w transporter.Snapshot
	for _, s := range d.Transporters() {
		if s.Name == "W" {
			w = s
		}
	}
	assert.Equal(t, "C", w.CurrentNode)
	assert.Equal(t, 16.0, w.Workload) // 1 (lounge->A) + 5 (A->B) + 10 (B->C)
}

// TestScenarioS4RestCycleEntersAndExitsRest crosses the rest threshold
// on task completion and confirms the worker publishes a resting status,
// then returns to the working shift state.
func TestScenarioS4RestCycleEntersAndExitsRest(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{
		Graph:         g,
		SpeedFactor:   5000,
		RestThreshold: 10,
		RestDuration:  0.01,
		Strategy:      strategy.NewILP(strategy.Makespan, 0),
	})
	d.Start()
	defer d.Stop()

	sub := d.EventBroker().Subscribe()
	defer d.EventBroker().Unsubscribe(sub)

	_, errc := d.AddTransporter("W")
	require.Nil(t, errc)
	_, errc = d.CreateRequest("A", "C", request.Stretcher, false)
	require.Nil(t, errc)

	restingCount := 0
	deadline := time.After(2 * time.Second)
	for restingCount == 0 {
		select {
		case ev := <-sub:
			if ev.Payload["status"] == "resting" {
				restingCount++
			}
		case <-deadline:
			t.Fatal("never entered rest")
		}
	}

	waitFor(t, time.Second, func() bool {
		snaps := d.Transporters()
		for _, s := range snaps {
			if s.Name == "W" {
				return s.ShiftState == transporter.ShiftWorking
			}
		}
		return false
	})
}

// TestScenarioS5InFlightTaskSurvivesReplan pins a request to a worker as
// its current task, then applies a plan that would hand the same
// request to a different worker. The in-flight task must not move.
func TestScenarioS5InFlightTaskSurvivesReplan(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{Graph: g, SpeedFactor: 1000, Strategy: strategy.NewILP(strategy.Makespan, 0)})

	_, errc := d.AddTransporter("W1")
	require.Nil(t, errc)
	_, errc = d.AddTransporter("W2")
	require.Nil(t, errc)

	r := request.New("R1", "A", "C", request.Stretcher, false)
	d.mu.Lock()
	d.requests["R1"] = r
	w1 := d.fleet["W1"]
	w1.SetCurrentTask(r)
	r.MarkOngoing("W1")
	r.MarkDeparted()
	d.mu.Unlock()

	require.False(t, r.IsReassignable())

	badPlan := strategy.Plan{
		"W2": {r},
	}
	d.mu.Lock()
	d.applyPlanLocked(badPlan)
	d.mu.Unlock()

	assert.Equal(t, r, w1.CurrentTask())
	w2 := d.fleet["W2"]
	assert.Empty(t, w2.Queue())
	assert.Nil(t, w2.CurrentTask())
}

// TestAssignableRequestsExcludesPinnedOngoing verifies the planner input
// never includes a request that has already departed, so a re-plan
// cannot even attempt to move it (the mechanism behind S5).
func TestAssignableRequestsExcludesPinnedOngoing(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{Graph: g, SpeedFactor: 1000, Strategy: strategy.NewILP(strategy.Makespan, 0)})

	r := request.New("R1", "A", "C", request.Stretcher, false)
	r.MarkOngoing("W1")
	r.MarkDeparted()

	d.mu.Lock()
	d.requests["R1"] = r
	out := d.assignableRequestsLocked()
	d.mu.Unlock()

	assert.Empty(t, out)
}

// TestRemoveTransporterAbortsCurrentTask checks the Movement error-policy
// row for a removed worker: its current task is cancelled, not silently
// dropped or left dangling.
func TestRemoveTransporterAbortsCurrentTask(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{Graph: g, SpeedFactor: 1000, Strategy: strategy.NewILP(strategy.Makespan, 0)})

	_, errc := d.AddTransporter("W")
	require.Nil(t, errc)

	r := request.New("R1", "A", "C", request.Stretcher, false)
	d.mu.Lock()
	d.requests["R1"] = r
	d.fleet["W"].SetCurrentTask(r)
	d.mu.Unlock()
	r.MarkOngoing("W")

	errc = d.RemoveTransporter("W")
	require.Nil(t, errc)
	assert.Equal(t, request.Cancelled, r.Status())
}

// TestCreateRequestRejectsUnknownNode checks the Validation error-policy
// row: an invalid request never mutates dispatcher state.
func TestCreateRequestRejectsUnknownNode(t *testing.T) {
	g := chainGraph(t)
	d := New(Config{Graph: g, SpeedFactor: 1000, Strategy: strategy.NewILP(strategy.Makespan, 0)})

	_, errc := d.CreateRequest("A", "Nowhere", request.Stretcher, false)
	require.NotNil(t, errc)
	assert.Equal(t, KindValidation, errc.Kind)
	assert.Empty(t, d.Requests())
}
