package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddEdge("A", "B", 5))
	require.NoError(t, g.AddEdge("B", "C", 10))
	return g
}

func TestEstimateTravelTimeSumsBothLegs(t *testing.T) {
	g := chainGraph(t)
	require.NoError(t, g.AddEdge(transporter.LoungeNode, "A", 1))
	tr := transporter.New("W", 0, 60)
	require.NoError(t, tr.MoveTo(context.Background(), g, "A", 1000, nil))

	r := request.New("R1", "A", "C", request.Stretcher, false)
	s := NewRandom(1)
	est, ok := s.EstimateTravelTime(tr, r, g)
	require.True(t, ok)
	assert.Equal(t, 15.0, est)
}

func TestRandomEmptyRequestsSucceedsWithEmptyPlan(t *testing.T) {
	g := graph.New()
	tr := transporter.New("W", 0, 60)
	s := NewRandom(42)
	plan, ok := s.Plan([]*transporter.Transporter{tr}, nil, g)
	require.True(t, ok)
	assert.Empty(t, plan["W"])
}

func TestRandomNoActiveFleetIsInfeasible(t *testing.T) {
	g := graph.New()
	g.AddNode("A")
	g.AddNode("B")
	r := request.New("R1", "A", "B", request.Stretcher, false)
	s := NewRandom(42)
	_, ok := s.Plan(nil, []*request.Request{r}, g)
	assert.False(t, ok)
}

func TestRandomReproducibleGivenSameSeedAndOrder(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddEdge("A", "B", 1))
	t1 := transporter.New("W1", 0, 60)
	t2 := transporter.New("W2", 0, 60)
	fleet := []*transporter.Transporter{t1, t2}
	reqs := []*request.Request{
		request.New("R1", "A", "B", request.Stretcher, false),
		request.New("R2", "A", "B", request.Stretcher, false),
		request.New("R3", "A", "B", request.Stretcher, false),
	}

	s1 := NewRandom(7)
	plan1, ok := s1.Plan(fleet, reqs, g)
	require.True(t, ok)

	s2 := NewRandom(7)
	plan2, ok := s2.Plan(fleet, reqs, g)
	require.True(t, ok)

	assert.Equal(t, len(plan1["W1"]), len(plan2["W1"]))
	assert.Equal(t, len(plan1["W2"]), len(plan2["W2"]))
}

// TestILPMakespanTwoWorkersTwoRequests is scenario S2: two workers at A,
// requests (A->C, estimate 15) and (A->B, estimate 5); makespan mode
// should put one request per worker.
func TestILPMakespanTwoWorkersTwoRequests(t *testing.T) {
	g := chainGraph(t)
	require.NoError(t, g.AddEdge(transporter.LoungeNode, "A", 1))
	w1 := transporter.New("W1", 0, 60)
	w2 := transporter.New("W2", 0, 60)
	require.NoError(t, w1.MoveTo(context.Background(), g, "A", 1000, nil))
	require.NoError(t, w2.MoveTo(context.Background(), g, "A", 1000, nil))

	reqAC := request.New("AC", "A", "C", request.Stretcher, false)
	reqAB := request.New("AB", "A", "B", request.Stretcher, false)

	s := NewILP(Makespan, 0)
	plan, ok := s.Plan([]*transporter.Transporter{w1, w2}, []*request.Request{reqAC, reqAB}, g)
	require.True(t, ok)

	totalAssigned := len(plan["W1"]) + len(plan["W2"])
	assert.Equal(t, 2, totalAssigned)
	assert.Len(t, plan["W1"], 1)
	assert.Len(t, plan["W2"], 1)
}

// TestILPUrgencyFirstPrioritizesUrgentRequest is scenario S3.
func TestILPUrgencyFirstPrioritizesUrgentRequest(t *testing.T) {
	g := chainGraph(t)
	require.NoError(t, g.AddEdge(transporter.LoungeNode, "A", 1))
	w := transporter.New("W", 0, 60)
	require.NoError(t, w.MoveTo(context.Background(), g, "A", 1000, nil))

	r1 := request.New("R1", "A", "B", request.Stretcher, false)
	r2 := request.New("R2", "A", "C", request.Stretcher, true)
	r3 := request.New("R3", "A", "B", request.Stretcher, false)

	s := NewILP(UrgencyFirst, 0)
	plan, ok := s.Plan([]*transporter.Transporter{w}, []*request.Request{r1, r2, r3}, g)
	require.True(t, ok)
	require.Len(t, plan["W"], 3)
	assert.Equal(t, "R2", plan["W"][0].ID)
}

func TestILPInfeasibleRequestYieldsNoPlan(t *testing.T) {
	g := graph.New()
	g.AddNode("A")
	g.AddNode("Island")
	require.NoError(t, g.AddEdge(transporter.LoungeNode, "A", 1))
	w := transporter.New("W", 0, 60)
	require.NoError(t, w.MoveTo(context.Background(), g, "A", 1000, nil))

	r := request.New("R1", "Island", "Island", request.Stretcher, false)
	s := NewILP(Makespan, 0)
	_, ok := s.Plan([]*transporter.Transporter{w}, []*request.Request{r}, g)
	assert.False(t, ok)
}
