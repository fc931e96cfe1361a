package strategy

import (
	"sort"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// Plan maps a worker's name to its newly assigned, ordered task queue.
type Plan map[string][]*request.Request

// Strategy is the planner contract. Plan returns ok=false ("no-plan") if
// the problem is infeasible; an empty fleet with no requests is a valid
// success (empty Plan, ok=true). A non-empty request set against an empty
// fleet is infeasible.
type Strategy interface {
	Plan(fleet []*transporter.Transporter, requests []*request.Request, g *graph.Graph) (Plan, bool)
	EstimateTravelTime(t *transporter.Transporter, r *request.Request, g *graph.Graph) (float64, bool)
}

// estimateTravelTime is the shared estimator every strategy uses: time to
// reach the request's origin from the worker's current node, plus time to
// carry it on to its destination. It deliberately ignores whatever else
// is ahead of r in t's queue — the ILP modes account for queueing through
// their own decision variables, not through this estimate.
func estimateTravelTime(t *transporter.Transporter, r *request.Request, g *graph.Graph) (float64, bool) {
	_, toOrigin, ok := g.ShortestPath(t.CurrentNode(), r.Origin)
	if !ok {
		return 0, false
	}
	_, leg, ok := g.ShortestPath(r.Origin, r.Destination)
	if !ok {
		return 0, false
	}
	return toOrigin + leg, true
}

// activeFleet filters out inactive transporters, which never receive new
// assignments.
func activeFleet(fleet []*transporter.Transporter) []*transporter.Transporter {
	out := make([]*transporter.Transporter, 0, len(fleet))
	for _, t := range fleet {
		if t.Status() == transporter.StatusActive {
			out = append(out, t)
		}
	}
	return out
}

// sortQueue applies the deterministic tie-break used whenever an
// assignment order is otherwise free: ascending estimate, then request
// ID. estimates maps request ID -> its estimate for the owning worker.
func sortQueue(queue []*request.Request, estimates map[string]float64) {
	sort.SliceStable(queue, func(i, j int) bool {
		ei, ej := estimates[queue[i].ID], estimates[queue[j].ID]
		if ei != ej {
			return ei < ej
		}
		return queue[i].ID < queue[j].ID
	})
}
