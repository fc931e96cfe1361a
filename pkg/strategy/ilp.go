package strategy

import (
	"sort"
	"time"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// Mode selects the ILP strategy's objective.
type Mode string

const (
	// Makespan minimizes the completion time of the last-finishing worker.
	Makespan Mode = "makespan"
	// EqualWorkload balances cumulative workload across the fleet.
	EqualWorkload Mode = "equal_workload"
	// UrgencyFirst prefers fast service of urgent requests.
	UrgencyFirst Mode = "urgency_first"
)

// ILP is a deterministic construction heuristic standing in for the
// integer-linear-program described by the assignment model: rather than
// solving the {x[t,r], o[t,r1,r2]} formulation exactly, it builds a plan
// greedily in an objective-specific order; if Timeout elapses it keeps
// the assignment built so far and places every remaining request on the
// least-loaded feasible worker. This never claims global
// optimality across re-planning rounds, which the contract explicitly
// does not require.
type ILP struct {
	Mode    Mode
	Timeout time.Duration
}

// NewILP creates an ILP strategy in the given mode. A zero Timeout means
// unbounded (the default per the configuration contract).
func NewILP(mode Mode, timeout time.Duration) *ILP {
	return &ILP{Mode: mode, Timeout: timeout}
}

func (s *ILP) Plan(fleet []*transporter.Transporter, requests []*request.Request, g *graph.Graph) (Plan, bool) {
	active := activeFleet(fleet)
	plan := make(Plan, len(active))
	for _, t := range active {
		plan[t.Name()] = nil
	}
	if len(requests) == 0 {
		return plan, true
	}
	if len(active) == 0 {
		return nil, false
	}

	// estimates[t.Name()][r.ID] caches estimate_travel_time; infeasible
	// pairs are simply absent.
	estimates := make(map[string]map[string]float64, len(active))
	for _, t := range active {
		row := make(map[string]float64, len(requests))
		for _, r := range requests {
			if e, ok := estimateTravelTime(t, r, g); ok {
				row[r.ID] = e
			}
		}
		estimates[t.Name()] = row
	}

	// A request with no feasible worker at all makes the whole problem
	// infeasible, mirroring the ILP's unique-assignment constraint.
	for _, r := range requests {
		feasible := false
		for _, t := range active {
			if _, ok := estimates[t.Name()][r.ID]; ok {
				feasible = true
				break
			}
		}
		if !feasible {
			return nil, false
		}
	}

	order := s.orderRequests(requests)

	deadline := time.Time{}
	if s.Timeout > 0 {
		deadline = time.Now().Add(s.Timeout)
	}

	workload := make(map[string]float64, len(active))
	perWorkerEstimates := make(map[string]map[string]float64, len(active))
	for _, t := range active {
		perWorkerEstimates[t.Name()] = make(map[string]float64)
	}

	for i, r := range order {
		if !deadline.IsZero() && time.Now().After(deadline) {
			// Timeout: fall back to least-loaded assignment for every
			// remaining request, using whatever partial incumbent exists.
			for _, rest := range order[i:] {
				s.assignLeastLoaded(rest, active, estimates, plan, workload, perWorkerEstimates)
			}
			break
		}
		s.assignBest(r, active, estimates, plan, workload, perWorkerEstimates)
	}

	// UrgencyFirst already fixes each worker's queue order via the
	// urgency-weighted assignment order (orderRequests + assignBest); only
	// MAKESPAN/EQUAL_WORKLOAD leave order genuinely free and need the
	// ascending-estimate tie-break applied after the fact.
	if s.Mode != UrgencyFirst {
		for name, queue := range plan {
			sortQueue(queue, perWorkerEstimates[name])
			plan[name] = queue
		}
	}
	return plan, true
}

// orderRequests sequences requests by objective before greedy assignment.
func (s *ILP) orderRequests(requests []*request.Request) []*request.Request {
	out := append([]*request.Request(nil), requests...)
	switch s.Mode {
	case UrgencyFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Urgent != out[j].Urgent {
				return out[i].Urgent
			}
			return out[i].ID < out[j].ID
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

// assignBest assigns r to the feasible worker minimizing the mode's
// local cost: resulting workload for MAKESPAN/EQUAL_WORKLOAD (a greedy
// list-scheduling approximation of minimizing the max, and a
// least-loaded-first linearization of the quadratic fairness term,
// respectively), current workload plus the urgency-weighted estimate for
// URGENCY_FIRST.
func (s *ILP) assignBest(r *request.Request, active []*transporter.Transporter, estimates map[string]map[string]float64, plan Plan, workload map[string]float64, perWorkerEstimates map[string]map[string]float64) {
	var best *transporter.Transporter
	var bestCost, bestEstimate float64

	for _, t := range active {
		e, ok := estimates[t.Name()][r.ID]
		if !ok {
			continue
		}
		cost := s.cost(t.Name(), e, r, workload)
		if best == nil || cost < bestCost || (cost == bestCost && t.Name() < best.Name()) {
			best, bestCost, bestEstimate = t, cost, e
		}
	}
	if best == nil {
		return
	}
	plan[best.Name()] = append(plan[best.Name()], r)
	workload[best.Name()] += bestEstimate
	perWorkerEstimates[best.Name()][r.ID] = bestEstimate
}

// assignLeastLoaded is the timeout fallback: ignore objective nuance,
// just keep the fleet balanced.
func (s *ILP) assignLeastLoaded(r *request.Request, active []*transporter.Transporter, estimates map[string]map[string]float64, plan Plan, workload map[string]float64, perWorkerEstimates map[string]map[string]float64) {
	var best *transporter.Transporter
	var bestLoad, bestEstimate float64
	for _, t := range active {
		e, ok := estimates[t.Name()][r.ID]
		if !ok {
			continue
		}
		load := workload[t.Name()]
		if best == nil || load < bestLoad || (load == bestLoad && t.Name() < best.Name()) {
			best, bestLoad, bestEstimate = t, load, e
		}
	}
	if best == nil {
		return
	}
	plan[best.Name()] = append(plan[best.Name()], r)
	workload[best.Name()] += bestEstimate
	perWorkerEstimates[best.Name()][r.ID] = bestEstimate
}

func (s *ILP) cost(workerName string, estimate float64, r *request.Request, workload map[string]float64) float64 {
	switch s.Mode {
	case UrgencyFirst:
		factor := 1.0
		if r.Urgent {
			factor = 0.5
		}
		return workload[workerName] + estimate*factor
	case EqualWorkload, Makespan:
		fallthrough
	default:
		return workload[workerName] + estimate
	}
}

func (s *ILP) EstimateTravelTime(t *transporter.Transporter, r *request.Request, g *graph.Graph) (float64, bool) {
	return estimateTravelTime(t, r, g)
}
