package strategy

import (
	"math/rand"
	"sort"

	"github.com/cuemby/dispatcher/pkg/graph"
	"github.com/cuemby/dispatcher/pkg/request"
	"github.com/cuemby/dispatcher/pkg/transporter"
)

// Random assigns each request to a uniformly-chosen active worker, in
// input order. It is used as a baseline and for stress/perturbation
// runs; given the same seed and the same request order it reproduces the
// same assignment.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random strategy seeded deterministically. Pass a
// fixed seed to get reproducible runs (see
// TestRandomReproducibleGivenSameSeedAndOrder).
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (s *Random) Plan(fleet []*transporter.Transporter, requests []*request.Request, g *graph.Graph) (Plan, bool) {
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

	// Pick from a name-ordered fleet so the draw does not depend on the
	// order the caller happened to list the workers in.
	sort.Slice(active, func(i, j int) bool { return active[i].Name() < active[j].Name() })
	for _, r := range requests {
		t := active[s.rng.Intn(len(active))]
		plan[t.Name()] = append(plan[t.Name()], r)
	}
	return plan, true
}

func (s *Random) EstimateTravelTime(t *transporter.Transporter, r *request.Request, g *graph.Graph) (float64, bool) {
	return estimateTravelTime(t, r, g)
}
