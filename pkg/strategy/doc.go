/*
Package strategy implements the pluggable planner: given the active
fleet, the pending+reassignable requests, and the hospital graph, produce
a whole-fleet plan (worker name -> ordered request queue). Two concrete
strategies are provided: Random, a uniform baseline, and ILP, a
deterministic construction heuristic run in three objective modes
(makespan, equal workload, urgency-first). Neither strategy holds state
between invocations; everything it needs is passed in on each call.
*/
package strategy
