/*
Package metrics defines and registers the dispatcher's Prometheus
metrics: fleet composition, request lifecycle counts, planning latency
and outcome, and rest-cycle frequency. Metrics are package-level
variables registered at init time and exposed over HTTP via Handler for
scraping.

Gauges TransportersTotal, TransporterWorkload and RequestsTotal are
sampled periodically by a dispatcher.MetricsCollector, since they
reflect point-in-time state rather than discrete events; the
PlanMakespanSeconds gauge is set each time a plan is applied. Counters
and histograms (RequestsCreated, RequestsCompleted,
RequestCompletionSeconds, PlanningLatency, PlansProduced,
RestCyclesTotal) are recorded at the moment they happen, directly from
the dispatcher's command, re-planning and movement code.

Timer is a small helper for observing elapsed wall-clock time into a
histogram, with or without labels.
*/
package metrics
