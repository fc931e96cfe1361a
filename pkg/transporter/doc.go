/*
Package transporter models a single human transporter: its current node,
task queue, cumulative workload, and shift (working/resting) substate. A
Transporter mutates its own movement fields from exactly one goroutine at
a time — its own movement loop — plus the Dispatcher under the dispatcher
lock when applying a plan.
*/
package transporter
