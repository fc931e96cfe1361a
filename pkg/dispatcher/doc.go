/*
Package dispatcher is the engine's orchestrator (C7): it owns the master
registry of transporters and requests, exposes the command API, fires and
coalesces re-plans, and drives each worker's movement loop.

Locking discipline: fleet and request membership, and plan application,
are mutated only while holding the dispatcher's single lock, in short
critical sections. A transporter's own movement fields are mutated by
its own movement goroutine and, during plan application, by the
dispatcher holding that same lock — never by two goroutines at once. The
strategy's solve runs outside the lock against live references captured
under it; a version counter rejects a plan whose snapshot predates a
mutation that was committed while the solve was running.
*/
package dispatcher
