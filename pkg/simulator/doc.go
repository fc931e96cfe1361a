/*
Package simulator is the optional synthetic load generator (C8): at a
configurable real-time interval it picks two distinct random nodes, a
random transport type, and a random urgency, creates a request through
the dispatcher's command API, and emits a simulation_event notification.
It can be started and stopped at any time and holds no state beyond its
own run loop.
*/
package simulator
