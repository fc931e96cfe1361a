/*
Package clock provides the dispatcher's monotonic simulated-time source: a
wall-clock start point scaled by a fixed speed factor, plus a periodic
tick for UI/event consumers.
*/
package clock
