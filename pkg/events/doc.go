/*
Package events is the dispatcher's fire-and-forget outbound event sink: a
non-blocking pub/sub broker that fans typed, JSON-shaped events out to any
number of subscribers (a UI, a logger, a test harness). Delivery is best
effort — a slow or closed subscriber never blocks the publisher.
*/
package events
