/*
Package config loads the dispatcher's startup configuration from YAML:
speed factor, re-plan coalescing interval, ILP solver timeout, the
per-worker rest threshold and duration, the hospital's department
(node) and corridor (edge) lists, and an optional initial fleet and
request set. Loading never mutates a running Dispatcher directly — the
caller is responsible for turning a loaded Config into a
dispatcher.Config and a graph.Graph and for issuing the initial-state
commands through the usual command API.
*/
package config
