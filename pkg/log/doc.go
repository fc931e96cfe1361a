/*
Package log provides structured logging for the dispatcher using zerolog.

Init writes JSON when Config.JSONOutput is set and human-readable
console output otherwise.
Component loggers (WithComponent, WithTransporter, WithRequest) attach
context fields so a single log stream can be filtered per subsystem or
per entity without passing loggers through every call.
*/
package log
