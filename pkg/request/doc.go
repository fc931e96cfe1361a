/*
Package request implements the transport request lifecycle: pending,
ongoing, completed, cancelled. Terminal states never regress; cancelled
is absorbing.
*/
package request
