/*
Package graph implements the weighted, undirected hospital department graph
and its Dijkstra shortest-path routine.

A Graph is built once at startup by a builder (add nodes, add corridors) and
is read-only thereafter; every exported read operation takes an RLock so
concurrent path queries from many transporter movement loops are safe.
*/
package graph
