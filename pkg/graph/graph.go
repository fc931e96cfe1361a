package graph

import (
	"container/heap"
	"fmt"
	"sync"
)

// Neighbor is one hop out of a node: the node reached and the edge weight.
type Neighbor struct {
	Node   string
	Weight float64
}

// Graph is a weighted, undirected graph of hospital departments ("nodes")
// connected by corridors ("edges"). It is safe for concurrent reads; the
// builder methods (AddNode, AddEdge) are expected to run once at startup
// before any reader goroutine is started.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]bool
	adj   map[string]map[string]float64
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		adj:   make(map[string]map[string]float64),
	}
}

// AddNode registers a department. It is a no-op if the node already exists.
func (g *Graph) AddNode(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(name)
}

func (g *Graph) addNodeLocked(name string) {
	if g.nodes[name] {
		return
	}
	g.nodes[name] = true
	g.adj[name] = make(map[string]float64)
}

// AddEdge adds a symmetric corridor between u and v with the given weight
// in seconds. Both endpoints are created if they don't already exist.
// Weight must be positive.
func (g *Graph) AddEdge(u, v string, weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("graph: edge weight must be positive, got %v", weight)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(u)
	g.addNodeLocked(v)
	g.adj[u][v] = weight
	g.adj[v][u] = weight
	return nil
}

// HasNode reports whether name is a known department.
func (g *Graph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[name]
}

// Nodes returns the set of department names in the graph.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// EdgeWeight returns the weight of the corridor between u and v, and
// whether it exists.
func (g *Graph) EdgeWeight(u, v string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.adj[u][v]
	return w, ok
}

// Neighbors returns the departments directly reachable from u.
func (g *Graph) Neighbors(u string) []Neighbor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Neighbor, 0, len(g.adj[u]))
	for v, w := range g.adj[u] {
		out = append(out, Neighbor{Node: v, Weight: w})
	}
	return out
}

// pqItem is one entry of the Dijkstra frontier.
type pqItem struct {
	node string
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	// Deterministic tie-break: lower lexicographic node name first.
	return pq[i].node < pq[j].node
}
func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)   { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra from src to dst and returns the node sequence
// and its total weight. ok is false if dst is unreachable from src (a
// normal planning outcome, not an error). src == dst returns a single-node
// path with weight 0.
func (g *Graph) ShortestPath(src, dst string) (path []string, weight float64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.nodes[src] || !g.nodes[dst] {
		return nil, 0, false
	}
	if src == dst {
		return []string{src}, 0, true
	}

	dist := map[string]float64{src: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{node: src, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == dst {
			break
		}

		neighbors := make([]string, 0, len(g.adj[cur.node]))
		for v := range g.adj[cur.node] {
			neighbors = append(neighbors, v)
		}
		sortStrings(neighbors)

		for _, v := range neighbors {
			if visited[v] {
				continue
			}
			w := g.adj[cur.node][v]
			nd := cur.dist + w
			if existing, seen := dist[v]; !seen || nd < existing {
				dist[v] = nd
				prev[v] = cur.node
				heap.Push(pq, pqItem{node: v, dist: nd})
			}
		}
	}

	finalDist, reached := dist[dst]
	if !reached {
		return nil, 0, false
	}

	// Reconstruct path by walking prev pointers back to src.
	rev := []string{dst}
	for n := dst; n != src; {
		p, ok := prev[n]
		if !ok {
			return nil, 0, false
		}
		rev = append(rev, p)
		n = p
	}
	path = make([]string, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path, finalDist, true
}

// sortStrings is a tiny insertion sort; neighbor fan-out per node in a
// hospital graph is small (a handful of corridors), so this avoids pulling
// in sort for what is effectively a constant-size slice.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Connected reports whether every node in the graph is reachable from
// start. Used by builders to validate the connectivity invariant after
// construction.
func (g *Graph) Connected(start string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.nodes[start] {
		return len(g.nodes) == 0
	}

	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for v := range g.adj[n] {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}
	return len(seen) == len(g.nodes)
}
