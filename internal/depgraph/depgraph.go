// Package depgraph implements the typed dependency DAG over package
// identifiers, with version-annotated edges, cycle detection, topological
// sort, transitive closure, and parallel traversal (spec.md C3).
//
// Storage is backed by gonum's directed graph and topological-sort
// packages, the same combination the build orchestrator this code is
// descended from uses for its own package DAG.
package depgraph

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/lithiumaddons/core/errs"
	"github.com/lithiumaddons/core/internal/version"
)

type graphNode struct {
	id   int64
	name string
}

func (n *graphNode) ID() int64 { return n.id }

// depEdge carries the constraint that the edge's target must satisfy,
// alongside the plain from/to relationship gonum needs.
type depEdge struct {
	from, to *graphNode
	c        version.Constraint
}

func (e *depEdge) From() graph.Node         { return e.from }
func (e *depEdge) To() graph.Node           { return e.to }
func (e *depEdge) ReversedEdge() graph.Edge { return &depEdge{from: e.to, to: e.from, c: e.c} }

// Graph is a mutex-protected dependency DAG keyed by package id.
type Graph struct {
	mu sync.RWMutex

	g          *simple.DirectedGraph
	nodeByName map[string]*graphNode
	versions   map[string]version.Version
	known      map[string]bool // true once AddNode has been called explicitly
	nextID     int64

	// insertion order is tracked independently of gonum's iteration order
	// (which is unspecified) because TopologicalSort's tie-break rule is
	// insertion order of the node.
	nodeOrder []string
	outOrder  map[string][]string // from -> to, in AddEdge call order
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		g:          simple.NewDirectedGraph(),
		nodeByName: make(map[string]*graphNode),
		versions:   make(map[string]version.Version),
		known:      make(map[string]bool),
		outOrder:   make(map[string][]string),
	}
}

func (dg *Graph) ensureNode(name string) *graphNode {
	if n, ok := dg.nodeByName[name]; ok {
		return n
	}
	n := &graphNode{id: dg.nextID, name: name}
	dg.nextID++
	dg.nodeByName[name] = n
	dg.g.AddNode(n)
	dg.nodeOrder = append(dg.nodeOrder, name)
	return n
}

// AddNode inserts a new node or updates the version of an existing one.
func (dg *Graph) AddNode(id string, v version.Version) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	dg.ensureNode(id)
	dg.versions[id] = v
	dg.known[id] = true
}

// AddEdge records that from depends on to, subject to constraint c. If to
// is already known (has an explicit version via AddNode) and its version
// fails c, the edge is rejected with VersionConflict (invariant I2).
func (dg *Graph) AddEdge(from, to string, c version.Constraint) error {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	if dg.known[to] {
		if !version.Evaluate(dg.versions[to], c) {
			return &errs.VersionConflict{Package: to, Version: dg.versions[to].String(), Constraint: c.String()}
		}
	}

	fn := dg.ensureNode(from)
	tn := dg.ensureNode(to)
	dg.g.SetEdge(&depEdge{from: fn, to: tn, c: c})
	dg.outOrder[from] = append(dg.outOrder[from], to)
	return nil
}

// RemoveNode removes a node and every incident edge (invariant I1).
func (dg *Graph) RemoveNode(id string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	n, ok := dg.nodeByName[id]
	if !ok {
		return
	}
	dg.g.RemoveNode(n.id)
	delete(dg.nodeByName, id)
	delete(dg.versions, id)
	delete(dg.known, id)
	delete(dg.outOrder, id)
	for from, tos := range dg.outOrder {
		dg.outOrder[from] = removeString(tos, id)
	}
	dg.nodeOrder = removeString(dg.nodeOrder, id)
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// RemoveEdge removes the edge from -> to, if present.
func (dg *Graph) RemoveEdge(from, to string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()
	fn, fok := dg.nodeByName[from]
	tn, tok := dg.nodeByName[to]
	if !fok || !tok {
		return
	}
	dg.g.RemoveEdge(fn.id, tn.id)
	dg.outOrder[from] = removeString(dg.outOrder[from], to)
}

// HasCycle reports whether the graph currently contains a dependency cycle.
func (dg *Graph) HasCycle() bool {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	return dg.hasCycleLocked()
}

func (dg *Graph) hasCycleLocked() bool {
	_, err := topo.Sort(dg.g)
	return err != nil
}

// CycleMembers returns the ids participating in a dependency cycle, for a
// richer diagnostic than the plain true/false of HasCycle. It is computed
// from gonum's Tarjan strongly-connected-components decomposition: any
// component with more than one node, or a single node with a self-loop, is
// part of a cycle. Returns nil if the graph is acyclic.
func (dg *Graph) CycleMembers() []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	var members []string
	for _, scc := range topo.TarjanSCC(dg.g) {
		if len(scc) > 1 {
			for _, n := range scc {
				members = append(members, n.(*graphNode).name)
			}
			continue
		}
		n := scc[0].(*graphNode)
		if dg.g.HasEdgeFromTo(n.id, n.id) {
			members = append(members, n.name)
		}
	}
	sort.Strings(members)
	return members
}

const (
	white = 0
	gray  = 1
	black = 2
)

// TopologicalSort returns all node ids ordered so that every dependency
// precedes its dependents, or (nil, false) if the graph has a cycle.
// Implemented as a DFS with white/gray/black coloring; a gray-to-gray
// back edge flags a cycle. Ties are broken by insertion order.
func (dg *Graph) TopologicalSort() ([]string, bool) {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	color := make(map[string]int, len(dg.nodeOrder))
	var order []string
	cyclic := false

	var visit func(id string)
	visit = func(id string) {
		if cyclic {
			return
		}
		color[id] = gray
		for _, to := range dg.outOrder[id] {
			switch color[to] {
			case white:
				visit(to)
			case gray:
				cyclic = true
				return
			case black:
				// already finished, safe
			}
			if cyclic {
				return
			}
		}
		color[id] = black
		order = append(order, id)
	}

	for _, id := range dg.nodeOrder {
		if color[id] == white {
			visit(id)
			if cyclic {
				return nil, false
			}
		}
	}
	return order, true
}

// DirectDependencies returns the set of ids that id directly depends on.
func (dg *Graph) DirectDependencies(id string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	n, ok := dg.nodeByName[id]
	if !ok {
		return nil
	}
	var out []string
	for it := dg.g.From(n.id); it.Next(); {
		out = append(out, it.Node().(*graphNode).name)
	}
	sort.Strings(out)
	return out
}

// DirectDependents returns the set of ids that directly depend on id.
func (dg *Graph) DirectDependents(id string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	n, ok := dg.nodeByName[id]
	if !ok {
		return nil
	}
	var out []string
	for it := dg.g.To(n.id); it.Next(); {
		out = append(out, it.Node().(*graphNode).name)
	}
	sort.Strings(out)
	return out
}

// TransitiveDependencies returns every id reachable from id by following
// outgoing (depends-on) edges, excluding id itself.
func (dg *Graph) TransitiveDependencies(id string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()
	if _, ok := dg.nodeByName[id]; !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	var out []string
	var visit func(string)
	visit = func(cur string) {
		for _, to := range dg.outOrder[cur] {
			if !seen[to] {
				seen[to] = true
				out = append(out, to)
				visit(to)
			}
		}
	}
	visit(id)
	sort.Strings(out)
	return out
}

// TraverseInParallel invokes f(id) for every node, guaranteeing that a node
// is never scheduled until all of its outgoing (dependency) targets have
// completed. It implements a work-stealing ready queue: the initial ready
// set is the nodes with no outgoing edges, and completing a node decrements
// the pending-dependency count of each of its dependents, enqueuing any
// that reach zero. Concurrency is bounded by workers; workers <= 0 means
// sequential (single-threaded) execution, which is a legal and correct
// choice per the traversal contract.
//
// If f returns an error for some node, already-started nodes are allowed
// to finish before the first error is returned.
func (dg *Graph) TraverseInParallel(ctx context.Context, workers int, f func(ctx context.Context, id string) error) error {
	dg.mu.RLock()
	pending := make(map[string]int, len(dg.nodeOrder))
	dependents := make(map[string][]string, len(dg.nodeOrder))
	total := len(dg.nodeOrder)
	var ready []string
	for _, id := range dg.nodeOrder {
		deps := dg.outOrder[id]
		pending[id] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, id)
		}
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}
	dg.mu.RUnlock()

	if workers <= 0 {
		workers = 1
	}

	work := make(chan string, total)
	for _, id := range ready {
		work <- id
	}
	if total == 0 {
		close(work)
	}

	var mu sync.Mutex
	completed := 0

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case id, ok := <-work:
					if !ok {
						return nil
					}
					if err := f(ctx, id); err != nil {
						return err
					}
					mu.Lock()
					completed++
					done := completed == total
					var toEnqueue []string
					for _, dependent := range dependents[id] {
						pending[dependent]--
						if pending[dependent] == 0 {
							toEnqueue = append(toEnqueue, dependent)
						}
					}
					if done {
						close(work)
					}
					mu.Unlock()
					for _, next := range toEnqueue {
						select {
						case work <- next:
						case <-ctx.Done():
							return ctx.Err()
						}
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	return eg.Wait()
}
