// Package pagerank scores the nodes of a weighted directed graph by importance.
package pagerank

import "math"

type node struct {
	score    float64
	outbound float64
}

// Graph accumulates weighted directed edges. Nodes are iterated in the order
// they were first seen so that ranking is deterministic.
type Graph struct {
	index map[string]int
	names []string
	nodes []node
	edges []map[int]float64
	order [][]int
}

// New returns an empty graph.
func New() *Graph {
	g := &Graph{}
	g.Reset()
	return g
}

// Reset removes every node and edge.
func (g *Graph) Reset() {
	g.index = make(map[string]int)
	g.names = nil
	g.nodes = nil
	g.edges = nil
	g.order = nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) id(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.nodes)
	g.index[name] = i
	g.names = append(g.names, name)
	g.nodes = append(g.nodes, node{})
	g.edges = append(g.edges, make(map[int]float64))
	g.order = append(g.order, nil)
	return i
}

// Link adds weight to the edge source -> target. Weights are link counts, so
// a non-positive weight adds neither the edge nor its nodes.
func (g *Graph) Link(source, target string, weight float64) {
	if weight <= 0 {
		return
	}
	s, t := g.id(source), g.id(target)
	if _, ok := g.edges[s][t]; !ok {
		g.order[s] = append(g.order[s], t)
	}
	g.edges[s][t] += weight
	g.nodes[s].outbound += weight
}

// Rank runs power iteration until the summed absolute change of all scores
// drops to epsilon or below, then calls fn once per node in insertion order.
// Dangling nodes spread their score evenly over all nodes.
// The graph must not be empty.
func (g *Graph) Rank(damping, epsilon float64, fn func(node string, score float64)) {
	n := float64(len(g.nodes))

	prob := make([]map[int]float64, len(g.nodes))
	for s := range g.nodes {
		prob[s] = make(map[int]float64, len(g.edges[s]))
		if g.nodes[s].outbound == 0 {
			continue
		}
		for t, w := range g.edges[s] {
			prob[s][t] = w / g.nodes[s].outbound
		}
	}

	for i := range g.nodes {
		g.nodes[i].score = 1 / n
	}

	prev := make([]float64, len(g.nodes))
	for delta := math.Inf(1); delta > epsilon; {
		leak := 0.0
		for i := range g.nodes {
			prev[i] = g.nodes[i].score
			if g.nodes[i].outbound == 0 {
				leak += prev[i]
			}
			g.nodes[i].score = 0
		}
		leak *= damping

		for s := range g.nodes {
			for _, t := range g.order[s] {
				g.nodes[t].score += damping * prev[s] * prob[s][t]
			}
			g.nodes[s].score += (1-damping)/n + leak/n
		}

		delta = 0
		for i := range g.nodes {
			delta += math.Abs(g.nodes[i].score - prev[i])
		}
	}

	for i, name := range g.names {
		fn(name, g.nodes[i].score)
	}
}
