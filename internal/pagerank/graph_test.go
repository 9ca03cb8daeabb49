package pagerank

import (
	"math"
	"testing"
)

func rank(g *Graph) map[string]float64 {
	out := make(map[string]float64)
	g.Rank(0.85, 1e-6, func(node string, score float64) {
		out[node] = score
	})
	return out
}

func TestRank_CycleConvergesToUniform(t *testing.T) {
	g := New()
	g.Link("a", "b", 1)
	g.Link("b", "c", 1)
	g.Link("c", "a", 1)

	scores := rank(g)
	for _, n := range []string{"a", "b", "c"} {
		if math.Abs(scores[n]-1.0/3) > 1e-6 {
			t.Errorf("score[%s] = %.8f, want ~1/3", n, scores[n])
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.Link("a", "b", 2)
		g.Link("a", "c", 1)
		g.Link("b", "c", 1)
		g.Link("c", "a", 3)
		g.Link("d", "c", 1)
		return g
	}
	first := rank(build())
	for i := 0; i < 5; i++ {
		again := rank(build())
		for k, v := range first {
			if again[k] != v {
				t.Fatalf("run %d: score[%s] = %v, want %v", i, k, again[k], v)
			}
		}
	}
}

func TestRank_DanglingNodeRedistributes(t *testing.T) {
	g := New()
	g.Link("a", "sink", 1)
	g.Link("b", "sink", 1)

	scores := rank(g)
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("sum of scores = %v, want ~1", sum)
	}
	if scores["sink"] <= scores["a"] {
		t.Errorf("sink (%v) should outrank a (%v)", scores["sink"], scores["a"])
	}
	if math.Abs(scores["a"]-scores["b"]) > 1e-9 {
		t.Errorf("a and b are symmetric: %v vs %v", scores["a"], scores["b"])
	}
}

func TestRank_WeightsMatter(t *testing.T) {
	g := New()
	g.Link("hub", "heavy", 5)
	g.Link("hub", "light", 1)
	g.Link("heavy", "hub", 1)
	g.Link("light", "hub", 1)

	scores := rank(g)
	if scores["heavy"] <= scores["light"] {
		t.Errorf("heavy (%v) should outrank light (%v)", scores["heavy"], scores["light"])
	}
}

func TestLinkAccumulatesWeight(t *testing.T) {
	g := New()
	g.Link("a", "b", 1)
	g.Link("a", "b", 2)
	if g.Len() != 2 {
		t.Fatalf("len = %d, want 2", g.Len())
	}
	if g.edges[0][1] != 3 || g.nodes[0].outbound != 3 {
		t.Errorf("edge weight = %v, outbound = %v", g.edges[0][1], g.nodes[0].outbound)
	}

	g.Reset()
	if g.Len() != 0 {
		t.Errorf("len after reset = %d", g.Len())
	}
}

func TestLink_IgnoresNonPositiveWeights(t *testing.T) {
	g := New()
	g.Link("a", "b", 0)
	g.Link("a", "c", -2)
	if g.Len() != 0 {
		t.Fatalf("Len = %d, want 0", g.Len())
	}

	g.Link("a", "b", 1)
	g.Link("a", "b", 0)
	g.Link("b", "a", 1)
	scores := rank(g)
	if len(scores) != 2 || math.Abs(scores["a"]-0.5) > 1e-6 {
		t.Errorf("scores = %v, want a and b at ~0.5", scores)
	}
}
