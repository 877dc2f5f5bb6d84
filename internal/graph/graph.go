package graph

import (
	"sort"

	"github.com/gnomegl/iceslurp/internal/models"
	"github.com/gnomegl/iceslurp/internal/store"
)

type Node struct {
	ID        models.AccountID
	Handle    string
	Followers int
}

// Edge points from a follower to the account it follows. Weight counts
// repeated entries in the follower list.
type Edge struct {
	Source models.AccountID
	Target models.AccountID
	Weight int
}

type edgeKey struct {
	source, target models.AccountID
}

// Graph is a drawable subset of the crawl state. Nodes and edges keep the
// order of the relationship store so every writer is deterministic.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	index map[models.AccountID]*Node
	edges map[edgeKey]*Edge
}

func NewGraph() *Graph {
	return &Graph{
		index: make(map[models.AccountID]*Node),
		edges: make(map[edgeKey]*Edge),
	}
}

func (g *Graph) AddNode(node *Node) bool {
	if _, exists := g.index[node.ID]; exists {
		return false
	}
	g.index[node.ID] = node
	g.Nodes = append(g.Nodes, node)
	return true
}

func (g *Graph) HasNode(id models.AccountID) bool {
	_, exists := g.index[id]
	return exists
}

func (g *Graph) Node(id models.AccountID) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

func (g *Graph) AddEdge(source, target models.AccountID) {
	key := edgeKey{source, target}
	if existing, ok := g.edges[key]; ok {
		existing.Weight++
		return
	}
	e := &Edge{Source: source, Target: target, Weight: 1}
	g.edges[key] = e
	g.Edges = append(g.Edges, e)
}

func (g *Graph) NodeCount() int { return len(g.Nodes) }

func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Build draws every account with a known handle whose follower list passes
// the filters, and a follower -> followed edge wherever both ends are drawn.
func Build(state *store.State, filters Filters) *Graph {
	var candidates []*Node
	for _, id := range state.Relationships.IDs() {
		handle, ok := state.Identities.Handle(id)
		if !ok {
			continue
		}
		followers := len(state.Relationships.Followers(id))
		if !filters.Passes(followers) {
			continue
		}
		candidates = append(candidates, &Node{ID: id, Handle: handle, Followers: followers})
	}

	if filters.OverLimit(len(candidates)) {
		candidates = mostFollowed(candidates, filters.MaxNodes)
	}

	g := NewGraph()
	for _, n := range candidates {
		g.AddNode(n)
	}
	for _, n := range g.Nodes {
		for _, follower := range state.Relationships.Followers(n.ID) {
			if g.HasNode(follower) {
				g.AddEdge(follower, n.ID)
			}
		}
	}
	return g
}

// mostFollowed keeps the limit most followed nodes, preserving their
// original order.
func mostFollowed(nodes []*Node, limit int) []*Node {
	ranked := make([]int, len(nodes))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return nodes[ranked[a]].Followers > nodes[ranked[b]].Followers
	})
	ranked = ranked[:limit]
	sort.Ints(ranked)

	kept := make([]*Node, 0, limit)
	for _, i := range ranked {
		kept = append(kept, nodes[i])
	}
	return kept
}
