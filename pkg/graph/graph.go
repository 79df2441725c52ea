package graph

// Node is one (mention, candidate) hypothesis. ID is the node's index in the
// owning Graph and doubles as its row/column in every matrix built from it.
type Node struct {
	ID        int     `json:"id"`
	Mention   string  `json:"mention"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Graph is an arena of candidate nodes with an undirected, simple edge
// relation over node indices. Edges between two nodes of the same mention
// are refused on insertion.
type Graph struct {
	nodes []Node
	adj   []map[int]struct{}

	mentions     []string
	mentionNodes map[string][]int
	edgeCount    int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		mentionNodes: make(map[string][]int),
	}
}

// AddCandidates appends one node per candidate for mention. Candidates are
// not deduplicated and an empty list adds nothing.
func (g *Graph) AddCandidates(mention string, candidates []string) {
	for _, c := range candidates {
		id := len(g.nodes)
		g.nodes = append(g.nodes, Node{ID: id, Mention: mention, Candidate: c})
		g.adj = append(g.adj, nil)
		if _, ok := g.mentionNodes[mention]; !ok {
			g.mentions = append(g.mentions, mention)
		}
		g.mentionNodes[mention] = append(g.mentionNodes[mention], id)
	}
}

// AddEdge connects u and v. It returns false when the edge is not allowed
// (out of range, self loop, same mention) or already present.
func (g *Graph) AddEdge(u, v int) bool {
	if u < 0 || v < 0 || u >= len(g.nodes) || v >= len(g.nodes) || u == v {
		return false
	}
	if g.nodes[u].Mention == g.nodes[v].Mention {
		return false
	}
	if g.HasEdge(u, v) {
		return false
	}
	if g.adj[u] == nil {
		g.adj[u] = make(map[int]struct{})
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[int]struct{})
	}
	g.adj[u][v] = struct{}{}
	g.adj[v][u] = struct{}{}
	g.edgeCount++
	return true
}

// HasEdge reports whether u and v are connected.
func (g *Graph) HasEdge(u, v int) bool {
	if u < 0 || u >= len(g.adj) {
		return false
	}
	_, ok := g.adj[u][v]
	return ok
}

// Degree returns the number of neighbours of node id.
func (g *Graph) Degree(id int) int {
	return len(g.adj[id])
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Node returns a copy of node id.
func (g *Graph) Node(id int) Node { return g.nodes[id] }

// Nodes returns a copy of all nodes in ID order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Mentions returns the mentions that own at least one node, in order of
// first appearance.
func (g *Graph) Mentions() []string {
	out := make([]string, len(g.mentions))
	copy(out, g.mentions)
	return out
}

// MentionNodes returns the node IDs of mention in insertion order.
func (g *Graph) MentionNodes(mention string) []int {
	return g.mentionNodes[mention]
}

// Candidates returns every distinct candidate title in first-seen order.
func (g *Graph) Candidates() []string {
	seen := make(map[string]struct{}, len(g.nodes))
	out := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		if _, ok := seen[n.Candidate]; ok {
			continue
		}
		seen[n.Candidate] = struct{}{}
		out = append(out, n.Candidate)
	}
	return out
}

func (g *Graph) setScore(id int, score float64) {
	g.nodes[id].Score = score
}
