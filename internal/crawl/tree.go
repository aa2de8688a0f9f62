package crawl

// Status is the lifecycle state of a node.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDownloaded Status = "downloaded"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// NoParent marks the root node.
const NoParent = -1

// Node is one artist in the crawl tree. Nodes reference each other by
// index into the arena, never by pointer.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Parent   int    `json:"parent"`
	Children []int  `json:"children,omitempty"`
	TargetID string `json:"target_id,omitempty"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Tree is an append-only arena of nodes. It is not safe for concurrent use;
// the crawler serializes access with its own mutex.
type Tree struct {
	nodes []Node
}

func newTree() *Tree {
	return &Tree{}
}

// add appends a node and links it under parent. Returns the new index.
func (t *Tree) add(parent int, id, name string, depth int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:     id,
		Name:   name,
		Depth:  depth,
		Parent: parent,
		Status: StatusPending,
	})
	if parent != NoParent {
		t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	}
	return idx
}

func (t *Tree) node(idx int) *Node {
	return &t.nodes[idx]
}

func (t *Tree) len() int {
	return len(t.nodes)
}

// snapshot deep-copies the arena.
func (t *Tree) snapshot() Snapshot {
	nodes := make([]Node, len(t.nodes))
	for i, n := range t.nodes {
		if n.Children != nil {
			n.Children = append([]int(nil), n.Children...)
		}
		nodes[i] = n
	}
	return Snapshot{Nodes: nodes}
}

// Snapshot is an immutable copy of the tree handed to observers.
type Snapshot struct {
	RunID string `json:"run_id,omitempty"`
	Nodes []Node `json:"nodes"`
}

// Root returns the root node, or false for an empty snapshot.
func (s Snapshot) Root() (Node, bool) {
	if len(s.Nodes) == 0 {
		return Node{}, false
	}
	return s.Nodes[0], true
}

// Walk visits nodes depth-first in discovery order. lineage holds, for each
// level below the root down to n itself, whether that node is the last
// child of its parent. The root gets an empty lineage.
func (s Snapshot) Walk(fn func(n Node, lineage []bool)) {
	if len(s.Nodes) == 0 {
		return
	}
	var visit func(idx int, lineage []bool)
	visit = func(idx int, lineage []bool) {
		n := s.Nodes[idx]
		fn(n, lineage)
		for i, c := range n.Children {
			if c <= idx || c >= len(s.Nodes) {
				continue
			}
			next := append(lineage[:len(lineage):len(lineage)], i == len(n.Children)-1)
			visit(c, next)
		}
	}
	visit(0, nil)
}

// Count returns the number of nodes with the given status.
func (s Snapshot) Count(status Status) int {
	n := 0
	for _, node := range s.Nodes {
		if node.Status == status {
			n++
		}
	}
	return n
}
