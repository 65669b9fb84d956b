package epub

import (
	"fmt"
	"strings"
)

// TocTreeNode is one node of the navigation tree. Depth is 0 for roots.
// Children are in playOrder, mirroring the parsed navigation map.
type TocTreeNode struct {
	PlayOrder int
	Title     string
	Src       string
	ID        string
	Depth     int
	Children  []*TocTreeNode
}

// IsLeaf reports whether the node has no children.
func (n *TocTreeNode) IsLeaf() bool { return len(n.Children) == 0 }

// nodeByPath descends through Children by index. An empty path addresses
// the node itself; an out-of-range index addresses nothing.
func (n *TocTreeNode) nodeByPath(path []int) (*TocTreeNode, bool) {
	node := n
	for _, i := range path {
		if i < 0 || i >= len(node.Children) {
			return nil, false
		}
		node = node.Children[i]
	}
	return node, true
}

// TocStats summarizes the shape of a navigation tree. MaxDepth counts
// levels: a tree whose deepest node sits D-1 levels below a root reports D.
type TocStats struct {
	TotalNodes int
	MaxDepth   int
	LeafCount  int
	RootCount  int
}

// TocTree is the table of contents as a navigable tree. It holds no
// archive state; node srcs are resolved against the archive by the Book
// facade.
type TocTree struct {
	Title string
	Roots []*TocTreeNode
}

// NewTocTree builds a tree from a parsed NCX navigation map. The input is
// copied, so the tree stays valid however the NCX is used afterwards.
func NewTocTree(ncx *NCX) *TocTree {
	t := &TocTree{}
	if ncx == nil {
		return t
	}
	t.Title = ncx.DocTitle
	for _, p := range ncx.NavPoints {
		t.Roots = append(t.Roots, buildTocNode(p, 0))
	}
	return t
}

func buildTocNode(p *NavPoint, depth int) *TocTreeNode {
	n := &TocTreeNode{
		PlayOrder: p.PlayOrder,
		Title:     p.Label,
		Src:       p.Src,
		ID:        p.ID,
		Depth:     depth,
	}
	for _, c := range p.Children {
		n.Children = append(n.Children, buildTocNode(c, depth+1))
	}
	return n
}

// NodeByPath addresses a node by child indices: path[0] selects the root,
// each following index a child. An empty path addresses nothing.
func (t *TocTree) NodeByPath(path []int) (*TocTreeNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	i := path[0]
	if i < 0 || i >= len(t.Roots) {
		return nil, false
	}
	return t.Roots[i].nodeByPath(path[1:])
}

// FirstNode returns the first root, or nil for an empty tree.
func (t *TocTree) FirstNode() *TocTreeNode {
	if len(t.Roots) == 0 {
		return nil
	}
	return t.Roots[0]
}

// FirstChildOfRoot returns the first child of root i.
func (t *TocTree) FirstChildOfRoot(i int) (*TocTreeNode, bool) {
	if i < 0 || i >= len(t.Roots) || len(t.Roots[i].Children) == 0 {
		return nil, false
	}
	return t.Roots[i].Children[0], true
}

// NextSibling returns the node at the same level directly after the node
// addressed by path.
func (t *TocTree) NextSibling(path []int) (*TocTreeNode, bool) {
	return t.sibling(path, 1)
}

// PrevSibling returns the node at the same level directly before the node
// addressed by path. The first sibling has none.
func (t *TocTree) PrevSibling(path []int) (*TocTreeNode, bool) {
	return t.sibling(path, -1)
}

func (t *TocTree) sibling(path []int, delta int) (*TocTreeNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	last := path[len(path)-1] + delta
	if last < 0 {
		return nil, false
	}
	adjusted := make([]int, len(path))
	copy(adjusted, path)
	adjusted[len(adjusted)-1] = last
	return t.NodeByPath(adjusted)
}

// FindByID returns the first node with the given id, depth-first.
func (t *TocTree) FindByID(id string) (*TocTreeNode, bool) {
	return t.find(func(n *TocTreeNode) bool { return n.ID == id })
}

// FindBySrc returns the first node with the given src, depth-first.
func (t *TocTree) FindBySrc(src string) (*TocTreeNode, bool) {
	return t.find(func(n *TocTreeNode) bool { return n.Src == src })
}

func (t *TocTree) find(match func(*TocTreeNode) bool) (*TocTreeNode, bool) {
	var found *TocTreeNode
	t.walk(func(n *TocTreeNode, _ []int) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// walk visits every node depth-first in document order, passing its path.
// The visit function returns false to stop early.
func (t *TocTree) walk(visit func(n *TocTreeNode, path []int) bool) {
	var rec func(n *TocTreeNode, path []int) bool
	rec = func(n *TocTreeNode, path []int) bool {
		if !visit(n, path) {
			return false
		}
		for i, c := range n.Children {
			if !rec(c, append(append([]int{}, path...), i)) {
				return false
			}
		}
		return true
	}
	for i, r := range t.Roots {
		if !rec(r, []int{i}) {
			return
		}
	}
}

// Statistics computes the tree shape summary.
func (t *TocTree) Statistics() TocStats {
	var s TocStats
	s.RootCount = len(t.Roots)
	t.walk(func(n *TocTreeNode, _ []int) bool {
		s.TotalNodes++
		if n.IsLeaf() {
			s.LeafCount++
		}
		if n.Depth+1 > s.MaxDepth {
			s.MaxDepth = n.Depth + 1
		}
		return true
	})
	return s
}

// AllTitles returns every node title in document order.
func (t *TocTree) AllTitles() []string {
	var out []string
	t.walk(func(n *TocTreeNode, _ []int) bool {
		out = append(out, n.Title)
		return true
	})
	return out
}

// AllPaths returns the path of every node in document order.
func (t *TocTree) AllPaths() [][]int {
	var out [][]int
	t.walk(func(_ *TocTreeNode, path []int) bool {
		p := make([]int, len(path))
		copy(p, path)
		out = append(out, p)
		return true
	})
	return out
}

// String renders the tree with box-drawing connectors, one node per line.
func (t *TocTree) String() string {
	var b strings.Builder
	for _, root := range t.Roots {
		writeTocNode(&b, root, "")
	}
	return b.String()
}

func writeTocNode(b *strings.Builder, n *TocTreeNode, prefix string) {
	fmt.Fprintf(b, "%s%s\n", prefix, n.Title)
	for i, c := range n.Children {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(n.Children)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		writeTocChild(b, c, prefix+connector, childPrefix)
	}
}

func writeTocChild(b *strings.Builder, n *TocTreeNode, linePrefix, childPrefix string) {
	fmt.Fprintf(b, "%s%s\n", linePrefix, n.Title)
	for i, c := range n.Children {
		connector := "├── "
		next := childPrefix + "│   "
		if i == len(n.Children)-1 {
			connector = "└── "
			next = childPrefix + "    "
		}
		writeTocChild(b, c, childPrefix+connector, next)
	}
}
