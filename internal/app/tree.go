package app

// NodeType classifies a schema tree node.
type NodeType int

const (
	NodeFolder NodeType = iota
	NodeTable
	NodeView
	NodeProcedure
	NodeColumn
)

// TreeNode is one entry in the schema explorer tree.
type TreeNode struct {
	Name     string
	Type     NodeType
	Schema   string
	Expanded bool
	Children []*TreeNode
}

// NewFolder creates a collapsed folder node.
func NewFolder(name string) *TreeNode {
	return &TreeNode{Name: name, Type: NodeFolder}
}

// Icon returns the display marker for the node.
func (n *TreeNode) Icon() string {
	switch n.Type {
	case NodeFolder:
		if n.Expanded {
			return "▾"
		}
		return "▸"
	case NodeTable:
		return "⊞"
	case NodeView:
		return "⊡"
	case NodeProcedure:
		return "ƒ"
	case NodeColumn:
		return "·"
	default:
		return " "
	}
}

// VisibleNode pairs a tree node with its depth for display. Node is a
// direct pointer into the tree, so toggling acts on the exact node the
// operator selected rather than the first node sharing its name.
type VisibleNode struct {
	Depth int
	Node  *TreeNode
}

// FlattenTree walks the tree depth-first, descending only into expanded
// nodes, and returns the display order.
func FlattenTree(roots []*TreeNode) []VisibleNode {
	var out []VisibleNode
	var walk func(node *TreeNode, depth int)
	walk = func(node *TreeNode, depth int) {
		out = append(out, VisibleNode{Depth: depth, Node: node})
		if node.Expanded {
			for _, child := range node.Children {
				walk(child, depth+1)
			}
		}
	}
	for _, root := range roots {
		walk(root, 0)
	}
	return out
}
