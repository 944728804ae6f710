package pkg

import (
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Node is a kept process in the filtered view of a tree.
type Node struct {
	Cmdline  string  `json:"cmdline"`
	User     string  `json:"user"`
	Children []*Node `json:"children,omitempty"`
}

func (n *Node) JSON() ([]byte, error) {
	return json.MarshalIndent(n, "", "  ")
}

// Build adjusts and filters a copy of the tree and returns the sorted
// view; t itself is left untouched. The returned root stands for the
// synthetic root and is never rendered.
func (f *Formatter) Build(t *Tree) *Node {
	run := NewRun()
	t = t.Clone()

	// filters may look at the adjusted command line of any ancestor
	t.Walk(f.adjust)
	sortProcesses(t.Root)

	root := &Node{Cmdline: t.Root.Cmdline, User: t.Root.User}
	var visit func(p *Process, parent *Node)
	visit = func(p *Process, parent *Node) {
		for _, child := range p.Children {
			if !f.include(child, run) {
				// lift kept descendants to the nearest kept ancestor
				visit(child, parent)
				continue
			}
			node := &Node{Cmdline: child.Cmdline, User: child.User}
			parent.Children = append(parent.Children, node)
			visit(child, node)
		}
	}
	visit(t.Root, root)
	sortNodes(root)
	return root
}

// Format renders the filtered tree in its canonical text form.
func (f *Formatter) Format(t *Tree) string {
	return Serialize(f.Build(t))
}

// Serialize renders every node below root, one per line, children indented
// two spaces deeper than their parent.
func Serialize(root *Node) string {
	var b strings.Builder
	var write func(n *Node, depth int)
	write = func(n *Node, depth int) {
		for _, child := range n.Children {
			b.WriteString(FormatLine(depth, child.Cmdline, child.User))
			b.WriteByte('\n')
			write(child, depth+1)
		}
	}
	write(root, 1)
	return b.String()
}

func FormatLine(depth int, cmdline, user string) string {
	return strings.Repeat("  ", depth) + strings.TrimRight(cmdline, " \t\r\n") + "  {user=" + user + "}"
}

func sortProcesses(p *Process) {
	for _, c := range p.Children {
		sortProcesses(c)
	}
	sort.SliceStable(p.Children, func(i, j int) bool {
		return compareProcesses(p.Children[i], p.Children[j]) < 0
	})
}

// compareProcesses orders by cmdline, user, child count and then the
// already sorted child lists. Pids are ignored so the order does not
// depend on the listing.
func compareProcesses(a, b *Process) int {
	if c := strings.Compare(a.Cmdline, b.Cmdline); c != 0 {
		return c
	}
	if c := strings.Compare(a.User, b.User); c != 0 {
		return c
	}
	if len(a.Children) != len(b.Children) {
		return len(a.Children) - len(b.Children)
	}
	for i := range a.Children {
		if c := compareProcesses(a.Children[i], b.Children[i]); c != 0 {
			return c
		}
	}
	return 0
}

func sortNodes(n *Node) {
	for _, c := range n.Children {
		sortNodes(c)
	}
	sort.SliceStable(n.Children, func(i, j int) bool {
		return compareNodes(n.Children[i], n.Children[j]) < 0
	})
}

func compareNodes(a, b *Node) int {
	if c := strings.Compare(a.Cmdline, b.Cmdline); c != 0 {
		return c
	}
	if c := strings.Compare(a.User, b.User); c != 0 {
		return c
	}
	if len(a.Children) != len(b.Children) {
		return len(a.Children) - len(b.Children)
	}
	for i := range a.Children {
		if c := compareNodes(a.Children[i], b.Children[i]); c != 0 {
			return c
		}
	}
	return 0
}
