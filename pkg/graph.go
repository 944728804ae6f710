package pkg

import (
	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// checkCycles fails when the parent links do not form a tree. A corrupt
// listing could otherwise make the serializer recurse forever.
func checkCycles(t *Tree) error {
	g := simple.NewDirectedGraph()
	for pid := range t.ByPid {
		g.AddNode(simple.Node(int64(pid)))
	}
	for pid, p := range t.ByPid {
		if p.Parent == nil {
			continue
		}
		if p.Parent == p {
			return pkgerrors.Wrapf(ErrCycle, "pid %d is its own parent", pid)
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(p.Parent.Pid)), simple.Node(int64(pid))))
	}
	if _, err := topo.Sort(g); err != nil {
		return pkgerrors.Wrap(ErrCycle, err.Error())
	}
	return nil
}
