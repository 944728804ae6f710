package pkg

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/goccy/go-graphviz"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type dotNode struct {
	ID    string
	Label string
	Attrs dotAttrs
}

type dotEdge struct {
	From  string
	To    string
	Attrs dotAttrs
}

func (n dotNode) String() string {
	return fmt.Sprintf("%s [ label=%q %s ]", n.ID, n.Label, n.Attrs)
}

func (e dotEdge) String() string {
	return fmt.Sprintf("%s -> %s [ %s ]", e.From, e.To, e.Attrs)
}

type dotAttrs map[string]string

func (p dotAttrs) List() []string {
	var l []string
	for k, v := range p {
		l = append(l, fmt.Sprintf("%s=%q", k, v))
	}
	// map order is random, keep output stable
	sort.Strings(l)
	return l
}

func (p dotAttrs) String() string {
	return strings.Join(p.List(), " ")
}

type dotGraphData struct {
	Title string
	Nodes []*dotNode
	Edges []*dotEdge
}

// DotRender draws a filtered process view with graphviz.
type DotRender struct {
	engine *graphviz.Graphviz
}

func NewDotRender() *DotRender {
	return &DotRender{engine: graphviz.New()}
}

func (r *DotRender) Close() error {
	return r.engine.Close()
}

// Dot returns the graph source for root.
func (r *DotRender) Dot(root *Node, title string) ([]byte, error) {
	t := template.New("dot")
	for _, s := range []string{tmplNode, tmplEdge, tmplGraph} {
		if _, err := t.Parse(s); err != nil {
			return nil, pkgerrors.Wrap(err, "parse dot template")
		}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, toDotData(root, title)); err != nil {
		return nil, pkgerrors.Wrap(err, "execute dot template")
	}
	return buf.Bytes(), nil
}

// Write renders root to output in the given format (dot, png or svg).
func (r *DotRender) Write(root *Node, output string, format string) error {
	data, err := r.Dot(root, fmt.Sprintf("%s (%s)", "psdiff", time.Now().Format(time.RFC3339)))
	if err != nil {
		return err
	}
	graph, err := graphviz.ParseBytes(data)
	if err != nil {
		return pkgerrors.Wrap(err, "parse dot")
	}
	defer graph.Close()

	var f graphviz.Format
	switch format {
	case "", "dot":
		f = graphviz.Format(graphviz.DOT)
	case "png":
		f = graphviz.PNG
	case "svg":
		f = graphviz.SVG
	default:
		return fmt.Errorf("unknown graph format %q", format)
	}
	if err := r.engine.RenderFilename(graph, f, output); err != nil {
		return pkgerrors.Wrapf(err, "render %s", output)
	}
	logrus.WithField("output", output).Infoln("graph written")
	return nil
}

func toDotData(root *Node, title string) *dotGraphData {
	data := &dotGraphData{Title: title}
	var walk func(n *Node, id string)
	walk = func(n *Node, id string) {
		for i, child := range n.Children {
			childID := id + "_" + strconv.Itoa(i)
			data.Nodes = append(data.Nodes, &dotNode{
				ID:    childID,
				Label: child.Cmdline + "\n{user=" + child.User + "}",
				Attrs: dotAttrs{},
			})
			if n != root {
				data.Edges = append(data.Edges, &dotEdge{
					From:  id,
					To:    childID,
					Attrs: dotAttrs{"color": "red"},
				})
			}
			walk(child, childID)
		}
	}
	walk(root, "n")
	return data
}
