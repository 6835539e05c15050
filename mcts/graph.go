package mcts

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type labelledNode struct {
	Node
	S         Scores
	HasParent bool
}

const (
	trajectoryColour = "red"   // the search root and its ancestors
	maxReturnColour  = "green" // the node with the highest return of the episode
	defaultColour    = "orange"
)

// ToDot renders the whole tree, including the branches abandoned by root advancement, in the DOT
// language. Each node is labelled with N, U, Q, r, R, PUCT and P.
func (t *MCTS) ToDot() (string, error) {
	t.RLock()
	defer t.RUnlock()

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	trajectory := make(map[NodeID]bool)
	for id := t.root; id.isValid(); id = t.nodes[id].parent {
		trajectory[id] = true
	}

	var buf bytes.Buffer
	for i := range t.nodes {
		n := &t.nodes[i]
		ln := labelledNode{
			Node:      *n,
			S:         t.scores(n),
			HasParent: n.parent.isValid(),
		}
		if err := tmpl.Execute(&buf, ln); err != nil {
			return "", errors.Wrapf(err, "label of %v", n.path)
		}

		colour := defaultColour
		if trajectory[n.id] {
			colour = trajectoryColour
		}
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "ellipse",
			"color":    colour,
			"label":    buf.String(),
		}
		if n.ret == t.maxReturn {
			attrs["color"] = maxReturnColour
			attrs["penwidth"] = "3"
		}
		buf.Reset()
		if err := g.AddNode("G", strconv.Itoa(int(n.id)), attrs); err != nil {
			return "", errors.Wrapf(err, "add node %v", n.path)
		}
	}

	for i, kids := range t.children {
		for _, kid := range kids {
			if err := g.AddEdge(strconv.Itoa(i), strconv.Itoa(int(kid)), true, nil); err != nil {
				return "", errors.Wrapf(err, "add edge %d -> %d", i, kid)
			}
		}
	}
	return g.String(), nil
}

func short(f float64) string { return fmt.Sprintf("%.4g", f) }

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="0" CELLSPACING="0">
<TR><TD>{{.Path}}</TD></TR>
<TR><TD>N: {{.Visits}}</TD></TR>
<TR><TD>U: {{short .S.U}}</TD></TR>
<TR><TD>Q: {{short .S.Q}}</TD></TR>
<TR><TD>r: {{short .Reward}}</TD></TR>
<TR><TD>R: {{short .Return}}</TD></TR>
<TR><TD>PUCT: {{short .S.PUCT}}</TD></TR>
{{if .HasParent}}<TR><TD>P: {{short .S.Prior}}</TD></TR>{{end}}
</TABLE>
>`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("label").Funcs(template.FuncMap{"short": short}).Parse(tmplRaw))
}
