package graph

import (
	"fmt"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

type Field struct {
	Name, Value string
}

type Child struct {
	Name string
	Node *Node
}

// Node is a renderable tree node. Fields and children keep their insertion order.
type Node struct {
	Name     string
	Fields   []Field
	Children []Child
}

func NewNode(name string) *Node {
	return &Node{
		Name: name,
	}
}

func (n *Node) AddField(name, value string) {
	n.Fields = append(n.Fields, Field{
		Name:  name,
		Value: value,
	})
}

func (n *Node) AddChild(name string, node *Node) {
	n.Children = append(n.Children, Child{
		Name: name,
		Node: node,
	})
}

type Visualizer interface {
	Visualize() *Node
}

// Show builds a left-to-right dot graph of the tree, one record shaped vertex per node.
func Show(node *Node) (*gographviz.Graph, error) {
	graph := gographviz.NewGraph()
	graph.Directed = true
	if err := graph.AddAttr("", "rankdir", "LR"); err != nil {
		return nil, errors.Wrap(err, "couldn't set graph direction")
	}
	builder := &graphBuilder{
		graph: graph,
	}

	if _, err := builder.addNode(node); err != nil {
		return nil, err
	}

	return graph, nil
}

type graphBuilder struct {
	graph     *gographviz.Graph
	nodeCount int
}

func (gb *graphBuilder) getID() string {
	id := fmt.Sprintf("node_%d", gb.nodeCount)
	gb.nodeCount++
	return id
}

func (gb *graphBuilder) addNode(node *Node) (string, error) {
	fields := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		fields[i] = fmt.Sprintf("%s: %s", escapeLabel(field.Name), escapeLabel(field.Value))
	}
	childPorts := make([]string, len(node.Children))
	for i, child := range node.Children {
		childPorts[i] = fmt.Sprintf("<c%d> %s", i, escapeLabel(child.Name))
	}

	var labelParts []string
	labelParts = append(labelParts, fmt.Sprintf("<f0> %s", escapeLabel(node.Name)))

	if len(fields) > 0 {
		labelParts = append(labelParts, strings.Join(fields, "|"))
	}
	if len(childPorts) > 0 {
		labelParts = append(labelParts, strings.Join(childPorts, "|"))
	}

	label := fmt.Sprintf(
		"\"{{%s}}\"",
		strings.Join(labelParts, "}|{"),
	)

	id := gb.getID()
	err := gb.graph.AddNode("", id, map[string]string{
		"shape": "record",
		"label": label,
	})
	if err != nil {
		return "", errors.Wrapf(err, "couldn't add node %s", node.Name)
	}

	for i, child := range node.Children {
		childID, err := gb.addNode(child.Node)
		if err != nil {
			return "", err
		}
		if err := gb.graph.AddPortEdge(id, fmt.Sprintf("c%d", i), childID, "", true, map[string]string{}); err != nil {
			return "", errors.Wrapf(err, "couldn't add edge to child %s", child.Name)
		}
	}
	return id, nil
}

var labelReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"<", `\<`,
	">", `\>`,
	"{", `\{`,
	"}", `\}`,
	"|", `\|`,
)

func escapeLabel(s string) string {
	return labelReplacer.Replace(s)
}
