// internal/layout/layout.go
// Package layout turns a reasoning graph into drawable node positions.
//
// Nodes are placed in four fixed rows, one per council stage. This is not a
// general DAG layout: the ranking row and the synthesis node are centered
// under the initial answer row regardless of the edges.
package layout

import (
	"fmt"
	"strings"

	"synapse/internal/council"
)

// Tiers is the row order, top to bottom. A node whose type is not listed is
// placed in the first tier so it is always visible.
var Tiers = []council.NodeType{
	council.NodeInitialAnswer,
	council.NodeCritique,
	council.NodeRanking,
	council.NodeSynthesis,
}

// Options holds the layout geometry
type Options struct {
	TopMargin  float64 `yaml:"top_margin"`
	RowSpacing float64 `yaml:"row_spacing"`
	Pitch      float64 `yaml:"pitch"`
	LeftMargin float64 `yaml:"left_margin"`
	NodeWidth  float64 `yaml:"node_width"`
}

// DefaultOptions returns the stock geometry
func DefaultOptions() Options {
	return Options{
		TopMargin:  50,
		RowSpacing: 150,
		Pitch:      200,
		LeftMargin: 0,
		NodeWidth:  150,
	}
}

// Position is a top-left coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeStyle is a renderer-neutral style descriptor
type NodeStyle struct {
	Background   string  `json:"background"`
	Color        string  `json:"color"`
	Border       string  `json:"border"`
	BorderRadius int     `json:"borderRadius"`
	FontSize     int     `json:"fontSize"`
	Width        float64 `json:"width"`
	TextAlign    string  `json:"textAlign"`
}

// EdgeStyle is a renderer-neutral edge style
type EdgeStyle struct {
	Stroke string `json:"stroke"`
}

// Node is a positioned graph node
type Node struct {
	ID       string           `json:"id"`
	Label    string           `json:"label"`
	Type     council.NodeType `json:"type"`
	Tier     int              `json:"tier"`
	Position Position         `json:"position"`
	Style    NodeStyle        `json:"style"`
}

// Edge is a drawable edge. Source and Target are passed through unresolved.
type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    string    `json:"label"`
	Animated bool      `json:"animated"`
	Style    EdgeStyle `json:"style"`
}

// Result is the layout of one graph. Both slices are non-nil.
type Result struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Layout lays g out with the default geometry
func Layout(g *council.ReasoningGraph) Result {
	return DefaultOptions().Layout(g)
}

// Layout lays g out. It never fails; a nil or empty graph yields an empty result.
func (o Options) Layout(g *council.ReasoningGraph) Result {
	res := Result{Nodes: []Node{}, Edges: []Edge{}}
	if g == nil {
		return res
	}

	rows := Partition(g.Nodes)
	nInitial := float64(len(rows[0]))

	for tier, row := range rows {
		y := o.TopMargin + float64(tier)*o.RowSpacing
		start := o.LeftMargin
		switch Tiers[tier] {
		case council.NodeRanking:
			start += (nInitial - float64(len(row))) * o.Pitch / 2
		case council.NodeSynthesis:
			// every synthesis node shares the center of the initial answer row
			center := o.LeftMargin + nInitial*o.Pitch/2
			for _, n := range row {
				res.Nodes = append(res.Nodes, o.node(n, tier, Position{X: center, Y: y}))
			}
			continue
		}
		for i, n := range row {
			res.Nodes = append(res.Nodes, o.node(n, tier, Position{X: start + float64(i)*o.Pitch, Y: y}))
		}
	}

	for i, e := range g.Edges {
		res.Edges = append(res.Edges, Edge{
			ID:       fmt.Sprintf("e%d", i),
			Source:   e.From,
			Target:   e.To,
			Label:    e.Relation,
			Animated: true,
			Style:    EdgeStyle{Stroke: "#4b5563"},
		})
	}
	return res
}

// Partition buckets nodes by tier, keeping input order within each tier
func Partition(nodes []council.GraphNode) [][]council.GraphNode {
	rows := make([][]council.GraphNode, len(Tiers))
	for _, n := range nodes {
		t := TierOf(n.Type)
		rows[t] = append(rows[t], n)
	}
	return rows
}

// TierOf returns the row index for a node type; unknown types map to 0
func TierOf(t council.NodeType) int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return 0
}

// Label is the two-line node caption: the upper-cased role, then the model
// name without its vendor prefix.
func Label(n council.GraphNode) string {
	return strings.ToUpper(n.Role) + "\n" + council.ShortModel(n.Model)
}

func (o Options) node(n council.GraphNode, tier int, pos Position) Node {
	return Node{
		ID:       n.ID,
		Label:    Label(n),
		Type:     n.Type,
		Tier:     tier,
		Position: pos,
		Style: NodeStyle{
			Background:   "#18181b",
			Color:        "#fff",
			Border:       "1px solid #3f3f46",
			BorderRadius: 8,
			FontSize:     12,
			Width:        o.NodeWidth,
			TextAlign:    "center",
		},
	}
}

// Bounds returns the bottom-right extent of the laid out nodes
func (r Result) Bounds(nodeWidth float64) (width, height float64) {
	for _, n := range r.Nodes {
		width = max(width, n.Position.X+nodeWidth)
		height = max(height, n.Position.Y)
	}
	return width, height
}
