package council

import "strings"

// NodeType tags a reasoning graph node with the stage that produced it.
// The backend may send types this client does not know; those are kept verbatim.
type NodeType string

const (
	NodeInitialAnswer NodeType = "initial_answer"
	NodeCritique      NodeType = "critique"
	NodeRanking       NodeType = "ranking"
	NodeSynthesis     NodeType = "synthesis"
)

// GraphNode is one model contribution in the reasoning graph
type GraphNode struct {
	ID        string   `json:"id"`
	Type      NodeType `json:"type"`
	Role      string   `json:"role"`
	Model     string   `json:"model"`
	Text      string   `json:"text,omitempty"`
	ParentIDs []string `json:"parent_ids,omitempty"`
}

// GraphEdge is a named relation between two nodes ("critiques", "informs", ...)
type GraphEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// ReasoningGraph describes how the final answer was derived. It is owned by the
// backend and treated as read-only here.
type ReasoningGraph struct {
	Question            string             `json:"question,omitempty"`
	ModelsUsed          []string           `json:"models_used,omitempty"`
	Nodes               []GraphNode        `json:"nodes"`
	Edges               []GraphEdge        `json:"edges"`
	SimilarityMatrix    [][]float64        `json:"similarity_matrix,omitempty"`
	ContradictionMatrix [][]float64        `json:"contradiction_matrix,omitempty"`
	ConsensusScores     map[string]float64 `json:"consensus_scores,omitempty"`
	FinalChoice         *StageThreeResult  `json:"final_choice,omitempty"`
}

// InitialAnswers returns the initial_answer nodes in input order
func (g *ReasoningGraph) InitialAnswers() []GraphNode {
	if g == nil {
		return nil
	}
	var out []GraphNode
	for _, n := range g.Nodes {
		if n.Type == NodeInitialAnswer {
			out = append(out, n)
		}
	}
	return out
}

// MatrixLabels returns row/column labels for the similarity matrix: the first
// three letters of each initial answer's role, upper-cased.
func (g *ReasoningGraph) MatrixLabels() []string {
	answers := g.InitialAnswers()
	labels := make([]string, 0, len(answers))
	for _, n := range answers {
		role := []rune(n.Role)
		if len(role) > 3 {
			role = role[:3]
		}
		labels = append(labels, strings.ToUpper(string(role)))
	}
	return labels
}

// Node looks up a node by id
func (g *ReasoningGraph) Node(id string) (GraphNode, bool) {
	if g == nil {
		return GraphNode{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}
