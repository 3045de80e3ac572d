// internal/council/types.go
package council

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is the authoritative conversation as returned by the backend
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// ConversationSummary is a list entry (no messages)
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    Timestamp `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// Loading tracks which stages are in flight for an assistant message
type Loading struct {
	Stage1 bool `json:"stage1"`
	Stage2 bool `json:"stage2"`
	Stage3 bool `json:"stage3"`
}

// Any reports whether any stage is still loading
func (l Loading) Any() bool {
	return l.Stage1 || l.Stage2 || l.Stage3
}

// Message is one entry of a conversation. User messages only carry Content;
// assistant messages carry the three stage results.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	Stage1   []StageOneResult  `json:"stage1,omitempty"`
	Stage2   []StageTwoResult  `json:"stage2,omitempty"`
	Metadata *RankingMetadata  `json:"metadata,omitempty"`
	Stage3   *StageThreeResult `json:"stage3,omitempty"`
	Graph    *ReasoningGraph   `json:"vrt,omitempty"`

	// Loading is client-side state; the backend never sends it
	Loading Loading `json:"-"`
}

// IsAssistant reports whether the message holds council output
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// StageOneResult is one expert's independent answer
type StageOneResult struct {
	Role     string `json:"role"`
	Model    string `json:"model"`
	Response string `json:"response"`
	NodeID   string `json:"node_id,omitempty"`
}

// StageTwoResult is one ranker's critique and ordering of the stage 1 answers
type StageTwoResult struct {
	Model         string   `json:"model"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking,omitempty"`
	NodeID        string   `json:"node_id,omitempty"`
}

// StageThreeResult is the chairman's synthesized answer
type StageThreeResult struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// AggregateRanking is the average position of one response across all rankers
type AggregateRanking struct {
	Label         string  `json:"label"`
	Model         string  `json:"model,omitempty"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// RankingMetadata accompanies stage 2 results
type RankingMetadata struct {
	LabelToModel      map[string]string  `json:"label_to_model,omitempty"`
	AggregateRankings []AggregateRanking `json:"aggregate_rankings,omitempty"`
}

// NewOptimisticExchange builds the user message and the placeholder assistant
// message appended before the server has confirmed anything.
func NewOptimisticExchange(content string) (Message, Message) {
	user := Message{Role: RoleUser, Content: content}
	assistant := Message{
		Role:    RoleAssistant,
		Loading: Loading{Stage1: true},
	}
	return user, assistant
}

// LatestGraph returns the reasoning graph of the most recent message that has one
func (c *Conversation) LatestGraph() *ReasoningGraph {
	if c == nil {
		return nil
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Graph != nil {
			return c.Messages[i].Graph
		}
	}
	return nil
}

// LastAssistant returns the index of the last assistant message, or -1
func (c *Conversation) LastAssistant() int {
	if c == nil {
		return -1
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsAssistant() {
			return i
		}
	}
	return -1
}

// Summary returns the list entry for the conversation
func (c *Conversation) Summary() ConversationSummary {
	return ConversationSummary{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		MessageCount: len(c.Messages),
	}
}

// ShortModel strips the vendor prefix from an OpenRouter-style model id
// ("mistralai/mistral-nemo" -> "mistral-nemo").
func ShortModel(model string) string {
	if i := strings.Index(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}

// naiveLayout is the backend's zone-less ISO timestamp, interpreted as UTC
const naiveLayout = "2006-01-02T15:04:05.999999999"

// Timestamp decodes both RFC 3339 and zone-less ISO 8601 times
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ts.Time = t
		return nil
	}
	t, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	ts.Time = t
	return nil
}
