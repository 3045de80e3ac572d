// Package stream assembles the council's progress event stream into message snapshots.
package stream

import "synapse/internal/council"

// EventType is the wire name of a progress event
type EventType string

const (
	TypeStage1Start    EventType = "stage1_start"
	TypeStage1Complete EventType = "stage1_complete"
	TypeStage2Start    EventType = "stage2_start"
	TypeStage2Complete EventType = "stage2_complete"
	TypeStage3Start    EventType = "stage3_start"
	TypeStage3Complete EventType = "stage3_complete"
	TypeGraphPartial   EventType = "graph_partial"
	TypeVRTComplete    EventType = "vrt_complete" // older backends
	TypeComplete       EventType = "complete"
	TypeError          EventType = "error"
)

// Event is one decoded progress event. The set of implementations is closed:
// every concrete type below is handled by Advance.
type Event interface {
	Type() EventType
	isEvent()
}

type Stage1Start struct{}

type Stage1Complete struct {
	Results []council.StageOneResult
}

type Stage2Start struct{}

type Stage2Complete struct {
	Results  []council.StageTwoResult
	Metadata *council.RankingMetadata
}

type Stage3Start struct{}

type Stage3Complete struct {
	Result council.StageThreeResult
}

// GraphPartial carries a best-effort reasoning graph; it may be incomplete
type GraphPartial struct {
	Graph *council.ReasoningGraph
}

// Complete ends the exchange; the caller re-fetches the authoritative message
type Complete struct{}

// Failed is a backend-reported failure ({"type":"error","message":...})
type Failed struct {
	Message string
}

// Unknown is any event type this client does not understand. It is a no-op.
type Unknown struct {
	Name string
}

func (Stage1Start) Type() EventType    { return TypeStage1Start }
func (Stage1Complete) Type() EventType { return TypeStage1Complete }
func (Stage2Start) Type() EventType    { return TypeStage2Start }
func (Stage2Complete) Type() EventType { return TypeStage2Complete }
func (Stage3Start) Type() EventType    { return TypeStage3Start }
func (Stage3Complete) Type() EventType { return TypeStage3Complete }
func (GraphPartial) Type() EventType   { return TypeGraphPartial }
func (Complete) Type() EventType       { return TypeComplete }
func (Failed) Type() EventType         { return TypeError }
func (u Unknown) Type() EventType      { return EventType(u.Name) }

func (Stage1Start) isEvent()    {}
func (Stage1Complete) isEvent() {}
func (Stage2Start) isEvent()    {}
func (Stage2Complete) isEvent() {}
func (Stage3Start) isEvent()    {}
func (Stage3Complete) isEvent() {}
func (GraphPartial) isEvent()   {}
func (Complete) isEvent()       {}
func (Failed) isEvent()         {}
func (Unknown) isEvent()        {}
