package stream

import (
	"slices"

	"synapse/internal/council"
)

// Phase is the assembler's position in the stage1 -> stage2 -> stage3 pipeline
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStage1Pending
	PhaseStage2Pending
	PhaseStage3Pending
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStage1Pending:
		return "stage1_pending"
	case PhaseStage2Pending:
		return "stage2_pending"
	case PhaseStage3Pending:
		return "stage3_pending"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events may change the snapshot
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// advance never moves the pipeline backwards
func (p Phase) advance(to Phase) Phase {
	if to > p {
		return to
	}
	return p
}

// Snapshot is the immutable state of one in-flight assistant message.
// Advance never modifies its argument; callers replace their snapshot wholesale.
type Snapshot struct {
	Message council.Message
	Phase   Phase
	// Failure holds the backend's message once Phase is PhaseFailed
	Failure string
}

// NewSnapshot starts tracking an optimistic assistant message
func NewSnapshot(msg council.Message) Snapshot {
	return Snapshot{Message: msg, Phase: PhaseIdle}
}

// Done reports whether the exchange finished successfully
func (s Snapshot) Done() bool {
	return s.Phase == PhaseDone
}

// Advance applies one event and returns the next snapshot. It is pure: the same
// snapshot and event always produce the same result. Events arriving after a
// terminal phase, and unknown event types, leave the snapshot unchanged.
func Advance(s Snapshot, ev Event) Snapshot {
	if s.Phase.Terminal() || ev == nil {
		return s
	}

	next := s
	msg := &next.Message

	switch e := ev.(type) {
	case Stage1Start:
		msg.Loading.Stage1 = true
		next.Phase = next.Phase.advance(PhaseStage1Pending)

	case Stage1Complete:
		if msg.Stage1 != nil {
			return s
		}
		msg.Stage1 = cloneResults(e.Results)
		msg.Loading.Stage1 = false
		msg.Loading.Stage2 = true
		next.Phase = next.Phase.advance(PhaseStage2Pending)

	case Stage2Start:
		msg.Loading.Stage2 = true
		next.Phase = next.Phase.advance(PhaseStage2Pending)

	case Stage2Complete:
		if msg.Stage2 != nil {
			return s
		}
		msg.Stage2 = cloneResults(e.Results)
		if e.Metadata != nil {
			meta := *e.Metadata
			msg.Metadata = &meta
		}
		msg.Loading.Stage2 = false
		msg.Loading.Stage3 = true
		next.Phase = next.Phase.advance(PhaseStage3Pending)

	case Stage3Start:
		msg.Loading.Stage3 = true
		next.Phase = next.Phase.advance(PhaseStage3Pending)

	case Stage3Complete:
		if msg.Stage3 != nil {
			return s
		}
		result := e.Result
		msg.Stage3 = &result
		msg.Loading.Stage3 = false
		next.Phase = next.Phase.advance(PhaseStage3Pending)

	case GraphPartial:
		if e.Graph == nil {
			return s
		}
		msg.Graph = e.Graph

	case Complete:
		msg.Loading = council.Loading{}
		next.Phase = PhaseDone

	case Failed:
		msg.Loading = council.Loading{}
		next.Phase = PhaseFailed
		next.Failure = e.Message

	case Unknown:
		return s

	default:
		return s
	}

	return next
}

// Abort marks a non-terminal snapshot as failed and clears every loading flag,
// so an interrupted exchange is never left spinning.
func Abort(s Snapshot, reason string) Snapshot {
	if s.Phase.Terminal() {
		return s
	}
	next := s
	next.Message.Loading = council.Loading{}
	next.Phase = PhaseFailed
	next.Failure = reason
	return next
}

// cloneResults copies the payload so snapshots never alias event buffers.
// An empty payload still yields a non-nil (present) stage.
func cloneResults[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
