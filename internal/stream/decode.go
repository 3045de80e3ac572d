package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"synapse/internal/council"
)

// ErrMalformedRecord is returned by Decode for records that are not valid event JSON
var ErrMalformedRecord = errors.New("malformed event record")

var dataPrefix = []byte("data:")

// record is the wire shape of one event
type record struct {
	Type     EventType       `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	VRT      json.RawMessage `json:"vrt,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// DataPayload extracts the payload of an SSE "data:" line. ok is false for
// comments, "event:"/"id:" fields and blank separator lines.
func DataPayload(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	payload := bytes.TrimPrefix(line[len(dataPrefix):], []byte(" "))
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	return payload, true
}

// Decode turns one JSON event record into an Event. Unrecognized types decode
// to Unknown without error; broken JSON or payloads that do not match their
// type's shape return ErrMalformedRecord.
func Decode(data []byte) (Event, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	switch rec.Type {
	case TypeStage1Start:
		return Stage1Start{}, nil

	case TypeStage1Complete:
		var results []council.StageOneResult
		if err := decodePayload(rec.Data, &results); err != nil {
			return nil, err
		}
		return Stage1Complete{Results: results}, nil

	case TypeStage2Start:
		return Stage2Start{}, nil

	case TypeStage2Complete:
		// data is either the results array (metadata alongside) or an
		// object {"results": [...], "metadata": {...}}
		if trimmed := bytes.TrimSpace(rec.Data); len(trimmed) > 0 && trimmed[0] == '{' {
			var wrapped struct {
				Results  []council.StageTwoResult `json:"results"`
				Metadata *council.RankingMetadata `json:"metadata"`
			}
			if err := decodePayload(rec.Data, &wrapped); err != nil {
				return nil, err
			}
			return Stage2Complete{Results: wrapped.Results, Metadata: wrapped.Metadata}, nil
		}

		var results []council.StageTwoResult
		if err := decodePayload(rec.Data, &results); err != nil {
			return nil, err
		}
		ev := Stage2Complete{Results: results}
		if len(rec.Metadata) > 0 && !isNull(rec.Metadata) {
			var meta council.RankingMetadata
			if err := decodePayload(rec.Metadata, &meta); err != nil {
				return nil, err
			}
			ev.Metadata = &meta
		}
		return ev, nil

	case TypeStage3Start:
		return Stage3Start{}, nil

	case TypeStage3Complete:
		var result council.StageThreeResult
		if err := decodePayload(rec.Data, &result); err != nil {
			return nil, err
		}
		return Stage3Complete{Result: result}, nil

	case TypeGraphPartial, TypeVRTComplete:
		raw := rec.VRT
		if len(raw) == 0 || isNull(raw) {
			raw = rec.Data
		}
		var graph council.ReasoningGraph
		if err := decodePayload(raw, &graph); err != nil {
			return nil, err
		}
		return GraphPartial{Graph: &graph}, nil

	case TypeComplete:
		return Complete{}, nil

	case TypeError:
		msg := rec.Message
		if msg == "" {
			msg = "backend reported an error"
		}
		return Failed{Message: msg}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedRecord)

	default:
		return Unknown{Name: string(rec.Type)}, nil
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || isNull(raw) {
		return fmt.Errorf("%w: missing payload", ErrMalformedRecord)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
