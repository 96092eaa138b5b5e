package upstream

import (
	"google.golang.org/genai"
)

// EventKind identifies the shape of an Event coming out of the live session.
type EventKind int

const (
	KindAudio EventKind = iota
	KindText
	KindInputTranscript
	KindToolCall
	KindToolCancel
	KindInterrupted
	KindTurnComplete
)

func (k EventKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindText:
		return "text"
	case KindInputTranscript:
		return "input_transcript"
	case KindToolCall:
		return "tool_call"
	case KindToolCancel:
		return "tool_cancel"
	case KindInterrupted:
		return "interrupted"
	case KindTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Event is the closed set of upstream occurrences the bridge reacts to.
// Server messages are decoded into Events exactly once, here at the
// boundary, so the forwarding loops never touch SDK types.
type Event struct {
	Kind         EventKind
	Audio        []byte
	Text         string
	Calls        []ToolCall
	CancelledIDs []string
}

// DecodeServerMessage flattens one live server message into zero or more
// Events, in the order a consumer should observe them. An interruption
// drops the rest of the message: the model turn it carries is stale.
func DecodeServerMessage(msg *genai.LiveServerMessage) []Event {
	if msg == nil {
		return nil
	}

	var events []Event

	if tc := msg.ToolCall; tc != nil {
		calls := make([]ToolCall, 0, len(tc.FunctionCalls))
		for _, fc := range tc.FunctionCalls {
			if fc == nil {
				continue
			}
			calls = append(calls, ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		if len(calls) > 0 {
			events = append(events, Event{Kind: KindToolCall, Calls: calls})
		}
	}

	if cancel := msg.ToolCallCancellation; cancel != nil {
		events = append(events, Event{Kind: KindToolCancel, CancelledIDs: cancel.IDs})
	}

	sc := msg.ServerContent
	if sc == nil {
		return events
	}

	if sc.Interrupted {
		return append(events, Event{Kind: KindInterrupted})
	}

	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				events = append(events, Event{Kind: KindAudio, Audio: part.InlineData.Data})
				continue
			}
			if part.Text != "" {
				events = append(events, Event{Kind: KindText, Text: part.Text})
			}
		}
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, Event{Kind: KindText, Text: sc.OutputTranscription.Text})
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, Event{Kind: KindInputTranscript, Text: sc.InputTranscription.Text})
	}

	if sc.TurnComplete {
		events = append(events, Event{Kind: KindTurnComplete})
	}

	return events
}
