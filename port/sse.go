package port

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/awantoch/portflow/constants"
)

const (
	ssePrefixEvent = "event: "
	ssePrefixData  = "data: "
	sseBlockSep    = "\n\n"
)

// Event is one decoded SSE event.
type Event struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// InvocationResult is the structured form of an invocation's SSE body.
//
// Events keeps arrival order. ExecutionMessages holds the data of "execution"
// events in order. FinalData comes from the "done" event, parsed as JSON when
// possible. ExecutionMessage and Data are newline-joined transcripts of
// ExecutionMessages and of every event's data.
type InvocationResult struct {
	InvocationIdentifier *string  `json:"invocationIdentifier"`
	Events               []Event  `json:"events"`
	ExecutionMessages    []string `json:"executionMessages"`
	FinalData            any      `json:"finalData"`
	ExecutionMessage     string   `json:"executionMessage"`
	Data                 string   `json:"data"`
}

// Map returns the result as a generic JSON object for host output.
func (r *InvocationResult) Map() map[string]any {
	var id any
	if r.InvocationIdentifier != nil {
		id = *r.InvocationIdentifier
	}
	events := make([]any, len(r.Events))
	for i, e := range r.Events {
		events[i] = map[string]any{"type": e.Type, "data": e.Data}
	}
	messages := make([]any, len(r.ExecutionMessages))
	for i, m := range r.ExecutionMessages {
		messages[i] = m
	}
	return map[string]any{
		"invocationIdentifier": id,
		"events":               events,
		"executionMessages":    messages,
		"finalData":            r.FinalData,
		"executionMessage":     r.ExecutionMessage,
		"data":                 r.Data,
	}
}

// Decode parses a fully buffered SSE payload. Malformed input never fails:
// blocks without an event type or without data are dropped.
func Decode(text string) *InvocationResult {
	res := &InvocationResult{
		Events:            []Event{},
		ExecutionMessages: []string{},
	}
	for _, block := range strings.Split(text, sseBlockSep) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		ev, ok := decodeBlock(block)
		if !ok {
			continue
		}
		switch ev.Type {
		case constants.EventInvocationIdentifier:
			id := ev.Data
			res.InvocationIdentifier = &id
		case constants.EventExecution:
			res.ExecutionMessages = append(res.ExecutionMessages, ev.Data)
		case constants.EventDone:
			res.FinalData = parseFinalData(ev.Data)
		}
		res.Events = append(res.Events, ev)
	}

	data := make([]string, len(res.Events))
	for i, ev := range res.Events {
		data[i] = ev.Data
	}
	res.Data = strings.Join(data, "\n")
	res.ExecutionMessage = strings.Join(res.ExecutionMessages, "\n")
	return res
}

// DecodeBody normalizes a response body with ResponseText and decodes it.
func DecodeBody(body any) *InvocationResult {
	return Decode(ResponseText(body))
}

// decodeBlock reads one blank-line-delimited block. The last event line wins;
// data lines are joined with newlines.
func decodeBlock(block string) (Event, bool) {
	var typ string
	var fragments []string
	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, ssePrefixEvent):
			typ = strings.TrimSpace(line[len(ssePrefixEvent):])
		case strings.HasPrefix(line, ssePrefixData):
			fragments = append(fragments, strings.TrimSpace(line[len(ssePrefixData):]))
		}
	}
	data := strings.Join(fragments, "\n")
	if typ == "" || data == "" {
		return Event{}, false
	}
	return Event{Type: typ, Data: data}, true
}

func parseFinalData(data string) any {
	var parsed any
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return data
	}
	return parsed
}

// ResponseText normalizes a buffered response body to SSE text. Strings and
// bytes pass through, chunk slices are rejoined with a blank line, and any
// other value is serialized as JSON.
func ResponseText(body any) string {
	switch v := body.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		return strings.Join(v, sseBlockSep)
	case []any:
		chunks := make([]string, len(v))
		for i, c := range v {
			if s, ok := c.(string); ok {
				chunks[i] = s
				continue
			}
			chunks[i] = marshalText(c)
		}
		return strings.Join(chunks, sseBlockSep)
	default:
		return marshalText(v)
	}
}

func marshalText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
