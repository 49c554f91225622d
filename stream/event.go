package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"assistantwire/assistants"
)

const eventFamily = "stream event"

// EventType is the name of a server-sent event emitted by a streamed run.
type EventType string

const (
	ThreadCreated EventType = "thread.created"

	RunCreated        EventType = "thread.run.created"
	RunQueued         EventType = "thread.run.queued"
	RunInProgress     EventType = "thread.run.in_progress"
	RunRequiresAction EventType = "thread.run.requires_action"
	RunCompleted      EventType = "thread.run.completed"
	RunIncomplete     EventType = "thread.run.incomplete"
	RunFailed         EventType = "thread.run.failed"
	RunCancelling     EventType = "thread.run.cancelling"
	RunCancelled      EventType = "thread.run.cancelled"
	RunExpired        EventType = "thread.run.expired"

	RunStepCreated    EventType = "thread.run.step.created"
	RunStepInProgress EventType = "thread.run.step.in_progress"
	RunStepDelta      EventType = "thread.run.step.delta"
	RunStepCompleted  EventType = "thread.run.step.completed"
	RunStepFailed     EventType = "thread.run.step.failed"
	RunStepCancelled  EventType = "thread.run.step.cancelled"
	RunStepExpired    EventType = "thread.run.step.expired"

	MessageCreated    EventType = "thread.message.created"
	MessageInProgress EventType = "thread.message.in_progress"
	MessageDelta      EventType = "thread.message.delta"
	MessageCompleted  EventType = "thread.message.completed"
	MessageIncomplete EventType = "thread.message.incomplete"

	Error EventType = "error"
	// Done ends the stream. Its data is the literal [DONE].
	Done EventType = "done"
)

// PayloadKind says which Go type an event carries.
type PayloadKind int

const (
	KindNone PayloadKind = iota
	KindThread
	KindRun
	KindRunStep
	KindRunStepDelta
	KindMessage
	KindMessageDelta
	KindError
)

// kinds is the only place event names are registered.
var kinds = map[EventType]PayloadKind{
	ThreadCreated: KindThread,

	RunCreated:        KindRun,
	RunQueued:         KindRun,
	RunInProgress:     KindRun,
	RunRequiresAction: KindRun,
	RunCompleted:      KindRun,
	RunIncomplete:     KindRun,
	RunFailed:         KindRun,
	RunCancelling:     KindRun,
	RunCancelled:      KindRun,
	RunExpired:        KindRun,

	RunStepCreated:    KindRunStep,
	RunStepInProgress: KindRunStep,
	RunStepDelta:      KindRunStepDelta,
	RunStepCompleted:  KindRunStep,
	RunStepFailed:     KindRunStep,
	RunStepCancelled:  KindRunStep,
	RunStepExpired:    KindRunStep,

	MessageCreated:    KindMessage,
	MessageInProgress: KindMessage,
	MessageDelta:      KindMessageDelta,
	MessageCompleted:  KindMessage,
	MessageIncomplete: KindMessage,

	Error: KindError,
	Done:  KindNone,
}

func (t EventType) Kind() (PayloadKind, bool) {
	k, ok := kinds[t]
	return k, ok
}

// Event is a single decoded stream event. The payload always matches the
// event type; values are only built by the constructors below or by Decode.
type Event struct {
	typ     EventType
	payload any
}

func (e Event) Type() EventType {
	return e.typ
}

func (e Event) Payload() any {
	return e.payload
}

func NewThreadEvent(t EventType, thread assistants.Thread) (Event, error) {
	return newEvent(t, KindThread, thread)
}

func NewRunEvent(t EventType, run assistants.Run) (Event, error) {
	return newEvent(t, KindRun, run)
}

func NewRunStepEvent(t EventType, step assistants.RunStep) (Event, error) {
	return newEvent(t, KindRunStep, step)
}

func NewRunStepDeltaEvent(delta assistants.RunStepDelta) Event {
	return Event{typ: RunStepDelta, payload: delta}
}

func NewMessageEvent(t EventType, msg assistants.Message) (Event, error) {
	return newEvent(t, KindMessage, msg)
}

func NewMessageDeltaEvent(delta assistants.MessageDelta) Event {
	return Event{typ: MessageDelta, payload: delta}
}

func NewErrorEvent(apiErr assistants.APIError) Event {
	return Event{typ: Error, payload: apiErr}
}

func NewDoneEvent() Event {
	return Event{typ: Done}
}

func newEvent(t EventType, want PayloadKind, payload any) (Event, error) {
	k, ok := kinds[t]
	if !ok {
		return Event{}, fmt.Errorf("unknown stream event %q", t)
	}
	if k != want {
		return Event{}, fmt.Errorf("stream event %q does not carry a %T", t, payload)
	}
	return Event{typ: t, payload: payload}, nil
}

func (e Event) Thread() (assistants.Thread, bool) {
	v, ok := e.payload.(assistants.Thread)
	return v, ok
}

func (e Event) Run() (assistants.Run, bool) {
	v, ok := e.payload.(assistants.Run)
	return v, ok
}

func (e Event) RunStep() (assistants.RunStep, bool) {
	v, ok := e.payload.(assistants.RunStep)
	return v, ok
}

func (e Event) RunStepDelta() (assistants.RunStepDelta, bool) {
	v, ok := e.payload.(assistants.RunStepDelta)
	return v, ok
}

func (e Event) Message() (assistants.Message, bool) {
	v, ok := e.payload.(assistants.Message)
	return v, ok
}

func (e Event) MessageDelta() (assistants.MessageDelta, bool) {
	v, ok := e.payload.(assistants.MessageDelta)
	return v, ok
}

func (e Event) Err() (assistants.APIError, bool) {
	v, ok := e.payload.(assistants.APIError)
	return v, ok
}

// ObjectID is the id of the carried object, empty for error and done.
func (e Event) ObjectID() string {
	switch v := e.payload.(type) {
	case assistants.Thread:
		return v.ID
	case assistants.Run:
		return v.ID
	case assistants.RunStep:
		return v.ID
	case assistants.RunStepDelta:
		return v.ID
	case assistants.Message:
		return v.ID
	case assistants.MessageDelta:
		return v.ID
	}
	return ""
}

// ThreadID is the thread the carried object belongs to, when it says so.
func (e Event) ThreadID() string {
	switch v := e.payload.(type) {
	case assistants.Thread:
		return v.ID
	case assistants.Run:
		return v.ThreadID
	case assistants.RunStep:
		return v.ThreadID
	case assistants.Message:
		return v.ThreadID
	}
	return ""
}

// IsTerminal reports whether the run has reached a final state or the stream
// itself has ended.
func (e Event) IsTerminal() bool {
	switch e.typ {
	case RunCompleted,
		RunIncomplete,
		RunFailed,
		RunCancelled,
		RunExpired,
		Error,
		Done:
		return true
	default:
		return false
	}
}

var doneData = json.RawMessage(`"[DONE]"`)

var events = newEventFamily()

func newEventFamily() *assistants.Family[Event] {
	cases := make([]assistants.Case[Event], 0, len(kinds))
	for t, k := range kinds {
		switch k {
		case KindNone:
			cases = append(cases, doneCase(t))
		case KindThread:
			cases = append(cases, payloadCase[assistants.Thread](t))
		case KindRun:
			cases = append(cases, payloadCase[assistants.Run](t))
		case KindRunStep:
			cases = append(cases, payloadCase[assistants.RunStep](t))
		case KindRunStepDelta:
			cases = append(cases, payloadCase[assistants.RunStepDelta](t))
		case KindMessage:
			cases = append(cases, payloadCase[assistants.Message](t))
		case KindMessageDelta:
			cases = append(cases, payloadCase[assistants.MessageDelta](t))
		case KindError:
			cases = append(cases, payloadCase[assistants.APIError](t))
		default:
			panic(fmt.Sprintf("stream: no codec for payload kind %d", k))
		}
	}
	return assistants.NewFamily(eventFamily, "event",
		func(e Event) string { return string(e.typ) },
		cases...,
	)
}

// every event keeps its payload under the same "data" key
func payloadCase[P any](t EventType) assistants.Case[Event] {
	return assistants.Case[Event]{
		Tag: string(t),
		Key: "data",
		Decode: func(raw json.RawMessage) (Event, error) {
			if isNull(raw) {
				return Event{}, &assistants.DecodingError{Family: eventFamily, Kind: assistants.MissingField}
			}
			var p P
			if err := json.Unmarshal(raw, &p); err != nil {
				return Event{}, err
			}
			return Event{typ: t, payload: p}, nil
		},
		Encode: func(e Event) (json.RawMessage, error) {
			p, ok := e.payload.(P)
			if !ok {
				var want P
				return nil, fmt.Errorf("event %q carries %T, expected %T", e.typ, e.payload, want)
			}
			return json.Marshal(p)
		},
	}
}

func doneCase(t EventType) assistants.Case[Event] {
	return assistants.Case[Event]{
		Tag:      string(t),
		Key:      "data",
		Optional: true,
		Decode: func(json.RawMessage) (Event, error) {
			return Event{typ: t}, nil
		},
		Encode: func(Event) (json.RawMessage, error) {
			return doneData, nil
		},
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Events exposes the stream event family, mainly for its tag set.
func Events() *assistants.Family[Event] {
	return events
}

// Decode reads an {"event": ..., "data": ...} envelope.
func Decode(data []byte) (Event, error) {
	return events.Decode(data)
}

func Encode(e Event) ([]byte, error) {
	return events.Encode(e)
}

func (e Event) MarshalJSON() ([]byte, error) {
	return events.Encode(e)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	ev, err := events.Decode(data)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}
