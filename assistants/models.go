package assistants

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

const (
	messageFamily = "message"
	runStepFamily = "run step"
)

// openai.RunStatus has no constant for this one
const RunStatusIncomplete openai.RunStatus = "incomplete"

type Thread struct {
	ID        string            `json:"id"`
	Object    string            `json:"object"`
	CreatedAt int64             `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Run struct {
	ID             string               `json:"id"`
	Object         string               `json:"object"`
	CreatedAt      int64                `json:"created_at"`
	AssistantID    string               `json:"assistant_id"`
	ThreadID       string               `json:"thread_id"`
	Status         openai.RunStatus     `json:"status"`
	RequiredAction *RequiredAction      `json:"required_action,omitempty"`
	LastError      *openai.RunLastError `json:"last_error,omitempty"`
	// nullable timestamps
	ExpiresAt    *int64                 `json:"expires_at,omitempty"`
	StartedAt    *int64                 `json:"started_at,omitempty"`
	CancelledAt  *int64                 `json:"cancelled_at,omitempty"`
	FailedAt     *int64                 `json:"failed_at,omitempty"`
	CompletedAt  *int64                 `json:"completed_at,omitempty"`
	Model        string                 `json:"model"`
	Instructions string                 `json:"instructions"`
	Tools        []openai.AssistantTool `json:"tools,omitempty"`
	Metadata     map[string]string      `json:"metadata,omitempty"`
	Usage        *Usage                 `json:"usage,omitempty"`
}

type RequiredAction struct {
	Type              string            `json:"type"`
	SubmitToolOutputs SubmitToolOutputs `json:"submit_tool_outputs"`
}

// SubmitToolOutputs lists the function calls the run is waiting on. These use
// the chat tool call shape, not the run-step ToolCall union.
type SubmitToolOutputs struct {
	ToolCalls []openai.ToolCall `json:"tool_calls"`
}

type RunStep struct {
	ID          string               `json:"id"`
	Object      string               `json:"object"`
	CreatedAt   int64                `json:"created_at"`
	AssistantID string               `json:"assistant_id"`
	ThreadID    string               `json:"thread_id"`
	RunID       string               `json:"run_id"`
	Type        StepDetailsType      `json:"type"`
	Status      string               `json:"status"`
	StepDetails StepDetails          `json:"step_details"`
	LastError   *openai.RunLastError `json:"last_error,omitempty"`
	ExpiredAt   *int64               `json:"expired_at,omitempty"`
	CancelledAt *int64               `json:"cancelled_at,omitempty"`
	FailedAt    *int64               `json:"failed_at,omitempty"`
	CompletedAt *int64               `json:"completed_at,omitempty"`
	Metadata    map[string]string    `json:"metadata,omitempty"`
	Usage       *Usage               `json:"usage,omitempty"`
}

type runStepAlias RunStep

func (s RunStep) MarshalJSON() ([]byte, error) {
	details, err := encodeOptionalStepDetails(s.StepDetails)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		runStepAlias
		StepDetails json.RawMessage `json:"step_details,omitempty"`
	}{runStepAlias(s), details})
}

func (s *RunStep) UnmarshalJSON(data []byte) error {
	var wire struct {
		runStepAlias
		StepDetails json.RawMessage `json:"step_details"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(runStepFamily, "", err)
	}
	details, err := decodeOptionalStepDetails(wire.StepDetails)
	if err != nil {
		return wrapDecodeErr(runStepFamily, "step_details", err)
	}
	step := RunStep(wire.runStepAlias)
	step.StepDetails = details
	*s = step
	return nil
}

type RunStepDelta struct {
	ID     string           `json:"id"`
	Object string           `json:"object"`
	Delta  RunStepDeltaBody `json:"delta"`
}

type RunStepDeltaBody struct {
	StepDetails StepDetails
}

type runStepDeltaAlias RunStepDelta

func (d *RunStepDelta) UnmarshalJSON(data []byte) error {
	var wire struct {
		runStepDeltaAlias
		Delta json.RawMessage `json:"delta"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(runStepFamily, "", err)
	}
	delta := RunStepDelta(wire.runStepDeltaAlias)
	if err := decodeDelta(runStepFamily, wire.Delta, &delta.Delta); err != nil {
		return err
	}
	*d = delta
	return nil
}

func (b RunStepDeltaBody) MarshalJSON() ([]byte, error) {
	details, err := encodeOptionalStepDetails(b.StepDetails)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		StepDetails json.RawMessage `json:"step_details,omitempty"`
	}{details})
}

func (b *RunStepDeltaBody) UnmarshalJSON(data []byte) error {
	var wire struct {
		StepDetails json.RawMessage `json:"step_details"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(runStepFamily, "", err)
	}
	details, err := decodeOptionalStepDetails(wire.StepDetails)
	if err != nil {
		return wrapDecodeErr(runStepFamily, "step_details", err)
	}
	b.StepDetails = details
	return nil
}

func decodeOptionalStepDetails(raw json.RawMessage) (StepDetails, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	return DecodeStepDetails(raw)
}

func encodeOptionalStepDetails(d StepDetails) (json.RawMessage, error) {
	if d == nil {
		return nil, nil
	}
	return EncodeStepDetails(d)
}

type Message struct {
	ID          string            `json:"id"`
	Object      string            `json:"object"`
	CreatedAt   int64             `json:"created_at"`
	ThreadID    string            `json:"thread_id"`
	Status      string            `json:"status,omitempty"`
	AssistantID *string           `json:"assistant_id"` // null for user messages
	RunID       *string           `json:"run_id"`       // null for user messages
	Role        string            `json:"role"`
	Content     []ContentPart     `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type messageAlias Message

// content is omitted when nil and written as [] when empty.
func (m Message) MarshalJSON() ([]byte, error) {
	content, err := encodeOptionalList(m.Content, ContentPart.MarshalJSON)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		messageAlias
		Content json.RawMessage `json:"content,omitempty"`
	}{messageAlias(m), content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		messageAlias
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(messageFamily, "", err)
	}
	content, err := decodeList(messageFamily, "content", wire.Content, DecodeContentPart)
	if err != nil {
		return err
	}
	msg := Message(wire.messageAlias)
	msg.Content = keepEmpty(content, wire.Content)
	*m = msg
	return nil
}

// Text joins the text parts of the message.
func (m Message) Text() string {
	var text string
	for _, part := range m.Content {
		if t, err := variant[TextContent](part.Content); err == nil {
			text += t.Value
		}
	}
	return text
}

type MessageDelta struct {
	ID     string           `json:"id"`
	Object string           `json:"object"`
	Delta  MessageDeltaBody `json:"delta"`
}

type messageDeltaAlias MessageDelta

func (d *MessageDelta) UnmarshalJSON(data []byte) error {
	var wire struct {
		messageDeltaAlias
		Delta json.RawMessage `json:"delta"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(messageFamily, "", err)
	}
	delta := MessageDelta(wire.messageDeltaAlias)
	if err := decodeDelta(messageFamily, wire.Delta, &delta.Delta); err != nil {
		return err
	}
	*d = delta
	return nil
}

type MessageDeltaBody struct {
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

type messageDeltaBodyAlias MessageDeltaBody

func (b MessageDeltaBody) MarshalJSON() ([]byte, error) {
	content, err := encodeOptionalList(b.Content, ContentPart.MarshalJSON)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		messageDeltaBodyAlias
		Content json.RawMessage `json:"content,omitempty"`
	}{messageDeltaBodyAlias(b), content})
}

func (b *MessageDeltaBody) UnmarshalJSON(data []byte) error {
	var wire struct {
		messageDeltaBodyAlias
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return wrapDecodeErr(messageFamily, "", err)
	}
	content, err := decodeList(messageFamily, "content", wire.Content, DecodeContentPart)
	if err != nil {
		return err
	}
	body := MessageDeltaBody(wire.messageDeltaBodyAlias)
	body.Content = keepEmpty(content, wire.Content)
	*b = body
	return nil
}

// decodeDelta decodes the body of a delta envelope, locating failures under
// "delta".
func decodeDelta(family string, raw json.RawMessage, body json.Unmarshaler) error {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}
	if err := body.UnmarshalJSON(raw); err != nil {
		return wrapDecodeErr(family, "delta", err)
	}
	return nil
}

// APIError is the payload of an error stream event.
type APIError struct {
	Code    *string `json:"code,omitempty"`
	Message string  `json:"message"`
	Param   *string `json:"param,omitempty"`
	Type    *string `json:"type,omitempty"`
}

func (e APIError) Error() string {
	if e.Code != nil {
		return *e.Code + ": " + e.Message
	}
	return e.Message
}
