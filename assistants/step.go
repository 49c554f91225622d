package assistants

import "encoding/json"

const stepDetailsFamily = "step details"

type StepDetailsType string

const (
	StepDetailsTypeMessageCreation StepDetailsType = "message_creation"
	StepDetailsTypeToolCalls       StepDetailsType = "tool_calls"
)

// StepDetails is implemented by MessageCreationStep and ToolCallsStep.
type StepDetails interface {
	StepDetailsType() StepDetailsType
	isStepDetails()
}

type MessageCreationStep struct {
	MessageID string `json:"message_id"`
}

func (MessageCreationStep) StepDetailsType() StepDetailsType { return StepDetailsTypeMessageCreation }
func (MessageCreationStep) isStepDetails()                   {}

type ToolCallsStep struct {
	ToolCalls []ToolCall
}

func (ToolCallsStep) StepDetailsType() StepDetailsType { return StepDetailsTypeToolCalls }
func (ToolCallsStep) isStepDetails()                   {}

var stepDetails = NewFamily(stepDetailsFamily, "type",
	func(d StepDetails) string { return string(d.StepDetailsType()) },
	Case[StepDetails]{
		Tag: string(StepDetailsTypeMessageCreation),
		Key: "message_creation",
		Decode: func(payload json.RawMessage) (StepDetails, error) {
			var step MessageCreationStep
			if err := decodeRecord(stepDetailsFamily, payload, &step, "message_id"); err != nil {
				return nil, err
			}
			return step, nil
		},
		Encode: func(d StepDetails) (json.RawMessage, error) {
			step, err := variant[MessageCreationStep](d)
			if err != nil {
				return nil, err
			}
			return json.Marshal(step)
		},
	},
	Case[StepDetails]{
		// the payload under tool_calls is an array, not an object
		Tag: string(StepDetailsTypeToolCalls),
		Key: "tool_calls",
		Decode: func(payload json.RawMessage) (StepDetails, error) {
			var raws []json.RawMessage
			if err := json.Unmarshal(payload, &raws); err != nil {
				return nil, wrapDecodeErr(stepDetailsFamily, "", err)
			}
			calls, err := decodeList(stepDetailsFamily, "", raws, DecodeToolCall)
			if err != nil {
				return nil, err
			}
			return ToolCallsStep{ToolCalls: calls}, nil
		},
		Encode: func(d StepDetails) (json.RawMessage, error) {
			step, err := variant[ToolCallsStep](d)
			if err != nil {
				return nil, err
			}
			return encodeList(step.ToolCalls, func(c ToolCall) ([]byte, error) {
				return c.MarshalJSON()
			})
		},
	},
)

func StepDetailsFamily() *Family[StepDetails] {
	return stepDetails
}

func DecodeStepDetails(data []byte) (StepDetails, error) {
	return stepDetails.Decode(data)
}

func EncodeStepDetails(d StepDetails) ([]byte, error) {
	return stepDetails.Encode(d)
}
