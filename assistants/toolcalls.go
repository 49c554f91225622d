package assistants

import (
	"encoding/json"
	"errors"
)

const (
	toolCallFamily          = "tool call"
	interpreterOutputFamily = "code interpreter output"
)

type ToolCallType string

const (
	ToolCallTypeCodeInterpreter ToolCallType = "code_interpreter"
	ToolCallTypeFileSearch      ToolCallType = "file_search"
	ToolCallTypeFunction        ToolCallType = "function"
)

// ToolCallDetails is the payload of a run-step tool call. It is implemented by
// CodeInterpreterCall, FileSearchCall and FunctionCall only. Pointers to them
// encode like the values; decoding always yields values.
type ToolCallDetails interface {
	ToolCallType() ToolCallType
	isToolCallDetails()
}

type CodeInterpreterCall struct {
	// Input holds real newlines. On the wire they are written as a literal
	// backslash-n.
	Input   *string
	Outputs []CodeInterpreterOutput
}

func (CodeInterpreterCall) ToolCallType() ToolCallType { return ToolCallTypeCodeInterpreter }
func (CodeInterpreterCall) isToolCallDetails()         {}

// FileSearchCall is always an object on the wire, normally empty. Any keys it
// does carry are kept as strings. A nil map and an empty map are the same
// value: both encode as {} and {} decodes to a nil map.
type FileSearchCall struct {
	Fields map[string]string
}

func (FileSearchCall) ToolCallType() ToolCallType { return ToolCallTypeFileSearch }
func (FileSearchCall) isToolCallDetails()         {}

type FunctionCall struct {
	Name      *string `json:"name,omitempty"`
	Arguments string  `json:"arguments"`
	// Output is set once the tool outputs have been submitted.
	Output *string `json:"output,omitempty"`
}

func (FunctionCall) ToolCallType() ToolCallType { return ToolCallTypeFunction }
func (FunctionCall) isToolCallDetails()         {}

// ToolCall is one entry of a tool_calls run step.
type ToolCall struct {
	// Index is only sent in streamed deltas.
	Index   *int
	ID      *string
	Details ToolCallDetails
}

func (c ToolCall) Type() ToolCallType {
	if isNilValue(c.Details) {
		return ""
	}
	return c.Details.ToolCallType()
}

var toolCalls = NewFamily(toolCallFamily, "type",
	func(d ToolCallDetails) string { return string(d.ToolCallType()) },
	Case[ToolCallDetails]{
		Tag:    string(ToolCallTypeCodeInterpreter),
		Key:    "code_interpreter",
		Decode: decodeCodeInterpreterCall,
		Encode: encodeCodeInterpreterCall,
	},
	Case[ToolCallDetails]{
		Tag:    string(ToolCallTypeFileSearch),
		Key:    "file_search",
		Decode: decodeFileSearchCall,
		Encode: encodeFileSearchCall,
	},
	Case[ToolCallDetails]{
		Tag:    string(ToolCallTypeFunction),
		Key:    "function",
		Decode: decodeFunctionCall,
		Encode: encodeFunctionCall,
	},
)

// ToolCalls exposes the tool call family, mainly for its tag set.
func ToolCalls() *Family[ToolCallDetails] {
	return toolCalls
}

func DecodeToolCall(data []byte) (ToolCall, error) {
	var c ToolCall
	err := c.UnmarshalJSON(data)
	return c, err
}

func (c ToolCall) MarshalJSON() ([]byte, error) {
	if c.Details == nil {
		return nil, errors.New("encoding tool call: no details")
	}
	var fields orderedObject
	if c.Index != nil {
		raw, err := json.Marshal(*c.Index)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field{key: "index", value: raw})
	}
	if c.ID != nil {
		raw, err := json.Marshal(*c.ID)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field{key: "id", value: raw})
	}
	details, err := toolCalls.encodeFields(c.Details)
	if err != nil {
		return nil, err
	}
	return append(fields, details...).MarshalJSON()
}

func (c *ToolCall) UnmarshalJSON(data []byte) error {
	obj, err := decodeObject(data)
	if err != nil {
		return wrapDecodeErr(toolCallFamily, "", err)
	}

	var call ToolCall
	if raw, ok := obj["index"]; ok {
		if err := json.Unmarshal(raw, &call.Index); err != nil {
			return wrapDecodeErr(toolCallFamily, "index", err)
		}
	}
	if raw, ok := obj["id"]; ok {
		if err := json.Unmarshal(raw, &call.ID); err != nil {
			return wrapDecodeErr(toolCallFamily, "id", err)
		}
	}
	call.Details, err = toolCalls.decodeObject(obj, data)
	if err != nil {
		return err
	}
	*c = call
	return nil
}

func decodeCodeInterpreterCall(payload json.RawMessage) (ToolCallDetails, error) {
	var wire struct {
		Input   *string           `json:"input"`
		Outputs []json.RawMessage `json:"outputs"`
	}
	if err := decodeRecord(toolCallFamily, payload, &wire); err != nil {
		return nil, err
	}
	outputs, err := decodeList(toolCallFamily, "outputs", wire.Outputs, DecodeCodeInterpreterOutput)
	if err != nil {
		return nil, err
	}
	return CodeInterpreterCall{
		Input:   unescapeInput(wire.Input),
		Outputs: keepEmpty(outputs, wire.Outputs),
	}, nil
}

func encodeCodeInterpreterCall(d ToolCallDetails) (json.RawMessage, error) {
	call, err := variant[CodeInterpreterCall](d)
	if err != nil {
		return nil, err
	}
	wire := struct {
		Input   *string         `json:"input,omitempty"`
		Outputs json.RawMessage `json:"outputs,omitempty"`
	}{
		Input: escapeInput(call.Input),
	}
	wire.Outputs, err = encodeOptionalList(call.Outputs, EncodeCodeInterpreterOutput)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func decodeFileSearchCall(payload json.RawMessage) (ToolCallDetails, error) {
	var fields map[string]string
	if err := decodeRecord(toolCallFamily, payload, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		fields = nil
	}
	return FileSearchCall{Fields: fields}, nil
}

func encodeFileSearchCall(d ToolCallDetails) (json.RawMessage, error) {
	call, err := variant[FileSearchCall](d)
	if err != nil {
		return nil, err
	}
	if call.Fields == nil {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(call.Fields)
}

func decodeFunctionCall(payload json.RawMessage) (ToolCallDetails, error) {
	var call FunctionCall
	if err := decodeRecord(toolCallFamily, payload, &call, "arguments"); err != nil {
		return nil, err
	}
	return call, nil
}

func encodeFunctionCall(d ToolCallDetails) (json.RawMessage, error) {
	call, err := variant[FunctionCall](d)
	if err != nil {
		return nil, err
	}
	return json.Marshal(call)
}

type CodeInterpreterOutputType string

const (
	OutputTypeLogs   CodeInterpreterOutputType = "logs"
	OutputTypeImages CodeInterpreterOutputType = "images"
)

// CodeInterpreterOutput is implemented by LogsOutput and ImagesOutput.
type CodeInterpreterOutput interface {
	OutputType() CodeInterpreterOutputType
	isCodeInterpreterOutput()
}

type LogsOutput struct {
	Logs string `json:"logs"`
}

func (LogsOutput) OutputType() CodeInterpreterOutputType { return OutputTypeLogs }
func (LogsOutput) isCodeInterpreterOutput()              {}

type ImagesOutput struct {
	Image ImageRef `json:"image"`
}

func (ImagesOutput) OutputType() CodeInterpreterOutputType { return OutputTypeImages }
func (ImagesOutput) isCodeInterpreterOutput()              {}

type ImageRef struct {
	FileID string `json:"file_id"`
}

var interpreterOutputs = NewFamily(interpreterOutputFamily, "type",
	func(o CodeInterpreterOutput) string { return string(o.OutputType()) },
	Case[CodeInterpreterOutput]{
		Tag: string(OutputTypeLogs),
		Decode: func(payload json.RawMessage) (CodeInterpreterOutput, error) {
			var out LogsOutput
			if err := decodeRecord(interpreterOutputFamily, payload, &out, "logs"); err != nil {
				return nil, err
			}
			return out, nil
		},
		Encode: func(o CodeInterpreterOutput) (json.RawMessage, error) {
			out, err := variant[LogsOutput](o)
			if err != nil {
				return nil, err
			}
			return json.Marshal(out)
		},
	},
	Case[CodeInterpreterOutput]{
		Tag: string(OutputTypeImages),
		Decode: func(payload json.RawMessage) (CodeInterpreterOutput, error) {
			var wire struct {
				Image json.RawMessage `json:"image"`
			}
			if err := decodeRecord(interpreterOutputFamily, payload, &wire, "image"); err != nil {
				return nil, err
			}
			var ref ImageRef
			if err := decodeRecord(interpreterOutputFamily, wire.Image, &ref, "file_id"); err != nil {
				return nil, wrapDecodeErr(interpreterOutputFamily, "image", err)
			}
			return ImagesOutput{Image: ref}, nil
		},
		Encode: func(o CodeInterpreterOutput) (json.RawMessage, error) {
			out, err := variant[ImagesOutput](o)
			if err != nil {
				return nil, err
			}
			return json.Marshal(out)
		},
	},
)

func CodeInterpreterOutputs() *Family[CodeInterpreterOutput] {
	return interpreterOutputs
}

func DecodeCodeInterpreterOutput(data []byte) (CodeInterpreterOutput, error) {
	return interpreterOutputs.Decode(data)
}

func EncodeCodeInterpreterOutput(o CodeInterpreterOutput) ([]byte, error) {
	return interpreterOutputs.Encode(o)
}
