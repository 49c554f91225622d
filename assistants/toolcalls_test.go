package assistants

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const codeInterpreterWire = `{"index":0,"id":"call_1","type":"code_interpreter","code_interpreter":{"input":"print(1)\\nprint(2)","outputs":[{"type":"logs","logs":"1\n2"},{"type":"images","image":{"file_id":"file_9"}}]}}`

func TestCodeInterpreterCallDecode(t *testing.T) {
	call, err := DecodeToolCall([]byte(codeInterpreterWire))
	require.NoError(t, err)

	assert.Equal(t, ToolCallTypeCodeInterpreter, call.Type())
	assert.Equal(t, ptr(0), call.Index)
	assert.Equal(t, ptr("call_1"), call.ID)

	details, ok := call.Details.(CodeInterpreterCall)
	require.True(t, ok, "got %T", call.Details)
	require.NotNil(t, details.Input)
	assert.Equal(t, "print(1)\nprint(2)", *details.Input)
	assert.NotContains(t, *details.Input, `\`)
	assert.Equal(t, []CodeInterpreterOutput{
		LogsOutput{Logs: "1\n2"},
		ImagesOutput{Image: ImageRef{FileID: "file_9"}},
	}, details.Outputs)
}

func TestCodeInterpreterNullOutputs(t *testing.T) {
	call, err := DecodeToolCall([]byte(`{"type":"code_interpreter","code_interpreter":{"input":"print(1)\\nprint(2)","outputs":null}}`))
	require.NoError(t, err)
	assert.Equal(t, CodeInterpreterCall{Input: ptr("print(1)\nprint(2)")}, call.Details)

	out, err := json.Marshal(call)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"code_interpreter","code_interpreter":{"input":"print(1)\\nprint(2)"}}`, string(out))
}

func TestCodeInterpreterCallEncode(t *testing.T) {
	call := ToolCall{
		ID: ptr("call_1"),
		Details: CodeInterpreterCall{
			Input: ptr("print(1)\nprint(2)"),
		},
	}
	out, err := json.Marshal(call)
	require.NoError(t, err)

	var wire struct {
		CodeInterpreter map[string]json.RawMessage `json:"code_interpreter"`
	}
	require.NoError(t, json.Unmarshal(out, &wire))
	assert.Equal(t, `"print(1)\\nprint(2)"`, string(wire.CodeInterpreter["input"]))
	assert.NotContains(t, wire.CodeInterpreter, "outputs")
	assert.JSONEq(t, `{"id":"call_1","type":"code_interpreter","code_interpreter":{"input":"print(1)\\nprint(2)"}}`, string(out))
}

func TestToolCallRoundTrip(t *testing.T) {
	inputs := []string{
		codeInterpreterWire,
		`{"type":"code_interpreter","code_interpreter":{"input":"","outputs":[]}}`,
		`{"index":2,"type":"code_interpreter","code_interpreter":{}}`,
		`{"id":"call_2","type":"file_search","file_search":{}}`,
		`{"id":"call_3","type":"file_search","file_search":{"k":"v"}}`,
		`{"id":"call_4","type":"function","function":{"name":"lookup","arguments":"{\"q\":1}","output":"42"}}`,
		`{"type":"function","function":{"arguments":""}}`,
	}
	for _, input := range inputs {
		call, err := DecodeToolCall([]byte(input))
		require.NoError(t, err, input)

		out, err := json.Marshal(call)
		require.NoError(t, err, input)
		assert.JSONEq(t, input, string(out))

		again, err := DecodeToolCall(out)
		require.NoError(t, err, input)
		assert.Equal(t, call, again)
	}
}

func TestToolCallKeyOrder(t *testing.T) {
	call, err := DecodeToolCall([]byte(`{"function":{"arguments":"{}"},"type":"function","id":"call_1","index":1}`))
	require.NoError(t, err)

	out, err := call.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"index":1,"id":"call_1","type":"function","function":{"arguments":"{}"}}`, string(out))
}

func TestFunctionCallOptionalFields(t *testing.T) {
	call, err := DecodeToolCall([]byte(`{"type":"function","function":{"arguments":"{}"}}`))
	require.NoError(t, err)

	fn, ok := call.Details.(FunctionCall)
	require.True(t, ok)
	assert.Nil(t, fn.Name)
	assert.Nil(t, fn.Output)
	assert.Equal(t, "{}", fn.Arguments)

	out, err := json.Marshal(call)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "name")
	assert.NotContains(t, string(out), "output")
}

func TestFileSearchCall(t *testing.T) {
	call, err := DecodeToolCall([]byte(`{"type":"file_search","file_search":{}}`))
	require.NoError(t, err)
	assert.Equal(t, FileSearchCall{}, call.Details)

	call, err = DecodeToolCall([]byte(`{"type":"file_search","file_search":{"k":"v"}}`))
	require.NoError(t, err)
	assert.Equal(t, FileSearchCall{Fields: map[string]string{"k": "v"}}, call.Details)

	out, err := json.Marshal(ToolCall{Details: FileSearchCall{}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"file_search","file_search":{}}`, string(out))
}

func TestToolCallDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  DecodeErrorKind
		path  string
	}{
		{"bogus tag", `{"type":"bogus","bogus":{}}`, UnknownDiscriminator, "type"},
		{"no tag", `{"id":"call_1","function":{"arguments":"{}"}}`, MissingDiscriminator, "type"},
		{"no payload", `{"type":"function"}`, MissingField, "function"},
		{"null payload", `{"type":"function","function":null}`, MissingField, "function"},
		{"no arguments", `{"type":"function","function":{"name":"f"}}`, MissingField, "function.arguments"},
		{"null arguments", `{"type":"function","function":{"arguments":null}}`, MissingField, "function.arguments"},
		{"arguments not a string", `{"type":"function","function":{"arguments":5}}`, TypeMismatch, "function.arguments"},
		{"index not an int", `{"index":"0","type":"function","function":{"arguments":""}}`, TypeMismatch, "index"},
		{"file search not an object", `{"type":"file_search","file_search":"x"}`, TypeMismatch, "file_search"},
		{"input not a string", `{"type":"code_interpreter","code_interpreter":{"input":1}}`, TypeMismatch, "code_interpreter.input"},
		{
			"nested image file id",
			`{"type":"code_interpreter","code_interpreter":{"input":"x","outputs":[{"type":"logs","logs":""},{"type":"images","image":{}}]}}`,
			MissingField,
			"code_interpreter.outputs[1].image.file_id",
		},
		{
			"nested output tag",
			`{"type":"code_interpreter","code_interpreter":{"outputs":[{"type":"video"}]}}`,
			UnknownDiscriminator,
			"code_interpreter.outputs[0].type",
		},
		{
			"logs missing",
			`{"type":"code_interpreter","code_interpreter":{"outputs":[{"type":"logs"}]}}`,
			MissingField,
			"code_interpreter.outputs[0].logs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := DecodeToolCall([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, ToolCall{}, call)

			var decErr *DecodingError
			require.True(t, errors.As(err, &decErr), "got %T: %v", err, err)
			assert.Equal(t, tt.kind, decErr.Kind)
			assert.Equal(t, tt.path, decErr.Path)
		})
	}
}

func TestToolCallUnknownTagValue(t *testing.T) {
	_, err := DecodeToolCall([]byte(`{"type":"bogus","bogus":{}}`))
	assert.ErrorIs(t, err, ErrUnknownDiscriminator)

	var decErr *DecodingError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "bogus", decErr.Value)
	assert.Equal(t, toolCallFamily, decErr.Family)
	assert.True(t, strings.Contains(err.Error(), "bogus"))
}

func TestToolCallUnmarshalKeepsTargetOnError(t *testing.T) {
	call := ToolCall{ID: ptr("keep")}
	err := json.Unmarshal([]byte(`{"type":"bogus"}`), &call)
	require.Error(t, err)
	assert.Equal(t, ptr("keep"), call.ID)
}

func TestToolCallEncodeWithoutDetails(t *testing.T) {
	_, err := json.Marshal(ToolCall{ID: ptr("call_1")})
	assert.Error(t, err)
}

func TestCodeInterpreterOutputs(t *testing.T) {
	out, err := EncodeCodeInterpreterOutput(LogsOutput{Logs: "ok"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"logs","logs":"ok"}`, string(out))

	out, err = EncodeCodeInterpreterOutput(ImagesOutput{Image: ImageRef{FileID: "file_1"}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"images","image":{"file_id":"file_1"}}`, string(out))

	o, err := DecodeCodeInterpreterOutput(out)
	require.NoError(t, err)
	assert.Equal(t, ImagesOutput{Image: ImageRef{FileID: "file_1"}}, o)

	_, err = DecodeCodeInterpreterOutput([]byte(`{"type":"images","image":null}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestEncodeNilMember(t *testing.T) {
	_, err := json.Marshal(ToolCall{Details: CodeInterpreterCall{Outputs: []CodeInterpreterOutput{nil}}})
	assert.ErrorContains(t, err, "no value")

	_, err = EncodeCodeInterpreterOutput(nil)
	assert.EqualError(t, err, "encoding code interpreter output: no value")

	_, err = EncodeStepDetails(nil)
	assert.ErrorContains(t, err, "no value")

	_, err = json.Marshal(ToolCall{Details: (*FunctionCall)(nil)})
	assert.ErrorContains(t, err, "no value")
	assert.Empty(t, ToolCall{Details: (*FunctionCall)(nil)}.Type())
}

func TestFileSearchEmptyFields(t *testing.T) {
	out, err := json.Marshal(ToolCall{Details: FileSearchCall{Fields: map[string]string{}}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"file_search","file_search":{}}`, string(out))

	call, err := DecodeToolCall(out)
	require.NoError(t, err)
	assert.Equal(t, FileSearchCall{}, call.Details)
}

func TestToolCallPointerDetails(t *testing.T) {
	out, err := json.Marshal(ToolCall{Details: &FunctionCall{Arguments: "{}"}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"function","function":{"arguments":"{}"}}`, string(out))

	call, err := DecodeToolCall(out)
	require.NoError(t, err)
	assert.Equal(t, FunctionCall{Arguments: "{}"}, call.Details)

	out, err = EncodeCodeInterpreterOutput(&LogsOutput{Logs: "ok"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"logs","logs":"ok"}`, string(out))
}
