package assistants

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requiresActionRun = `{
	"id": "run_1",
	"object": "thread.run",
	"created_at": 1700000000,
	"assistant_id": "asst_1",
	"thread_id": "thread_1",
	"status": "requires_action",
	"required_action": {
		"type": "submit_tool_outputs",
		"submit_tool_outputs": {
			"tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"q\":1}"}}
			]
		}
	},
	"model": "gpt-4o",
	"instructions": "be brief",
	"tools": [{"type": "function", "function": {"name": "lookup"}}]
}`

func TestRunPendingToolCalls(t *testing.T) {
	var run Run
	require.NoError(t, json.Unmarshal([]byte(requiresActionRun), &run))

	assert.Equal(t, openai.RunStatusRequiresAction, run.Status)
	pending := run.PendingToolCalls()
	require.Len(t, pending, 1)
	assert.Equal(t, "call_1", pending[0].ID)
	assert.Equal(t, openai.ToolTypeFunction, pending[0].Type)
	assert.Equal(t, "lookup", pending[0].Function.Name)
	assert.Equal(t, `{"q":1}`, pending[0].Function.Arguments)

	run.Status = openai.RunStatusCompleted
	assert.Nil(t, run.PendingToolCalls())

	run.Status = openai.RunStatusRequiresAction
	run.RequiredAction = nil
	assert.Nil(t, run.PendingToolCalls())
}

func TestFunctionToolCallConversion(t *testing.T) {
	pending := openai.ToolCall{
		ID:   "call_1",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      "lookup",
			Arguments: `{"q":1}`,
		},
	}

	call := FunctionToolCall(pending)
	assert.Equal(t, ToolCall{
		ID: ptr("call_1"),
		Details: FunctionCall{
			Name:      ptr("lookup"),
			Arguments: `{"q":1}`,
		},
	}, call)

	back, ok := call.ToOpenAI()
	require.True(t, ok)
	assert.Equal(t, pending, back)

	_, ok = ToolCall{Details: FileSearchCall{}}.ToOpenAI()
	assert.False(t, ok)
}

func TestToolOutputs(t *testing.T) {
	calls := []ToolCall{
		{ID: ptr("call_1"), Details: FunctionCall{Name: ptr("lookup"), Arguments: "{}", Output: ptr("42")}},
		{ID: ptr("call_2"), Details: FunctionCall{Name: ptr("pending"), Arguments: "{}"}},
		{Details: FunctionCall{Arguments: "{}", Output: ptr("no id")}},
		{ID: ptr("call_3"), Details: CodeInterpreterCall{Input: ptr("1+1")}},
	}

	req := ToolOutputs(calls)
	assert.Equal(t, []openai.ToolOutput{{ToolCallID: "call_1", Output: "42"}}, req.ToolOutputs)
	assert.Empty(t, ToolOutputs(nil).ToolOutputs)
}

func TestPointerFunctionCall(t *testing.T) {
	call := ToolCall{ID: ptr("call_1"), Details: &FunctionCall{Name: ptr("lookup"), Arguments: "{}", Output: ptr("42")}}

	tc, ok := call.ToOpenAI()
	require.True(t, ok)
	assert.Equal(t, "lookup", tc.Function.Name)

	req := ToolOutputs([]ToolCall{call, {ID: ptr("call_2"), Details: (*FunctionCall)(nil)}})
	assert.Equal(t, []openai.ToolOutput{{ToolCallID: "call_1", Output: "42"}}, req.ToolOutputs)
}
