package assistants

import (
	openai "github.com/sashabaranov/go-openai"
)

// PendingToolCalls returns the calls a requires_action run is waiting on.
func (r Run) PendingToolCalls() []openai.ToolCall {
	if r.Status != openai.RunStatusRequiresAction || r.RequiredAction == nil {
		return nil
	}
	return r.RequiredAction.SubmitToolOutputs.ToolCalls
}

// FunctionToolCall converts a pending call into its run-step form with no
// output yet.
func FunctionToolCall(c openai.ToolCall) ToolCall {
	call := FunctionCall{Arguments: c.Function.Arguments}
	if c.Function.Name != "" {
		name := c.Function.Name
		call.Name = &name
	}
	tc := ToolCall{Index: c.Index, Details: call}
	if c.ID != "" {
		id := c.ID
		tc.ID = &id
	}
	return tc
}

// ToOpenAI converts a function tool call back to the chat tool call shape.
// ok is false for the other tool call kinds.
func (c ToolCall) ToOpenAI() (tc openai.ToolCall, ok bool) {
	fn, err := variant[FunctionCall](c.Details)
	if err != nil {
		return openai.ToolCall{}, false
	}
	tc = openai.ToolCall{
		Index: c.Index,
		Type:  openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Arguments: fn.Arguments,
		},
	}
	if c.ID != nil {
		tc.ID = *c.ID
	}
	if fn.Name != nil {
		tc.Function.Name = *fn.Name
	}
	return tc, true
}

// ToolOutputs builds the submit request for every function call that has an
// id and an output. Other calls are skipped.
func ToolOutputs(calls []ToolCall) openai.SubmitToolOutputsRequest {
	var req openai.SubmitToolOutputsRequest
	for _, c := range calls {
		fn, err := variant[FunctionCall](c.Details)
		if err != nil || c.ID == nil || fn.Output == nil {
			continue
		}
		req.ToolOutputs = append(req.ToolOutputs, openai.ToolOutput{
			ToolCallID: *c.ID,
			Output:     *fn.Output,
		})
	}
	return req
}
