package llm

import (
	"context"
	"fmt"
)

// ToolExecutor runs one tool call against external tool logic and returns
// the string payload to thread back into the conversation. Implementations
// are invoked exactly once per call. The library never retries or
// second-guesses executor errors: ExecuteToolCalls aborts on the first one,
// and a caller preferring to continue should convert failures to a string
// result inside the executor itself.
type ToolExecutor func(ctx context.Context, call ToolCall) (string, error)

// AssistantTurnMessage builds the assistant history message for a completed
// generation turn, carrying its text and finalized tool calls verbatim.
// When the turn finished with FinishReasonToolUse, this message must be
// appended to history before any tool-result messages.
func AssistantTurnMessage(result *StreamResult) Message {
	msg := Message{Role: RoleAssistant}
	if result.Content != "" {
		msg.Content = []ContentBlock{{Type: "text", Text: result.Content}}
	}
	if len(result.ToolCalls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), result.ToolCalls...)
	}
	return msg
}

// ExecuteToolCalls invokes the executor once per tool call, in the order the
// calls appear, and returns one tool-role result message per call correlated
// by id. The order calls execute in is not semantically significant; the id
// correlation is what ties each result to its call.
//
// The first executor error aborts execution and is returned wrapped with the
// failing call's name and id. Results gathered before the failure are
// returned alongside the error so the caller can decide how to proceed.
func ExecuteToolCalls(ctx context.Context, exec ToolExecutor, calls []ToolCall) ([]Message, error) {
	results := make([]Message, 0, len(calls))
	for _, call := range calls {
		out, err := exec(ctx, call)
		if err != nil {
			return results, fmt.Errorf("tool %q (call %s): %w", call.Name, call.ID, err)
		}
		results = append(results, ToolResultMessage(call.ID, out))
	}
	return results, nil
}

// ContinueWithToolResults appends a tool-use assistant turn and its result
// messages to the conversation history, returning the extended history ready
// for the next generation request. Only after every call's result is
// appended may a follow-up request be issued; the library enforces no
// iteration bound on the resulting loop - termination is the caller's
// responsibility.
func ContinueWithToolResults(history []Message, result *StreamResult, toolResults []Message) []Message {
	history = append(history, AssistantTurnMessage(result))
	history = append(history, toolResults...)
	return history
}
