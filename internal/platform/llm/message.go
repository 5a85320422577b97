// Package llm provides the chat message model and a chat-completions client
// for an OpenAI-compatible API. The Generator interface is the only surface
// the rest of the system depends on, so tests swap in scripted stubs.
package llm

// Message roles on the chat wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a conversation history. The history is append-only
// and owned by the conversation agent; the generator only reads a snapshot.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a structured request from the model to invoke a declared tool.
// Each call is resolved into exactly one tool message matched by ID.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Query is the single argument every tool in this system takes.
	Query string `json:"query"`
}

// ToolSpec declares a tool the model may call. All tools here take one
// string parameter named "query".
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Reply is the model's answer to one Generate call: assistant text plus zero
// or more tool-call requests. A reply with no tool calls ends the turn.
type Reply struct {
	Content   string
	ToolCalls []ToolCall
}

// UserMessage builds a user-role message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds an assistant-role message carrying tool calls.
func AssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResultMessage builds a tool-role message answering the call with the
// given ID.
func ToolResultMessage(callID, text string) Message {
	return Message{Role: RoleTool, Content: text, ToolCallID: callID}
}
