// Package llm defines the provider-agnostic data model shared by every
// vendor client: messages, content blocks, tools, generation options, and
// the streaming chunk/result types.
package llm

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single turn in a conversation.
// Content is stored as an ordered array of ContentBlocks to support
// multimodal content (text, images, audio, tool results) in a
// provider-agnostic way. Order is positional within the turn.
type Message struct {
	Role    string         `json:"role"`    // "system", "user", "assistant", "tool"
	Content []ContentBlock `json:"content"` // Ordered content blocks

	// ToolCalls is set only on assistant messages whose turn paused to
	// request external tool execution. Such a message must be followed by
	// tool-role result messages before generation can continue.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ContentBlock represents a single piece of content within a message.
// The Type field determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "image", "audio", "tool_result"

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Image content (type="image"): base64 data or a data: URL.
	Image string `json:"image,omitempty"`

	// Audio content (type="audio"): base64 data or a data: URL, with an
	// optional format hint (e.g. "wav", "mp3").
	Audio       string `json:"audio,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`

	// Tool result (type="tool_result") - references a prior tool call's id.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Result     string `json:"result,omitempty"`
}

// SystemText creates a system message with a single text block.
func SystemText(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// UserText creates a user message with a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// AssistantText creates an assistant message with a single text block.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{{Type: "text", Text: text}}}
}

// UserImage creates a user message carrying an image (base64 or data URL)
// with optional accompanying text.
func UserImage(image string, text string) Message {
	msg := Message{Role: RoleUser}
	if text != "" {
		msg.Content = append(msg.Content, ContentBlock{Type: "text", Text: text})
	}
	msg.Content = append(msg.Content, ContentBlock{Type: "image", Image: image})
	return msg
}

// ToolResultMessage creates a tool-role message carrying the result of a
// previously emitted tool call, correlated by id.
func ToolResultMessage(toolCallID, result string) Message {
	return Message{
		Role: RoleTool,
		Content: []ContentBlock{
			{Type: "tool_result", ToolCallID: toolCallID, Result: result},
		},
	}
}

// EncodeImageFile reads an image file and returns it as a data: URL suitable
// for UserImage. The media type is inferred from the file extension, falling
// back to image/png.
func EncodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = "image/png"
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// GetText returns the concatenated text content from all text blocks in the
// message. This is a convenience method for simple text-only messages.
func (m *Message) GetText() string {
	var result string
	for _, block := range m.Content {
		if block.Type == "text" {
			result += block.Text
		}
	}
	return result
}
