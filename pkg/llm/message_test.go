package llm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

var _ = Describe("Message", func() {
	Describe("constructors", func() {
		It("builds role-tagged single-block text messages", func() {
			Expect(llm.SystemText("be brief").Role).To(Equal(llm.RoleSystem))
			Expect(llm.UserText("hi").Role).To(Equal(llm.RoleUser))
			Expect(llm.AssistantText("hello").Role).To(Equal(llm.RoleAssistant))

			msg := llm.UserText("hi")
			Expect(msg.Content).To(HaveLen(1))
			Expect(msg.Content[0].Type).To(Equal("text"))
			Expect(msg.Content[0].Text).To(Equal("hi"))
		})

		It("orders text before image in UserImage", func() {
			msg := llm.UserImage("data:image/png;base64,AAAA", "what is this?")
			Expect(msg.Content).To(HaveLen(2))
			Expect(msg.Content[0].Type).To(Equal("text"))
			Expect(msg.Content[1].Type).To(Equal("image"))
			Expect(msg.Content[1].Image).To(HavePrefix("data:image/png"))
		})

		It("omits the text block when UserImage gets no caption", func() {
			msg := llm.UserImage("AAAA", "")
			Expect(msg.Content).To(HaveLen(1))
			Expect(msg.Content[0].Type).To(Equal("image"))
		})

		It("correlates tool results to their call by id", func() {
			msg := llm.ToolResultMessage("call_1", `{"temp": 20}`)
			Expect(msg.Role).To(Equal(llm.RoleTool))
			Expect(msg.Content[0].Type).To(Equal("tool_result"))
			Expect(msg.Content[0].ToolCallID).To(Equal("call_1"))
			Expect(msg.Content[0].Result).To(Equal(`{"temp": 20}`))
		})
	})

	Describe("GetText", func() {
		It("concatenates text blocks and skips others", func() {
			msg := llm.Message{
				Role: llm.RoleUser,
				Content: []llm.ContentBlock{
					{Type: "text", Text: "before "},
					{Type: "image", Image: "AAAA"},
					{Type: "text", Text: "after"},
				},
			}
			Expect(msg.GetText()).To(Equal("before after"))
		})

		It("returns empty for a message with no text blocks", func() {
			msg := llm.UserImage("AAAA", "")
			Expect(msg.GetText()).To(BeEmpty())
		})
	})
})
