package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has --model flag with shorthand", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
	})

	It("has --provider flag defaulting to openai", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("provider")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("openai"))
	})

	It("has --max-tokens flag with the config default", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("max-tokens")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("4096"))
	})

	It("has --system and --no-session flags", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Flags().Lookup("system")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("no-session")).NotTo(BeNil())
	})
})
