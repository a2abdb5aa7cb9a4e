// Package aikitcmder
package aikitcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/auth"
	chatcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/chat"
	configcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/config"
	embedcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/embed"
	generatecmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/generate"
	initcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/init"
	servecmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/serve"
	versioncmder "github.com/chinmaymk/aikit-sub003/cmd/version"
)

const aikitLongDesc string = `Aikit is one client for every LLM vendor.

Talk to OpenAI, Anthropic, and Gemini models through a single streaming
interface with unified tool calling:
  aikit chat               Interactive chat session
  aikit generate           One-shot text generation
  aikit serve              Run the key-hiding inference proxy
  aikit auth <provider>    Store vendor API keys
  aikit config             Manage persistent configuration`

const aikitShortDesc string = "Aikit - one client for every LLM vendor"

func NewAikitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aikit",
		Short: aikitShortDesc,
		Long:  aikitLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .aikit/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(generatecmder.NewGenerateCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(embedcmder.NewEmbedCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
