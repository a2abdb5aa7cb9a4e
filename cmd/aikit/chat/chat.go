// Package chatcmder provides the chat command for interactive LLM chat
// against any configured provider.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinmaymk/aikit-sub003/pkg/cliui"
	"github.com/chinmaymk/aikit-sub003/pkg/config"
	"github.com/chinmaymk/aikit-sub003/pkg/credentials"
	"github.com/chinmaymk/aikit-sub003/pkg/dotdir"
	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
	"github.com/chinmaymk/aikit-sub003/pkg/logger"
)

type chatCommander struct {
	providerType string
	model        string
	baseURL      string
	maxTokens    uint
	system       string
	debug        bool
	noSession    bool

	configDir string
	logger    *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session.

The chat command streams model replies token by token from the configured
provider. Conversation state persists in the .aikit/ directory so a later
"aikit chat" resumes where you left off.

In-session commands:
  /exit     Quit (Ctrl+D also works)
  /clear    Forget the conversation and start fresh

Examples:
  aikit chat
  aikit chat --provider anthropic --model claude-sonnet-4-20250514
  aikit chat --provider google --model gemini-2.0-flash --no-session`

const chatShortDesc string = "Interactive LLM chat session"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("provider") {
				cmder.providerType = cfg.Provider.Name
			}
			if !cmd.Flags().Changed("model") {
				cmder.model = cfg.Provider.Model
			}
			if !cmd.Flags().Changed("max-tokens") {
				cmder.maxTokens = cfg.Generation.MaxTokens
			}
			if !cmd.Flags().Changed("base-url") {
				if vendor := cfg.Vendor(cmder.providerType); vendor != nil {
					cmder.baseURL = vendor.BaseURL
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.providerType, "provider", "p", defaults.Provider.Name, "LLM provider (openai, anthropic, google)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", defaults.Provider.Model, "Model name (e.g., gpt-4o, claude-sonnet-4-20250514, gemini-2.0-flash)")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Override the vendor API endpoint")
	cmd.Flags().UintVar(&cmder.maxTokens, "max-tokens", defaults.Generation.MaxTokens, "Maximum tokens per reply")
	cmd.Flags().StringVarP(&cmder.system, "system", "s", "", "System prompt for the conversation")
	cmd.Flags().BoolVar(&cmder.noSession, "no-session", false, "Do not load or persist conversation state")

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	if c.model == "" {
		return fmt.Errorf("no model configured; pass --model or set provider.model")
	}

	p, err := c.newProvider()
	if err != nil {
		return err
	}

	// Resume a persisted conversation if one exists
	dotdirManager := dotdir.NewManager()
	var messages []llm.Message

	fmt.Println()
	if !c.noSession {
		session, err := dotdirManager.LoadSessionState(c.configDir)
		if err != nil {
			return fmt.Errorf("loading session state: %w", err)
		}
		if session != nil && session.Provider == c.providerType {
			messages = session.Messages
			fmt.Printf("  %s Resuming conversation %s\n",
				cliui.SuccessMark,
				cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(messages))),
			)
		}
	}
	if messages == nil {
		fmt.Printf("  %s New conversation\n", cliui.DimStyle.Render("●"))
		if c.system != "" {
			messages = append(messages, llm.SystemText(c.system))
		}
	}

	fmt.Printf("  %s %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.model),
		cliui.DimStyle.Render("("+c.providerType+")"),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(cliui.UserPrompt())
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch input {
		case "/exit":
			return c.saveSession(dotdirManager, messages)
		case "/clear":
			messages = nil
			if c.system != "" {
				messages = append(messages, llm.SystemText(c.system))
			}
			if !c.noSession {
				if err := dotdirManager.ClearSession(c.configDir); err != nil {
					return fmt.Errorf("clearing session: %w", err)
				}
			}
			fmt.Printf("  %s Conversation cleared\n\n", cliui.SuccessMark)
			continue
		}

		messages = append(messages, llm.UserText(input))

		result, err := c.sendAndStream(p, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			// Remove the failed user message so we can retry
			messages = messages[:len(messages)-1]
			continue
		}

		messages = append(messages, llm.AssistantTurnMessage(result))
	}

	return c.saveSession(dotdirManager, messages)
}

func (c *chatCommander) newProvider() (provider.Provider, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	apiKey, err := mgr.ResolveKey(c.providerType)
	if err != nil {
		return nil, fmt.Errorf("resolving %s key: %w", c.providerType, err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for %s; run 'aikit auth %s' or set %s",
			c.providerType, c.providerType, credentials.EnvVarForProvider(c.providerType))
	}

	return provider.New(c.providerType, provider.Config{
		APIKey:  apiKey,
		BaseURL: c.baseURL,
		Logger:  c.logger,
	})
}

// sendAndStream issues one generation and renders the reply as it streams.
func (c *chatCommander) sendAndStream(p provider.Provider, messages []llm.Message) (*llm.StreamResult, error) {
	maxTokens := int(c.maxTokens)
	s, err := p.Generate(context.Background(), messages, &llm.GenerateOptions{
		Model:     c.model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("\n%s\n", cliui.AssistantHeader(c.model))

	inReasoning := false
	result, err := stream.Handlers{
		OnReasoning: func(r *llm.Reasoning) {
			if !inReasoning {
				inReasoning = true
			}
			fmt.Print(cliui.Reasoning(r.Delta))
		},
		OnDelta: func(delta string) {
			if inReasoning {
				inReasoning = false
				fmt.Print("\n\n")
			}
			fmt.Print(delta)
		},
		OnToolCalls: func(calls []llm.ToolCall) {
			for _, call := range calls {
				fmt.Printf("\n%s\n", cliui.ToolCallLine(call.Name, call.ID))
			}
		},
	}.Consume(s)
	if err != nil {
		fmt.Println()
		return nil, err
	}

	fmt.Println()
	if result.Usage != nil {
		fmt.Printf("%s\n", cliui.UsageLine(
			result.Usage.InputTokens,
			result.Usage.OutputTokens,
			result.Usage.TotalTokens,
		))
	}
	fmt.Println()

	return result, nil
}

func (c *chatCommander) saveSession(mgr *dotdir.Manager, messages []llm.Message) error {
	if c.noSession || len(messages) == 0 {
		return nil
	}

	err := mgr.SaveSession(&dotdir.SessionState{
		Provider: c.providerType,
		Model:    c.model,
		Messages: messages,
	}, c.configDir)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Printf("\n  %s Conversation saved\n", cliui.SuccessMark)
	return nil
}
