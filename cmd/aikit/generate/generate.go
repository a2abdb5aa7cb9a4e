// Package generatecmder provides the generate command for one-shot text
// generation from the command line.
package generatecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinmaymk/aikit-sub003/pkg/config"
	"github.com/chinmaymk/aikit-sub003/pkg/credentials"
	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
	"github.com/chinmaymk/aikit-sub003/pkg/logger"
)

type generateCommander struct {
	providerType string
	model        string
	baseURL      string
	maxTokens    uint
	temperature  float64
	system       string
	image        string
	debug        bool

	configDir string
	logger    *slog.Logger
}

const generateLongDesc string = `Generate text from a prompt and print it to stdout.

The prompt comes from the command arguments, or from stdin when piped.
Output streams token by token, so generate composes with shell pipelines.

Examples:
  aikit generate "Explain io.Pipe in one paragraph"
  cat notes.md | aikit generate "Summarize this document"
  aikit generate --image photo.png "What is in this image?"
  aikit generate -p google -m gemini-2.0-flash "Write a haiku about channels"`

const generateShortDesc string = "One-shot text generation"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.ArbitraryArgs,
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
			if !cmd.Flags().Changed("temperature") {
				cmder.temperature = cfg.Generation.Temperature
			}
			if !cmd.Flags().Changed("base-url") {
				if vendor := cfg.Vendor(cmder.providerType); vendor != nil {
					cmder.baseURL = vendor.BaseURL
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(args)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.providerType, "provider", "p", defaults.Provider.Name, "LLM provider (openai, anthropic, google)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", defaults.Provider.Model, "Model name")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Override the vendor API endpoint")
	cmd.Flags().UintVar(&cmder.maxTokens, "max-tokens", defaults.Generation.MaxTokens, "Maximum tokens to generate")
	cmd.Flags().Float64VarP(&cmder.temperature, "temperature", "t", defaults.Generation.Temperature, "Sampling temperature")
	cmd.Flags().StringVarP(&cmder.system, "system", "s", "", "System prompt")
	cmd.Flags().StringVar(&cmder.image, "image", "", "Path to an image to include with the prompt")

	return cmd
}

func (c *generateCommander) run(args []string) error {
	c.logger = logger.New(logger.WithDebug(c.debug))

	if c.model == "" {
		return fmt.Errorf("no model configured; pass --model or set provider.model")
	}

	prompt, err := c.buildPrompt(args)
	if err != nil {
		return err
	}

	messages, err := c.buildMessages(prompt)
	if err != nil {
		return err
	}

	p, err := c.newProvider()
	if err != nil {
		return err
	}

	maxTokens := int(c.maxTokens)
	s, err := p.Generate(context.Background(), messages, &llm.GenerateOptions{
		Model:       c.model,
		MaxTokens:   &maxTokens,
		Temperature: &c.temperature,
	})
	if err != nil {
		return err
	}

	result, err := stream.Handlers{
		OnDelta: func(delta string) {
			fmt.Print(delta)
		},
	}.Consume(s)
	if err != nil {
		return err
	}

	// Streams that end without a trailing newline leave the shell prompt
	// glued to the output.
	if !strings.HasSuffix(result.Content, "\n") {
		fmt.Println()
	}

	if result.FinishReason == llm.FinishReasonLength {
		fmt.Fprintln(os.Stderr, "warning: output truncated by max-tokens limit")
	}

	return nil
}

// buildPrompt joins the argument prompt with any piped stdin content.
func (c *generateCommander) buildPrompt(args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	if (fi.Mode() & os.ModeCharDevice) == 0 {
		piped, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		if len(piped) > 0 {
			if prompt == "" {
				prompt = string(piped)
			} else {
				prompt = prompt + "\n\n" + string(piped)
			}
		}
	}

	if prompt == "" {
		return "", fmt.Errorf("no prompt given; pass it as an argument or pipe it on stdin")
	}

	return prompt, nil
}

func (c *generateCommander) buildMessages(prompt string) ([]llm.Message, error) {
	var messages []llm.Message
	if c.system != "" {
		messages = append(messages, llm.SystemText(c.system))
	}

	if c.image != "" {
		encoded, err := llm.EncodeImageFile(c.image)
		if err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		messages = append(messages, llm.UserImage(encoded, prompt))
	} else {
		messages = append(messages, llm.UserText(prompt))
	}

	return messages, nil
}

func (c *generateCommander) newProvider() (provider.Provider, error) {
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
