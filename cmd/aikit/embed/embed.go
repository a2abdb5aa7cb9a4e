// Package embedcmder provides the embed command for generating text
// embeddings from the command line.
package embedcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chinmaymk/aikit-sub003/pkg/config"
	"github.com/chinmaymk/aikit-sub003/pkg/credentials"
	embeddingutils "github.com/chinmaymk/aikit-sub003/pkg/embeddings/utils"
)

type embedCommander struct {
	providerType string
	model        string
	target       string
	dimensions   uint

	configDir string
}

const embedLongDesc string = `Generate a vector embedding for text and print it as JSON.

The text comes from the command arguments, or from stdin when piped.

Supported embedding providers: openai, ollama

Examples:
  aikit embed "a sentence to embed"
  cat document.txt | aikit embed
  aikit embed --embedding-provider ollama --embedding-model nomic-embed-text "local embedding"`

const embedShortDesc string = "Generate a text embedding"

func NewEmbedCmd() *cobra.Command {
	cmder := &embedCommander{}

	cmd := &cobra.Command{
		Use:   "embed [text]",
		Short: embedShortDesc,
		Long:  embedLongDesc,
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

			if !cmd.Flags().Changed("embedding-provider") {
				cmder.providerType = cfg.Embedding.Provider
			}
			if !cmd.Flags().Changed("embedding-model") {
				cmder.model = cfg.Embedding.Model
			}
			if !cmd.Flags().Changed("embedding-dimensions") {
				cmder.dimensions = cfg.Embedding.Dimensions
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(args)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.providerType, "embedding-provider", defaults.Embedding.Provider, "Embedding provider (openai, ollama)")
	cmd.Flags().StringVar(&cmder.model, "embedding-model", defaults.Embedding.Model, "Embedding model name")
	cmd.Flags().StringVar(&cmder.target, "embedding-target", "", "Override the embedding API endpoint")
	cmd.Flags().UintVar(&cmder.dimensions, "embedding-dimensions", defaults.Embedding.Dimensions, "Embedding vector length (0 = model default)")

	return cmd
}

func (c *embedCommander) run(args []string) error {
	text, err := c.buildText(args)
	if err != nil {
		return err
	}

	opts := &embeddingutils.NewEmbedderOpts{
		ProviderType: c.providerType,
		TargetURL:    c.target,
		Model:        c.model,
		Dimensions:   int(c.dimensions),
	}

	// The OpenAI embedder authenticates; Ollama is local and does not.
	if c.providerType == "openai" {
		mgr, err := credentials.NewManager(c.configDir)
		if err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		opts.APIKey, err = mgr.ResolveKey("openai")
		if err != nil {
			return fmt.Errorf("resolving openai key: %w", err)
		}
	}

	embedder, err := embeddingutils.NewEmbedder(opts)
	if err != nil {
		return err
	}
	defer embedder.Close()

	vec, err := embedder.Embed(context.Background(), text)
	if err != nil {
		return err
	}

	out, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encoding embedding: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

func (c *embedCommander) buildText(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text != "" {
		return text, nil
	}

	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		piped, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		if text = strings.TrimSpace(string(piped)); text != "" {
			return text, nil
		}
	}

	return "", fmt.Errorf("no text given; pass it as an argument or pipe it on stdin")
}
