// Package configcmder provides the config command for managing persistent
// aikit configuration stored in the .aikit/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent aikit configuration.

Configuration is stored as config.toml in the .aikit/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  provider.name, provider.model,
  generation.max_tokens, generation.temperature,
  openai.api_key, openai.base_url,
  anthropic.api_key, anthropic.base_url,
  google.api_key, google.base_url,
  proxy.provider, proxy.listen,
  events.enabled, events.brokers, events.topic,
  embedding.provider, embedding.model, embedding.dimensions

Use subcommands to get, set, or list configuration values:
  aikit config set <key> <value>    Set a configuration value
  aikit config get <key>            Get a configuration value
  aikit config list                 List all configuration values

Examples:
  aikit config set provider.name anthropic
  aikit config set provider.model claude-sonnet-4-20250514
  aikit config get provider.name
  aikit config list`

const configShortDesc string = "Manage persistent aikit configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
