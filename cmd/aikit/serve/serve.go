// Package servecmder provides the serve command for running the aikit proxy.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chinmaymk/aikit-sub003/pkg/config"
	"github.com/chinmaymk/aikit-sub003/pkg/credentials"
	"github.com/chinmaymk/aikit-sub003/pkg/eventstream"
	"github.com/chinmaymk/aikit-sub003/pkg/eventstream/kafka"
	"github.com/chinmaymk/aikit-sub003/pkg/eventstream/nop"
	"github.com/chinmaymk/aikit-sub003/pkg/logger"
	"github.com/chinmaymk/aikit-sub003/proxy"
)

type serveCommander struct {
	listen       string
	providerType string
	debug        bool

	eventsEnabled bool
	eventsBrokers string
	eventsTopic   string

	configDir string

	logger *slog.Logger
}

const serveLongDesc string = `Run the aikit inference proxy.

The proxy forwards requests to the configured vendor with the proxy's own
API keys injected, so clients never hold vendor credentials. Streamed
responses pass through unmodified while usage telemetry is accumulated
and optionally published to Kafka.

Route requests to a specific vendor with a /providers/{name}/ path prefix,
or let unprefixed paths fall through to the default provider.

Supported providers: openai, anthropic, google

Examples:
  aikit serve
  aikit serve --listen :9090 --provider anthropic
  aikit serve --events-brokers localhost:9092 --events-topic aikit.usage`

const serveShortDesc string = "Run the aikit inference proxy"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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

			if !cmd.Flags().Changed("listen") {
				cmder.listen = cfg.Proxy.Listen
			}
			if !cmd.Flags().Changed("provider") {
				cmder.providerType = cfg.Proxy.Provider
			}
			if !cmd.Flags().Changed("events-brokers") {
				cmder.eventsBrokers = cfg.Events.Brokers
			}
			if !cmd.Flags().Changed("events-topic") {
				cmder.eventsTopic = cfg.Events.Topic
			}
			cmder.eventsEnabled = cfg.Events.Enabled || cmd.Flags().Changed("events-brokers")
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
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.Proxy.Listen, "Address for proxy to listen on")
	cmd.Flags().StringVarP(&cmder.providerType, "provider", "p", defaults.Proxy.Provider, "Default LLM provider (openai, anthropic, google)")
	cmd.Flags().StringVar(&cmder.eventsBrokers, "events-brokers", defaults.Events.Brokers, "Comma-separated Kafka broker addresses for usage events")
	cmd.Flags().StringVar(&cmder.eventsTopic, "events-topic", defaults.Events.Topic, "Kafka topic for usage events")

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	routes, err := c.buildRoutes(cfg)
	if err != nil {
		return err
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	p, err := proxy.New(proxy.Config{
		ListenAddr:   c.listen,
		ProviderType: c.providerType,
		Routes:       routes,
	}, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating proxy: %w", err)
	}
	defer p.Close()

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("proxy error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}

// buildRoutes resolves the per-vendor upstream URL and API key. Keys come
// from the environment, the credentials store, or the config file, in that
// order.
func (c *serveCommander) buildRoutes(cfg *config.Config) (map[string]proxy.Route, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	routes := make(map[string]proxy.Route)
	for _, name := range credentials.SupportedProviders() {
		key, err := mgr.ResolveKey(name)
		if err != nil {
			return nil, fmt.Errorf("resolving %s key: %w", name, err)
		}

		vendor := cfg.Vendor(name)
		if key == "" && vendor != nil {
			key = vendor.APIKey
		}

		route := proxy.Route{APIKey: key}
		if vendor != nil {
			route.UpstreamURL = vendor.BaseURL
		}
		routes[name] = route
	}

	if routes[c.providerType].APIKey == "" {
		c.logger.Warn("no API key configured for default provider",
			"provider", c.providerType,
		)
	}

	return routes, nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	if !c.eventsEnabled || c.eventsBrokers == "" {
		c.logger.Info("usage event publishing disabled")
		return nop.NewPublisher(), nil
	}

	brokers := config.EventsConfig{Brokers: c.eventsBrokers}.BrokerList()
	pub, err := kafka.NewPublisher(brokers, c.eventsTopic, kafka.WithLogger(c.logger))
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	c.logger.Info("publishing usage events to kafka",
		"brokers", brokers,
		"topic", c.eventsTopic,
	)
	return pub, nil
}
