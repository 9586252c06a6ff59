// hearthctl is a command line client for the Hearth home hub.
//
// It talks to the hub over its REST API for one-shot queries and over
// the authenticated WebSocket channel for commands and live events, and
// can run as a long-lived relay that mirrors hub state into MQTT,
// InfluxDB and a local history database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/hearthlabs/hearthctl/migrations"

	"github.com/hearthlabs/hearthctl/internal/hub"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/config"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/logging"
	"github.com/hearthlabs/hearthctl/internal/session"
)

// Version information set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// flags shared by every command.
var (
	flagConfig   string
	flagEndpoint string
	flagToken    string
	flagTLS      bool
	flagLogLevel string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:   "hearthctl",
		Short: "Command line client for the Hearth home hub",
		Long: `hearthctl talks to a Hearth hub over REST and WebSocket.

One-shot queries (states, config, history) answer and exit. The relay
command stays connected and mirrors hub state into MQTT, InfluxDB and
a local SQLite history.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to config.yaml (default: config-free, env only)")
	pf.StringVar(&flagEndpoint, "endpoint", "", "hub address host:port (overrides config)")
	pf.StringVar(&flagToken, "token", "", "hub access token (overrides config)")
	pf.BoolVar(&flagTLS, "tls", false, "use https/wss when talking to the hub")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		statesCmd(),
		callCmd(),
		configCmd(),
		historyCmd(),
		rawCmd(),
		watchCmd(),
		relayCmd(),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration. Command line flags are
// pushed into the environment so they ride the same override path as
// HEARTHCTL_* variables, then the config loads and validates once.
func loadConfig() (*config.Config, error) {
	if flagEndpoint != "" {
		os.Setenv("HEARTHCTL_HUB_ENDPOINT", flagEndpoint)
	}
	if flagToken != "" {
		os.Setenv("HEARTHCTL_HUB_TOKEN", flagToken)
	}
	if flagTLS {
		os.Setenv("HEARTHCTL_HUB_TLS", "true")
	}
	if flagLogLevel != "" {
		os.Setenv("HEARTHCTL_LOG_LEVEL", flagLogLevel)
	}
	return config.Load(flagConfig)
}

// newLogger builds the logger from effective configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(cfg.Logging, version)
}

// newRESTClient builds a REST client from effective configuration.
func newRESTClient(cfg *config.Config) (*hub.RESTClient, error) {
	return hub.NewRESTClient(hub.RESTOptions{
		Endpoint: cfg.Hub.Endpoint,
		Token:    cfg.Hub.Token,
		TLS:      cfg.Hub.TLS,
		Timeout:  cfg.GetRequestTimeout(),
	})
}

// connectHub opens and authenticates a WebSocket session.
func connectHub(ctx context.Context, cfg *config.Config) (*hub.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.GetConnectTimeout())
	defer cancel()

	return hub.Connect(connectCtx, session.Options{
		Endpoint:         cfg.Hub.Endpoint,
		Token:            cfg.Hub.Token,
		TLS:              cfg.Hub.TLS,
		HandshakeTimeout: cfg.GetConnectTimeout(),
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// parseDataFlag decodes a --data JSON object, tolerating empty input.
func parseDataFlag(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parsing --data: %w", err)
	}
	return data, nil
}
