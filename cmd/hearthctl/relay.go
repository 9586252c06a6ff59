package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearthctl/internal/history"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/database"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/influxdb"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/mqtt"
	"github.com/hearthlabs/hearthctl/internal/relay"
)

func relayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the event relay",
		Long: `Stay connected to the hub and mirror its event stream into the
sinks enabled in configuration: local SQLite history, InfluxDB state
metrics, and retained MQTT state topics. Commands published to
hearth/command/{domain}/{service} are forwarded to the hub.

Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			opts := relay.Options{Logger: log.With("component", "relay")}

			if cfg.Relay.History.Enabled {
				db, err := database.Open(cfg.Relay.History.Path)
				if err != nil {
					return fmt.Errorf("opening history database: %w", err)
				}
				defer db.Close()
				if err := db.Migrate(ctx); err != nil {
					return fmt.Errorf("migrating history database: %w", err)
				}
				opts.History = history.NewRepository(db)
				opts.Retention = time.Duration(cfg.Relay.History.RetentionDays) * 24 * time.Hour
				log.Info("history sink enabled", "path", db.Path())
			}

			if cfg.Relay.InfluxDB.Enabled {
				metrics, err := influxdb.Connect(cfg.Relay.InfluxDB)
				if err != nil {
					return fmt.Errorf("connecting to influxdb: %w", err)
				}
				defer metrics.Close()
				metrics.SetOnError(func(err error) {
					log.Warn("influxdb write failed", "error", err)
				})
				opts.Metrics = metrics
				log.Info("metrics sink enabled", "url", cfg.Relay.InfluxDB.URL)
			}

			if cfg.Relay.MQTT.Enabled {
				broker, err := mqtt.Connect(cfg.Relay.MQTT)
				if err != nil {
					return fmt.Errorf("connecting to mqtt broker: %w", err)
				}
				defer broker.Close()
				broker.SetLogger(log.With("component", "mqtt"))
				opts.Broker = broker
				log.Info("mqtt sink enabled",
					"host", cfg.Relay.MQTT.Broker.Host,
					"port", cfg.Relay.MQTT.Broker.Port,
				)
			}

			client, err := connectHub(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()
			opts.Hub = client
			log.Info("connected to hub", "endpoint", cfg.Hub.Endpoint)

			r, err := relay.New(opts)
			if err != nil {
				return err
			}

			err = r.Run(ctx)

			stats := r.Stats()
			log.Info("relay stopped",
				"events", stats.Events,
				"states", stats.States,
				"commands", stats.Commands,
				"sink_failures", stats.SinkFails,
				"dropped_events", client.Session().DroppedEvents(),
			)
			return err
		},
	}

	return cmd
}
