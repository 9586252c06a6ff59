package main

import (
	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearthctl/internal/hub"
)

func watchCmd() *cobra.Command {
	var eventType string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream hub events to stdout",
		Long: `Subscribe to pushed hub events and print each one as JSON until
interrupted. --type narrows the subscription, e.g.:

  hearthctl watch --type state_changed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			client, err := connectHub(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if _, err := client.SubscribeEvents(cmd.Context(), eventType); err != nil {
				return err
			}
			log.Info("watching hub events", "type", eventType)

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case frame, ok := <-client.Events():
					if !ok {
						log.Warn("hub connection closed")
						return nil
					}
					event, err := hub.NewEvent(frame)
					if err != nil {
						log.Warn("skipping malformed event", "error", err)
						continue
					}
					if err := printJSON(event.Payload()); err != nil {
						return err
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&eventType, "type", "", "only watch events of this type")

	return cmd
}
