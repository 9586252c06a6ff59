package main

import (
	"github.com/spf13/cobra"
)

func callCmd() *cobra.Command {
	var dataJSON string
	var entityID string
	var useREST bool

	cmd := &cobra.Command{
		Use:   "call <domain> <service>",
		Short: "Call a service on the hub",
		Long: `Call a service, e.g. turn a light on:

  hearthctl call light turn_on --entity light.kitchen
  hearthctl call light turn_on --data '{"entity_id":"light.kitchen","brightness":128}'

By default the call goes over the WebSocket command channel; --rest
uses the REST API instead and prints the states the call changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := parseDataFlag(dataJSON)
			if err != nil {
				return err
			}
			if entityID != "" {
				if data == nil {
					data = map[string]any{}
				}
				data["entity_id"] = entityID
			}
			domain, service := args[0], args[1]

			if useREST {
				client, err := newRESTClient(cfg)
				if err != nil {
					return err
				}
				changed, err := client.CallService(cmd.Context(), domain, service, data)
				if err != nil {
					return err
				}
				printStateTable(changed.States())
				return nil
			}

			client, err := connectHub(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.CallService(cmd.Context(), domain, service, data)
		},
	}

	cmd.Flags().StringVar(&dataJSON, "data", "", "service data as a JSON object")
	cmd.Flags().StringVar(&entityID, "entity", "", "target entity id (shorthand for entity_id in --data)")
	cmd.Flags().BoolVar(&useREST, "rest", false, "use the REST API instead of the WebSocket channel")

	return cmd
}
