package main

import (
	"github.com/spf13/cobra"
)

func rawCmd() *cobra.Command {
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "raw <type>",
		Short: "Send a raw WebSocket command",
		Long: `Send an arbitrary command over the WebSocket channel and print the
hub's reply. Useful for commands hearthctl has no dedicated verb for:

  hearthctl raw get_services
  hearthctl raw call_service --params '{"domain":"light","service":"toggle"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			params, err := parseDataFlag(paramsJSON)
			if err != nil {
				return err
			}

			client, err := connectHub(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			reply, err := client.Raw(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			return printJSON(reply)
		},
	}

	cmd.Flags().StringVar(&paramsJSON, "params", "", "command parameters as a JSON object")

	return cmd
}
