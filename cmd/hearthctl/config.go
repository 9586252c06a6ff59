package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the hub's configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newRESTClient(cfg)
			if err != nil {
				return err
			}

			hubCfg, err := client.Config(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(hubCfg.Payload())
			}
			fmt.Printf("Location:  %s\n", hubCfg.LocationName())
			fmt.Printf("Version:   %s\n", hubCfg.Version())
			if tz := hubCfg.TimeZone(); tz != "" {
				fmt.Printf("Time zone: %s\n", tz)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON payload")

	return cmd
}
