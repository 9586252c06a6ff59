package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearthctl/internal/hub"
)

func statesCmd() *cobra.Command {
	var asJSON bool
	var domain string

	cmd := &cobra.Command{
		Use:   "states [entity_id]",
		Short: "Show entity states",
		Long: `Show the current state of every entity, or of one entity.

Without arguments a table of all entities is printed. With an entity id
only that entity is fetched. Uses the hub's REST API.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newRESTClient(cfg)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				state, err := client.State(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(state.Payload())
				}
				printStateTable([]*hub.EntityState{state})
				return nil
			}

			list, err := client.States(cmd.Context())
			if err != nil {
				return err
			}

			states := list.States()
			if domain != "" {
				filtered := states[:0]
				for _, st := range states {
					if st.Domain() == domain {
						filtered = append(filtered, st)
					}
				}
				states = filtered
			}

			if asJSON {
				payloads := make([]map[string]any, 0, len(states))
				for _, st := range states {
					payloads = append(payloads, st.Payload())
				}
				return printJSON(payloads)
			}
			printStateTable(states)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON payloads")
	cmd.Flags().StringVar(&domain, "domain", "", "only show entities in this domain")

	return cmd
}

// printStateTable writes entity states as an aligned table.
func printStateTable(states []*hub.EntityState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITY\tSTATE\tLAST CHANGED")
	for _, st := range states {
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.EntityID(), st.State(), st.LastChanged())
	}
	w.Flush()
}
