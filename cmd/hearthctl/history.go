package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthlabs/hearthctl/internal/history"
	"github.com/hearthlabs/hearthctl/internal/infrastructure/database"
)

func historyCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [entity_id]",
		Short: "Show recorded state history",
		Long: `Show state changes recorded by the relay in the local history
database. Without arguments the most recent changes across all entities
are shown; with an entity id only that entity's history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Relay.History.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := history.NewRepository(db)

			var entries []history.Entry
			if len(args) == 1 {
				entries, err = repo.ForEntity(cmd.Context(), args[0], limit)
			} else {
				entries, err = repo.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tENTITY\tSTATE\tFROM")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.RecordedAt.Local().Format(time.DateTime),
					e.EntityID, e.State, e.OldState)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	return cmd
}
