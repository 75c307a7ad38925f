package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	var collectionID string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the local audit log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events (oldest-first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := app.store().ReadEvents(cmd.Context(), collectionID, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if evs == nil {
				return writeOut(cmd, app, map[string]any{"data": []any{}})
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	listCmd.Flags().StringVar(&collectionID, "collection", "", "Only events for this collection")

	cmd.AddCommand(listCmd)
	return cmd
}
