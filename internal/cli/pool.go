package cli

import (
	"gallery-cli/internal/logging"
	"gallery-cli/internal/pool"
	"gallery-cli/internal/registry"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newPoolCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Manage the cached item pool",
	}
	cmd.AddCommand(newPoolImportCmd(app))
	cmd.AddCommand(newPoolListCmd(app))
	return cmd
}

func newPoolImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <items.json>",
		Short: "Replace the cached pool with the items in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.store()
			src := pool.SyncSource{Upstream: pool.FileSource{Path: args[0]}, Store: s}
			items, err := src.Fetch(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			view := registry.Register(items)
			logging.NewLogger("cli").WithFields(logrus.Fields{
				"path":  args[0],
				"items": view.Len(),
			}).Info("pool imported")
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"items":       view.Len(),
					"fingerprint": view.Fingerprint().String(),
				},
			})
		},
	}
}

func newPoolListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached pool items (by id)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := pool.StoreSource{Store: app.store()}.Fetch(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": registry.Register(items).Items()})
		},
	}
}
