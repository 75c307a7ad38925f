package cli

import (
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/pool"
	"gallery-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	var watch string

	cmd := &cobra.Command{
		Use:   "edit <collection-id>",
		Short: "Arrange a collection interactively",
		Long: `Open the two-pane editor: the pool on the left, the staged arrangement on the right.

With --watch, the given items file is re-imported whenever it changes and the
editor reconciles against it in the background.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.store()
			c, err := s.LoadCollection(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			var src pool.Source = pool.StoreSource{Store: s}
			if watch != "" {
				src = pool.SyncSource{Upstream: pool.FileSource{Path: watch}, Store: s}
			} else if _, ok, err := s.PoolImportedAt(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			} else if !ok {
				return writeErr(cmd, errNoPool)
			}

			// Keep log output off the alt screen.
			logCfg := app.cfg.Log
			if app.LogLevel != "" {
				logCfg.Level = app.LogLevel
			}
			if logCfg.File == "" {
				logCfg.File = logging.DailyFile(app.Dir, "gallery", time.Now())
			}
			if err := logging.Configure(logCfg); err != nil {
				return writeErr(cmd, err)
			}

			return tui.Run(tui.Options{
				Collection: c,
				Store:      s,
				Source:     src,
				WatchPath:  watch,
				Debounce:   app.cfg.Watch.Debounce,
			})
		},
	}
	cmd.Flags().StringVar(&watch, "watch", "", "Items JSON file to re-import on change")
	return cmd
}
