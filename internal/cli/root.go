package cli

import (
	"fmt"
	"os"
	"strings"

	"gallery-cli/internal/config"
	"gallery-cli/internal/format"
	"gallery-cli/internal/logging"
	"gallery-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "gallery",
		Short:        "Curate gallery collections from your owned items",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Cache the current item pool
  gallery pool import items.json

  # Create a collection and stage a few items
  gallery collections create --name "Favourites"
  gallery collections stage coll-abcd1234 item-1 item-2

  # Arrange it interactively, re-reading items.json whenever it changes
  gallery edit coll-abcd1234 --watch items.json
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.resolve(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("GALLERY_DIR", ""), "Path to store dir (default: nearest .gallery, else ./.gallery)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GALLERY_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newPoolCmd(app))
	cmd.AddCommand(newCollectionsCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newEditCmd(app))

	return cmd
}

// resolve loads configuration. Precedence: flags, then env, then the config
// file, then defaults.
func (app *App) resolve(cmd *cobra.Command) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	if app.Dir == "" {
		app.Dir = cfg.Dir
	}
	if app.Dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.Dir = d
	}

	logCfg := cfg.Log
	if app.LogLevel != "" {
		logCfg.Level = app.LogLevel
	}
	if err := logging.Configure(logCfg); err != nil {
		return writeErr(cmd, err)
	}
	if logCfg.File == "" {
		logging.SetOutput(cmd.ErrOrStderr())
	}
	return nil
}

func (app *App) store() store.Store {
	return store.Store{Dir: app.Dir}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
