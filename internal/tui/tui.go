package tui

import (
	"context"
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/model"
	"gallery-cli/internal/pool"
	"gallery-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Collection model.Collection
	Store      Store
	Source     pool.Source

	// WatchPath, when set, triggers a refresh whenever the file changes.
	WatchPath string
	Debounce  time.Duration
}

// Run opens an interactive editor for opts.Collection and blocks until the
// user quits.
func Run(opts Options) error {
	applyColorProfile()

	c := opts.Collection
	sess := session.New(session.Options{Seed: &c})
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes <-chan struct{}
	if opts.WatchPath != "" {
		changes = watchChanges(ctx, opts.WatchPath, opts.Debounce)
	}

	m := newEditorModel(sess, opts.Store, opts.Source, changes)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// watchChanges coalesces pool file changes into a one-slot channel. The
// channel is closed once ctx is done, releasing any pending waitForChange.
func watchChanges(ctx context.Context, path string, debounce time.Duration) <-chan struct{} {
	changes := make(chan struct{}, 1)
	log := logging.NewLogger("tui").WithField("watch", path)
	go func() {
		defer close(changes)
		err := pool.Watch(ctx, path, debounce, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		if err != nil {
			log.WithError(err).Warn("watch stopped")
		}
	}()
	return changes
}
