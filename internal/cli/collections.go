package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gallery-cli/internal/model"
	"gallery-cli/internal/session"
	"gallery-cli/internal/store"

	"github.com/spf13/cobra"
)

func newCollectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "c"},
		Short:   "Create, inspect and arrange collections",
	}
	cmd.AddCommand(newCollectionsListCmd(app))
	cmd.AddCommand(newCollectionsShowCmd(app))
	cmd.AddCommand(newCollectionsCreateCmd(app))
	cmd.AddCommand(newCollectionsStageCmd(app))
	cmd.AddCommand(newCollectionsUnstageCmd(app))
	cmd.AddCommand(newCollectionsMoveCmd(app))
	cmd.AddCommand(newCollectionsSpaceCmd(app))
	cmd.AddCommand(newCollectionsUnspaceCmd(app))
	cmd.AddCommand(newCollectionsColumnsCmd(app))
	return cmd
}

func newCollectionsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := app.store().ListCollections(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": cs})
		},
	}
}

func newCollectionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection-id>",
		Short: "Show a collection reconciled against the cached pool",
		Long:  "Show a collection as it would be saved now: items missing from the pool are listed under meta.pruned but not removed from storage.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, stored, res, err := openSession(cmd.Context(), app.store(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			draft := sess.Draft()
			draft.UpdatedAt = stored.UpdatedAt
			return writeOut(cmd, app, map[string]any{
				"data": viewOf(sess, draft),
				"meta": map[string]any{"pruned": nonNil(res.Removed)},
			})
		},
	}
}

func newCollectionsCreateCmd(app *App) *cobra.Command {
	var id string
	var name string
	var columns int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.store()
			ctx := cmd.Context()

			id = strings.TrimSpace(id)
			if id == "" {
				newID, err := store.NewCollectionID()
				if err != nil {
					return writeErr(cmd, err)
				}
				id = newID
			} else {
				_, err := s.LoadCollection(ctx, id)
				if err == nil {
					return writeErr(cmd, alreadyExistsError{kind: "collection", id: id})
				}
				var nf store.NotFoundError
				if !errors.As(err, &nf) {
					return writeErr(cmd, err)
				}
			}

			if !cmd.Flags().Changed("columns") {
				columns = app.cfg.DefaultColumns
			}
			if !model.IsValidColumns(columns) {
				return writeErr(cmd, model.InvalidColumnsError{Value: columns})
			}

			now := time.Now().UTC()
			c := model.Collection{
				ID:             id,
				Name:           strings.TrimSpace(name),
				OrderedItemIDs: []string{},
				Whitespace:     []model.WhitespaceRun{},
				Layout:         model.Layout{Columns: columns},
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.SaveCollection(ctx, c); err != nil {
				return writeErr(cmd, err)
			}
			if err := s.RecordSave(ctx, c, nil); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": c})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Collection id (default: generated)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().IntVar(&columns, "columns", model.DefaultColumns, fmt.Sprintf("Layout columns (%d..%d)", model.MinColumns, model.MaxColumns))
	return cmd
}

func newCollectionsStageCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stage <collection-id> <item-id>...",
		Short: "Append pool items to the end of a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var staged int
			var ignored []string
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				sidebar := sess.Sidebar()
				for _, id := range args[1:] {
					id = strings.TrimSpace(id)
					if _, ok := sidebar[id]; !ok {
						ignored = append(ignored, id)
					}
				}
				staged = sess.Stage(args[1:]...)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{"staged": staged, "notInPool": nonNil(ignored), "pruned": nonNil(res.Removed)},
			})
		},
	}
}

func newCollectionsUnstageCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unstage <collection-id> <item-id>...",
		Short: "Remove items from a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				removed = sess.Unstage(args[1:]...)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{"unstaged": removed, "pruned": nonNil(res.Removed)},
			})
		},
	}
}

func newCollectionsMoveCmd(app *App) *cobra.Command {
	var from int
	var to int

	cmd := &cobra.Command{
		Use:   "move <collection-id> --from I --to J",
		Short: "Move the entry at index I to index J (indices from `collections show`)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				n := len(sess.Staged())
				if from < 0 || from >= n {
					return indexError{what: "--from", index: from, len: n}
				}
				if to < 0 || to >= n {
					return indexError{what: "--to", index: to, len: n}
				}
				sess.Reorder(from, to)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": v, "meta": map[string]any{"pruned": nonNil(res.Removed)}})
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "Current index")
	cmd.Flags().IntVar(&to, "to", 0, "Target index")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCollectionsSpaceCmd(app *App) *cobra.Command {
	var after int
	var count int

	cmd := &cobra.Command{
		Use:   "space <collection-id> --after I",
		Short: "Insert empty grid cells after index I (-1 = at the front)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return writeErr(cmd, fmt.Errorf("--count must be >= 1 (got %d)", count))
			}
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				for i := 0; i < count; i++ {
					if !sess.InsertPlaceholder(after) {
						return indexError{what: "--after", index: after, len: len(sess.Staged())}
					}
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": v, "meta": map[string]any{"pruned": nonNil(res.Removed)}})
		},
	}
	cmd.Flags().IntVar(&after, "after", -1, "Insert after this index (-1 = front)")
	cmd.Flags().IntVar(&count, "count", 1, "Number of empty cells to insert")
	return cmd
}

func newCollectionsUnspaceCmd(app *App) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "unspace <collection-id> --index I",
		Short: "Remove the empty grid cell at index I",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				if !sess.RemovePlaceholder(index) {
					n := len(sess.Staged())
					if index < 0 || index >= n {
						return indexError{what: "--index", index: index, len: n}
					}
					return fmt.Errorf("entry %d is not an empty cell", index)
				}
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": v, "meta": map[string]any{"pruned": nonNil(res.Removed)}})
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Index of the empty cell")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newCollectionsColumnsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <collection-id> <n>",
		Short: fmt.Sprintf("Set layout columns (%d..%d)", model.MinColumns, model.MaxColumns),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid columns %q: %w", args[1], err))
			}
			v, res, err := mutateCollection(cmd.Context(), app.store(), args[0], func(sess *session.Session) error {
				_, err := sess.SetColumns(n)
				return err
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": v, "meta": map[string]any{"pruned": nonNil(res.Removed)}})
		},
	}
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
