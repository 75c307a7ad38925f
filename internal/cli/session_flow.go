package cli

import (
	"context"
	"strings"

	"gallery-cli/internal/model"
	"gallery-cli/internal/pool"
	"gallery-cli/internal/session"
	"gallery-cli/internal/store"
)

type entryView struct {
	Index int             `json:"index" yaml:"index"`
	Kind  model.EntryKind `json:"kind" yaml:"kind"`
	ID    string          `json:"id,omitempty" yaml:"id,omitempty"`
	Label string          `json:"label" yaml:"label"`
}

type collectionView struct {
	Collection       model.Collection `json:"collection" yaml:"collection"`
	Entries          []entryView      `json:"entries" yaml:"entries"`
	HasStagedContent bool             `json:"hasStagedContent" yaml:"hasStagedContent"`
}

func viewOf(sess *session.Session, c model.Collection) collectionView {
	staged := sess.Staged()
	entries := make([]entryView, 0, len(staged))
	for i, e := range staged {
		entries = append(entries, entryView{Index: i, Kind: e.Kind, ID: e.ID, Label: e.Label()})
	}
	return collectionView{Collection: c, Entries: entries, HasStagedContent: sess.HasStagedContent()}
}

// openSession seeds an editing session from the stored collection and
// reconciles it against the cached pool.
func openSession(ctx context.Context, s store.Store, id string) (*session.Session, model.Collection, session.Result, error) {
	stored, err := s.LoadCollection(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, model.Collection{}, session.Result{}, err
	}
	if _, ok, err := s.PoolImportedAt(ctx); err != nil {
		return nil, model.Collection{}, session.Result{}, err
	} else if !ok {
		return nil, model.Collection{}, session.Result{}, errNoPool
	}
	items, err := pool.StoreSource{Store: s}.Fetch(ctx)
	if err != nil {
		return nil, model.Collection{}, session.Result{}, err
	}
	sess := session.New(session.Options{Seed: &stored})
	res := sess.ApplyPool(sess.BeginRefresh(), items)
	return sess, stored, res, nil
}

// mutateCollection runs fn against a freshly reconciled session and saves the
// result. Pruned ids are recorded only once the save succeeded.
func mutateCollection(ctx context.Context, s store.Store, id string, fn func(*session.Session) error) (collectionView, session.Result, error) {
	sess, _, res, err := openSession(ctx, s, id)
	if err != nil {
		return collectionView{}, session.Result{}, err
	}
	defer sess.Close()

	if err := fn(sess); err != nil {
		return collectionView{}, res, err
	}
	saved, err := sess.Save(ctx, s)
	if err != nil {
		return collectionView{}, res, err
	}
	if err := s.RecordSave(ctx, saved, res.Removed); err != nil {
		return collectionView{}, res, err
	}
	return viewOf(sess, saved), res, nil
}
