package pool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gallery-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItems_ArrayAndWrapped(t *testing.T) {
	arr := `[{"id":"a","ownerRevision":"1","name":"Ay"},{"id":" ","name":"blank"},{"id":" b ","ownerRevision":"2"}]`
	items, err := DecodeItems([]byte(arr))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)

	wrapped := `{"items":[{"id":"c","ownerRevision":"1"}]}`
	items, err = DecodeItems([]byte(wrapped))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)
}

func TestDecodeItems_EmptyAndInvalid(t *testing.T) {
	items, err := DecodeItems([]byte("  \n"))
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = DecodeItems([]byte("[{"))
	assert.Error(t, err)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","ownerRevision":"1"}]`), 0o644))

	items, err := FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{ID: "a", OwnerRevision: "1"}}, items)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Fetch(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSource{Path: "unused"}.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type memPool struct {
	items   []model.Item
	saveErr error
}

func (m *memPool) LoadPool(context.Context) ([]model.Item, error) { return m.items, nil }

func (m *memPool) SavePool(_ context.Context, items []model.Item) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.items = append([]model.Item(nil), items...)
	return nil
}

type staticSource []model.Item

func (s staticSource) Fetch(context.Context) ([]model.Item, error) { return s, nil }

func TestSyncSource_CachesUpstream(t *testing.T) {
	mem := &memPool{}
	src := SyncSource{Upstream: staticSource{{ID: "a"}, {ID: "b"}}, Store: mem}

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	cached, err := StoreSource{Store: mem}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, items, cached)
}

func TestSyncSource_CacheFailure(t *testing.T) {
	boom := errors.New("disk full")
	src := SyncSource{Upstream: staticSource{{ID: "a"}}, Store: &memPool{saveErr: boom}}
	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
}
