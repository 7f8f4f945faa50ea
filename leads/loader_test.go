package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{ docstore.Store }

func (brokenStore) List(ctx context.Context, collection string) ([]*docstore.Document, error) {
	return nil, errors.New("timeout")
}

func TestLoadAndCache(t *testing.T) {
	store := charm.NewDocStore(charm.NewTestClient(t))
	ctx := context.Background()
	col := docstore.LeadsCollection("t1", "l1")

	_, err := store.Add(ctx, col, models.ContactAttempt{ClientName: "Wanjiru", ContactType: models.ContactTypeCall})
	require.NoError(t, err)
	_, err = store.Add(ctx, col, models.ContactAttempt{ClientEmail: "otieno@example.com", ContactType: models.ContactTypeEmail})
	require.NoError(t, err)

	loader := New(store, nil)

	_, ok := loader.Cached("l1")
	assert.False(t, ok)

	leads, err := loader.Load(ctx, "t1", "l1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, models.ContactTypeEmail, leads[0].ContactType)
	assert.Equal(t, "l1", leads[0].ListingID)
	assert.False(t, leads[0].Timestamp.IsZero())

	cached, ok := loader.Cached("l1")
	require.True(t, ok)
	assert.Equal(t, leads, cached)
}

func TestReloadOverwritesCache(t *testing.T) {
	store := charm.NewDocStore(charm.NewTestClient(t))
	ctx := context.Background()
	col := docstore.LeadsCollection("t1", "l1")
	loader := New(store, nil)

	leads, err := loader.Load(ctx, "t1", "l1")
	require.NoError(t, err)
	assert.Empty(t, leads)

	_, err = store.Add(ctx, col, models.ContactAttempt{ContactType: models.ContactTypeCall})
	require.NoError(t, err)

	leads, err = loader.Load(ctx, "t1", "l1")
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	cached, _ := loader.Cached("l1")
	assert.Len(t, cached, 1)
}

func TestLoadFailureKeepsCache(t *testing.T) {
	store := charm.NewDocStore(charm.NewTestClient(t))
	ctx := context.Background()
	_, err := store.Add(ctx, docstore.LeadsCollection("t1", "l1"), models.ContactAttempt{ContactType: models.ContactTypeCall})
	require.NoError(t, err)

	loader := New(store, nil)
	_, err = loader.Load(ctx, "t1", "l1")
	require.NoError(t, err)

	loader.store = brokenStore{store}
	_, err = loader.Load(ctx, "t1", "l1")
	var rerr *models.RemoteError
	require.True(t, errors.As(err, &rerr))

	cached, ok := loader.Cached("l1")
	require.True(t, ok)
	assert.Len(t, cached, 1)
}
