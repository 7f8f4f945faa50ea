package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/db"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (s *stateLog) record(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func (s *stateLog) last() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[len(s.states)-1]
}

func (s *stateLog) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

type fixture struct {
	svc   *identity.Local
	store docstore.Store
	log   *stateLog
	gate  *Gate
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	f := &fixture{
		svc:   identity.NewLocal(database, nil),
		store: charm.NewDocStore(charm.NewTestClient(t)),
		log:   &stateLog{},
	}
	f.gate = NewGate(f.svc, NewProfileLoader(f.store, nil), f.log.record, nil)
	return f
}

func TestGateRoutesSignedOutToSignIn(t *testing.T) {
	f := setup(t)
	f.gate.Start(context.Background())
	defer f.gate.Close()

	assert.Equal(t, RouteSignIn, f.gate.State().Route)
	assert.Equal(t, 1, f.log.len())
}

func TestGateLoadsProfileOnSignIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id, err := f.svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, docstore.ProfilePath(id), models.BusinessProfile{BusinessName: "Acme"}))

	f.gate.Start(ctx)
	defer f.gate.Close()

	_, err = f.svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	st := f.log.last()
	assert.Equal(t, RouteDashboard, st.Route)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "Acme", st.Profile.BusinessName)
	assert.Equal(t, id, st.Profile.TenantID)
	assert.NoError(t, st.Err)

	require.NoError(t, f.svc.SignOut(ctx))
	assert.Equal(t, RouteSignIn, f.gate.State().Route)
}

func TestGateMissingProfileIsNotAnError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	f.gate.Start(ctx)
	defer f.gate.Close()
	_, err = f.svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	st := f.gate.State()
	assert.Equal(t, RouteDashboard, st.Route)
	assert.Nil(t, st.Profile)
	assert.NoError(t, st.Err)
}

func TestGateIgnoresCallbacksAfterClose(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	f.gate.Start(ctx)
	f.gate.Start(ctx)
	require.Equal(t, 1, f.log.len())

	f.gate.Close()
	_, err = f.svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	assert.Equal(t, 1, f.log.len())
	assert.Equal(t, RouteSignIn, f.gate.State().Route)
}

type failingStore struct{ docstore.Store }

func (failingStore) Get(ctx context.Context, path string) (*docstore.Document, error) {
	return nil, errors.New("offline")
}

func TestProfileLoaderRemoteError(t *testing.T) {
	loader := NewProfileLoader(failingStore{}, nil)

	_, err := loader.Load(context.Background(), "t1")
	var rerr *models.RemoteError
	assert.True(t, errors.As(err, &rerr))
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "signin", RouteSignIn.String())
	assert.Equal(t, "dashboard", RouteDashboard.String())
	assert.Equal(t, "none", RouteNone.String())
}
