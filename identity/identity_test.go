package identity

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/harperreed/rentdesk/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*Local, *sql.DB) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "identity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewLocal(database, nil), database
}

type recorder struct {
	mu     sync.Mutex
	events []*User
}

func (r *recorder) listen(u *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, u)
}

func (r *recorder) all() []*User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*User(nil), r.events...)
}

func TestCreateAccountDoesNotSignIn(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = svc.CreateAccount(ctx, "a@b.co", "other")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestSignInSignOutNotifiesListeners(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	rec := &recorder{}
	unsubscribe := svc.OnAuthStateChange(rec.listen)

	user, err := svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	require.NoError(t, svc.SignOut(ctx))

	unsubscribe()
	unsubscribe()
	_, err = svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	events := rec.all()
	require.Len(t, events, 3)
	assert.Nil(t, events[0])
	require.NotNil(t, events[1])
	assert.Equal(t, id, events[1].ID)
	assert.Nil(t, events[2])
}

func TestSignInRejectsBadSecret(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, "a@b.co", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubscriptionSeesExistingSession(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	rec := &recorder{}
	defer svc.OnAuthStateChange(rec.listen)()

	events := rec.all()
	require.Len(t, events, 1)
	require.NotNil(t, events[0])
	assert.Equal(t, "a@b.co", events[0].Email)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SendPasswordReset(ctx, "who@b.co"), ErrUnknownEmail)
	require.NoError(t, svc.SendPasswordReset(ctx, "a@b.co"))

	var token string
	require.NoError(t, database.QueryRow(`SELECT token FROM password_resets WHERE account_id = ?`, id).Scan(&token))

	require.NoError(t, svc.ResetPassword(ctx, token, "fresh-secret"))
	_, err = svc.SignIn(ctx, "a@b.co", "fresh-secret")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "again"), ErrInvalidResetToken)
}

func TestDeleteCurrentAccountSignsOut(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "a@b.co", "12345678")
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, "a@b.co", "12345678")
	require.NoError(t, err)

	rec := &recorder{}
	defer svc.OnAuthStateChange(rec.listen)()

	require.NoError(t, svc.DeleteAccount(ctx, id))

	events := rec.all()
	require.Len(t, events, 2)
	assert.Nil(t, events[1])

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestLocalImplementsService(t *testing.T) {
	var _ Service = (*Local)(nil)
}
