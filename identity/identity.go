// ABOUTME: Identity Service contract and its local SQLite implementation
// ABOUTME: Sign-in, sign-out, account creation, password resets and auth-state subscriptions
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/db"
)

var (
	ErrInvalidCredentials = db.ErrInvalidSecret
	ErrEmailInUse         = db.ErrEmailTaken
	ErrUnknownEmail       = errors.New("no account with that email")
	ErrInvalidResetToken  = db.ErrResetNotFound
)

// ResetTokenTTL bounds how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// User is a signed-in identity.
type User struct {
	ID    string
	Email string
}

// Listener receives the signed-in user, or nil after sign-out.
type Listener func(*User)

// Service is the identity provider consumed by the session gate and the
// onboarding wizard.
type Service interface {
	SignIn(ctx context.Context, email, secret string) (*User, error)
	SignOut(ctx context.Context) error
	CreateAccount(ctx context.Context, email, secret string) (string, error)
	SendPasswordReset(ctx context.Context, email string) error
	OnAuthStateChange(fn Listener) (unsubscribe func())
	DeleteAccount(ctx context.Context, id string) error
	Current(ctx context.Context) (*User, error)
}

// Local keeps accounts and the current session in SQLite. Reset tokens are
// written to the log in place of an email delivery.
type Local struct {
	db     *sql.DB
	logger *log.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewLocal(database *sql.DB, logger *log.Logger) *Local {
	if logger == nil {
		logger = log.Default()
	}
	return &Local{
		db:        database,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

func toUser(a *db.Account) *User {
	if a == nil {
		return nil
	}
	return &User{ID: a.ID, Email: a.Email}
}

func (l *Local) SignIn(ctx context.Context, email, secret string) (*User, error) {
	account, err := db.VerifyAccount(l.db, email, secret)
	if err != nil {
		return nil, err
	}
	if err := db.SaveSession(l.db, account.ID); err != nil {
		return nil, err
	}

	user := toUser(account)
	l.logger.Info("signed in", "user", user.ID)
	l.notify(user)
	return user, nil
}

func (l *Local) SignOut(ctx context.Context) error {
	if err := db.ClearSession(l.db); err != nil {
		return err
	}
	l.logger.Info("signed out")
	l.notify(nil)
	return nil
}

// CreateAccount registers a new identity without signing it in.
func (l *Local) CreateAccount(ctx context.Context, email, secret string) (string, error) {
	account, err := db.CreateAccount(l.db, email, secret)
	if err != nil {
		return "", err
	}
	l.logger.Info("account created", "user", account.ID)
	return account.ID, nil
}

func (l *Local) SendPasswordReset(ctx context.Context, email string) error {
	account, err := db.FindAccountByEmail(l.db, email)
	if errors.Is(err, db.ErrAccountNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownEmail, email)
	}
	if err != nil {
		return err
	}

	reset, err := db.CreatePasswordReset(l.db, account.ID, ResetTokenTTL)
	if err != nil {
		return err
	}
	l.logger.Info("password reset issued", "email", account.Email, "token", reset.Token, "expires", reset.ExpiresAt)
	return nil
}

// ResetPassword consumes a reset token and sets a new secret.
func (l *Local) ResetPassword(ctx context.Context, token, newSecret string) error {
	return db.ConsumePasswordReset(l.db, token, newSecret)
}

// DeleteAccount removes an identity. Listeners are told about a sign-out
// when it was the current one.
func (l *Local) DeleteAccount(ctx context.Context, id string) error {
	current, err := db.CurrentSession(l.db)
	if err != nil {
		return err
	}
	if err := db.DeleteAccount(l.db, id); err != nil {
		return err
	}
	l.logger.Info("account deleted", "user", id)
	if current != nil && current.ID == id {
		l.notify(nil)
	}
	return nil
}

func (l *Local) Current(ctx context.Context) (*User, error) {
	account, err := db.CurrentSession(l.db)
	if err != nil {
		return nil, err
	}
	return toUser(account), nil
}

// OnAuthStateChange registers fn and calls it once with the current state
// before returning. The returned func unregisters it.
func (l *Local) OnAuthStateChange(fn Listener) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	current, err := l.Current(context.Background())
	if err != nil {
		l.logger.Warn("failed to read session", "err", err)
	}
	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

func (l *Local) notify(user *User) {
	l.mu.Lock()
	fns := make([]Listener, 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}
