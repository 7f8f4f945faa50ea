// ABOUTME: Account, session and password-reset database operations
// ABOUTME: Backs the local Identity Service with bcrypt-hashed secrets
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrInvalidSecret   = errors.New("invalid email or password")
	ErrResetNotFound   = errors.New("password reset not found or expired")
)

// currentSlot is the single signed-in session kept per database.
const currentSlot = "current"

// Account is a stored identity.
type Account struct {
	ID         string
	Email      string
	SecretHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PasswordReset is a one-time reset token issued for an account.
type PasswordReset struct {
	Token     string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount stores a new account with a bcrypt hash of secret.
func CreateAccount(db *sql.DB, email, secret string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash secret: %w", err)
	}

	now := time.Now().UTC()
	account := &Account{
		ID:         uuid.New().String(),
		Email:      normalizeEmail(email),
		SecretHash: string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := FindAccountByEmail(db, account.Email)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	_, err = db.Exec(`
		INSERT INTO accounts (id, email, secret_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, account.ID, account.Email, account.SecretHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// GetAccount loads an account by id.
func GetAccount(db *sql.DB, id string) (*Account, error) {
	return scanAccount(db.QueryRow(`
		SELECT id, email, secret_hash, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id))
}

// FindAccountByEmail loads an account by normalized email.
func FindAccountByEmail(db *sql.DB, email string) (*Account, error) {
	return scanAccount(db.QueryRow(`
		SELECT id, email, secret_hash, created_at, updated_at
		FROM accounts WHERE email = ?
	`, normalizeEmail(email)))
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Email, &a.SecretHash, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &a, nil
}

// VerifyAccount checks secret against the stored hash.
func VerifyAccount(db *sql.DB, email, secret string) (*Account, error) {
	account, err := FindAccountByEmail(db, email)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrInvalidSecret
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidSecret
	}
	return account, nil
}

// DeleteAccount removes an account and, through cascades, its session and resets.
func DeleteAccount(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM password_resets WHERE account_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear password resets: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}

	return tx.Commit()
}

// SaveSession records accountID as the signed-in identity.
func SaveSession(db *sql.DB, accountID string) error {
	_, err := db.Exec(`
		INSERT INTO sessions (slot, account_id, signed_in_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			account_id = excluded.account_id,
			signed_in_at = excluded.signed_in_at
	`, currentSlot, accountID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// CurrentSession returns the signed-in account, or nil when signed out.
func CurrentSession(db *sql.DB) (*Account, error) {
	var accountID string
	err := db.QueryRow(`SELECT account_id FROM sessions WHERE slot = ?`, currentSlot).Scan(&accountID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	account, err := GetAccount(db, accountID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, nil
	}
	return account, err
}

// ClearSession signs the current identity out.
func ClearSession(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM sessions WHERE slot = ?`, currentSlot); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CreatePasswordReset issues a reset token valid for ttl.
func CreatePasswordReset(db *sql.DB, accountID string, ttl time.Duration) (*PasswordReset, error) {
	now := time.Now().UTC()
	reset := &PasswordReset{
		Token:     uuid.New().String(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := db.Exec(`
		INSERT INTO password_resets (token, account_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, reset.Token, reset.AccountID, reset.CreatedAt, reset.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create password reset: %w", err)
	}
	return reset, nil
}

// ConsumePasswordReset sets a new secret if token is unused and unexpired.
func ConsumePasswordReset(db *sql.DB, token, newSecret string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var accountID string
	var expiresAt time.Time
	var usedAt sql.NullTime
	err = tx.QueryRow(`
		SELECT account_id, expires_at, used_at FROM password_resets WHERE token = ?
	`, token).Scan(&accountID, &expiresAt, &usedAt)
	if err == sql.ErrNoRows {
		return ErrResetNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load password reset: %w", err)
	}
	if usedAt.Valid || time.Now().UTC().After(expiresAt) {
		return ErrResetNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash secret: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(`UPDATE accounts SET secret_hash = ?, updated_at = ? WHERE id = ?`, string(hash), now, accountID); err != nil {
		return fmt.Errorf("failed to update secret: %w", err)
	}
	if _, err := tx.Exec(`UPDATE password_resets SET used_at = ? WHERE token = ?`, now, token); err != nil {
		return fmt.Errorf("failed to mark reset used: %w", err)
	}

	return tx.Commit()
}
