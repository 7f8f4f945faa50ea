// ABOUTME: Tests for account, session and password-reset storage
// ABOUTME: Verifies bcrypt verification, duplicate emails and reset expiry
package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerifyAccount(t *testing.T) {
	db := setupTestDB(t)

	account, err := CreateAccount(db, " Owner@Example.com ", "12345678")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", account.Email)
	assert.NotEqual(t, "12345678", account.SecretHash)

	verified, err := VerifyAccount(db, "owner@example.com", "12345678")
	require.NoError(t, err)
	assert.Equal(t, account.ID, verified.ID)

	_, err = VerifyAccount(db, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidSecret)

	_, err = VerifyAccount(db, "nobody@example.com", "12345678")
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateAccount(db, "a@b.co", "1234567")
	require.NoError(t, err)

	_, err = CreateAccount(db, "A@B.CO", "7654321")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)

	current, err := CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current)

	account, err := CreateAccount(db, "a@b.co", "1234567")
	require.NoError(t, err)
	require.NoError(t, SaveSession(db, account.ID))

	current, err = CurrentSession(db)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, account.ID, current.ID)

	require.NoError(t, ClearSession(db))
	current, err = CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestDeleteAccount(t *testing.T) {
	db := setupTestDB(t)

	account, err := CreateAccount(db, "a@b.co", "1234567")
	require.NoError(t, err)
	require.NoError(t, SaveSession(db, account.ID))

	require.NoError(t, DeleteAccount(db, account.ID))

	_, err = GetAccount(db, account.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	current, err := CurrentSession(db)
	require.NoError(t, err)
	assert.Nil(t, current)

	assert.ErrorIs(t, DeleteAccount(db, account.ID), ErrAccountNotFound)
}

func TestPasswordReset(t *testing.T) {
	db := setupTestDB(t)

	account, err := CreateAccount(db, "a@b.co", "1234567")
	require.NoError(t, err)

	reset, err := CreatePasswordReset(db, account.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, ConsumePasswordReset(db, reset.Token, "new-secret"))

	_, err = VerifyAccount(db, "a@b.co", "new-secret")
	require.NoError(t, err)

	// Tokens are single use
	assert.ErrorIs(t, ConsumePasswordReset(db, reset.Token, "again"), ErrResetNotFound)
}

func TestPasswordResetExpired(t *testing.T) {
	db := setupTestDB(t)

	account, err := CreateAccount(db, "a@b.co", "1234567")
	require.NoError(t, err)

	reset, err := CreatePasswordReset(db, account.ID, -time.Minute)
	require.NoError(t, err)

	assert.ErrorIs(t, ConsumePasswordReset(db, reset.Token, "x"), ErrResetNotFound)
	assert.ErrorIs(t, ConsumePasswordReset(db, "unknown", "x"), ErrResetNotFound)
}
