// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for accounts, sessions and documents
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	secret_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);

CREATE TABLE IF NOT EXISTS sessions (
	slot TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	signed_in_at DATETIME NOT NULL,
	FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS password_resets (
	token TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	used_at DATETIME,
	FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_password_resets_account ON password_resets(account_id);

CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	parent TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
