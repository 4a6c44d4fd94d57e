// Package storage handles all database operations for the buildnumber service.
package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute all DDL statements
	ddlStatements := []string{
		// accounts table: one row per normalized email address
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email_address TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// apps table: bundle identifier is unique per account, not globally
		`CREATE TABLE IF NOT EXISTS apps (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			bundle_identifier TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (account_id) REFERENCES accounts(id),
			UNIQUE (account_id, bundle_identifier)
		)`,

		// tokens table: the value column is the credential presented as the
		// basic-auth username, looked up by exact match
		`CREATE TABLE IF NOT EXISTS tokens (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			app_id TEXT NOT NULL,
			value TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (account_id) REFERENCES accounts(id),
			FOREIGN KEY (app_id) REFERENCES apps(id)
		)`,

		// builds table: the UNIQUE (app_id, build_number) constraint is the
		// correctness guard for concurrent build-number allocation
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			app_id TEXT NOT NULL,
			build_number INTEGER NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (app_id) REFERENCES apps(id),
			UNIQUE (app_id, build_number)
		)`,

		// Index for listing apps of an account
		`CREATE INDEX IF NOT EXISTS idx_apps_account ON apps(account_id)`,
	}

	// Execute each DDL statement
	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// MigrateSchema checks current schema version and applies migrations.
// For now there is only v1; future versions will add migration logic.
func MigrateSchema(db *sql.DB) error {
	return InitSchema(db)
}
