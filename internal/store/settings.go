package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/omara/internal/auth"
)

const settingJWTSecret = "jwt_secret"

// GetJWTSecret returns the token signing secret kept in the settings table,
// generating and storing one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return settingOrCreate(ctx, db, settingJWTSecret, auth.GenerateSecret)
}

// GetSetting returns the value stored under key. The bool is false when the
// key is unset.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// settingOrCreate inserts a generated value unless key is already set, then
// reads back whichever value won. Two processes starting against the same
// file therefore agree on one value.
func settingOrCreate(ctx context.Context, db *sql.DB, key string, generate func() (string, error)) (string, error) {
	candidate, err := generate()
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	value, ok, err := GetSetting(ctx, db, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("setting %s missing after insert", key)
	}
	return value, nil
}
