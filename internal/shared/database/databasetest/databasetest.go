// Package databasetest opens throwaway SQLite stores with the production schema.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
)

// New returns a migrated SQLite database that is closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:        "sqlite",
		SQLitePath:    filepath.Join(t.TempDir(), "nations.db"),
		QueryTimeout:  5 * time.Second,
		TxMaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}

var seedChatID int64 = 1_000_000

// SeedUser inserts a plain user account and returns its id.
func SeedUser(t testing.TB, db *database.DB, username string) int64 {
	t.Helper()

	seedChatID++
	var userID int64
	if err := db.QueryRowContext(context.Background(),
		"INSERT INTO users (chat_id, username, role, registered_at, last_active_at) VALUES (?, ?, 'user', 0, 0) RETURNING id",
		seedChatID, username,
	).Scan(&userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return userID
}

// SeedNation inserts an owner and a bare nation with the given resources and returns the nation id.
func SeedNation(t testing.TB, db *database.DB, name string, resources int64) int64 {
	t.Helper()

	userID := SeedUser(t, db, name)

	var nationID int64
	if err := db.QueryRowContext(context.Background(), `
		INSERT INTO nations (user_id, name, government, ideology, population, gdp, military_power, resources, created_at, updated_at)
		VALUES (?, ?, 'democracy', 'liberal', 1000000, 1000000000, 10, ?, 0, 0)
		RETURNING id`,
		userID, name, resources,
	).Scan(&nationID); err != nil {
		t.Fatalf("seed nation: %v", err)
	}
	return nationID
}
