package database_test

import (
	"context"
	stderrors "errors"
	"testing"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/database/databasetest"
	"nations-server/internal/shared/errors"
)

func insertUser(ctx context.Context, ex database.Executor, chatID int64) error {
	_, err := ex.ExecContext(ctx,
		"INSERT INTO users (chat_id, username, role, registered_at, last_active_at) VALUES (?, ?, 'user', 0, 0)",
		chatID, "tester")
	return err
}

func countUsers(t *testing.T, db *database.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	if err := db.WithTx(ctx, func(tx *database.Tx) error {
		return insertUser(ctx, tx, 1)
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.Validation("abort")
	err := db.WithTx(ctx, func(tx *database.Tx) error {
		if err := insertUser(ctx, tx, 2); err != nil {
			return err
		}
		return boom
	})
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected fn error to pass through, got %v", err)
	}

	if got := countUsers(t, db); got != 1 {
		t.Errorf("expected 1 committed user, got %d", got)
	}
}

func TestUniqueViolationBecomesConflict(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	if err := insertUser(ctx, db, 7); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := insertUser(ctx, db, 7)
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if errors.GetType(database.WrapError("insert user", err)) != errors.ErrorTypeConflict {
		t.Error("expected conflict classification")
	}
	if errors.GetType(database.WrapError("select", stderrors.New("io"))) != errors.ErrorTypeStore {
		t.Error("expected store classification")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := databasetest.New(t)

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("second migration run: %v", err)
	}

	var applied int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 applied migration, got %d", applied)
	}
}

func TestResourcesCannotGoNegative(t *testing.T) {
	db := databasetest.New(t)
	ctx := context.Background()

	if err := insertUser(ctx, db, 9); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO nations
		(user_id, name, government, ideology, population, gdp, military_power, resources, created_at, updated_at)
		VALUES (1, 'Broke', 'democracy', 'liberal', 1, 1, 1, -1, 0, 0)`)
	if err == nil {
		t.Fatal("expected check constraint to reject negative resources")
	}
}
