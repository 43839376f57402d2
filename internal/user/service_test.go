package user

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"nations-server/internal/shared/database/databasetest"
	"nations-server/internal/shared/errors"
)

func newTestService(t *testing.T, admins ...int64) *Service {
	t.Helper()
	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, NewRepository(db, logger), admins, logger)
}

func TestGetOrCreateRegistersOnce(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, 1001, "alice")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Role != RoleUser {
		t.Errorf("expected user role, got %s", first.Role)
	}

	later := first.RegisteredAt.Add(time.Hour)
	s.now = func() time.Time { return later }

	second, err := s.GetOrCreate(ctx, 1001, "alice_renamed")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same user, got ids %d and %d", first.ID, second.ID)
	}
	if second.Username != "alice_renamed" {
		t.Errorf("expected username refresh, got %q", second.Username)
	}

	stored, err := s.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !stored.LastActiveAt.Equal(time.UnixMilli(later.UnixMilli()).UTC()) {
		t.Errorf("last active = %v, want %v", stored.LastActiveAt, later)
	}
}

func TestGetOrCreateAdmin(t *testing.T) {
	s := newTestService(t, 42)

	u, err := s.GetOrCreate(context.Background(), 42, "root")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if u.Role != RoleAdmin {
		t.Errorf("expected admin role for configured chat id, got %s", u.Role)
	}
}

func TestGetOrCreateRequiresChatID(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetOrCreate(context.Background(), 0, "nobody")
	if errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetByID(context.Background(), 999)
	if errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
