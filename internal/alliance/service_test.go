package alliance

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"nations-server/internal/shared/database/databasetest"
	"nations-server/internal/shared/errors"
)

func newTestService(t *testing.T) (*Service, func(name string) int64) {
	t.Helper()
	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seed := func(name string) int64 { return databasetest.SeedNation(t, db, name, 1000) }
	return NewService(db, NewRepository(db, logger), logger), seed
}

func TestCreateAddsFounder(t *testing.T) {
	s, seed := newTestService(t)
	ctx := context.Background()
	founder := seed("Avalon")

	a, err := s.Create(ctx, founder, CreateRequest{Name: "  Northern Pact ", Description: "Mutual defence"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Name != "Northern Pact" || a.FounderID != founder {
		t.Errorf("unexpected alliance: %+v", a)
	}

	d, err := s.Details(ctx, a.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if d.MemberCount != 1 || !d.Members[0].IsFounder || d.FounderName != "Avalon" {
		t.Errorf("unexpected details: %+v", d)
	}

	_, err = s.Create(ctx, seed("Borduria"), CreateRequest{Name: "Northern Pact"})
	if errors.GetType(err) != errors.ErrorTypeConflict {
		t.Errorf("duplicate name: expected conflict, got %v", err)
	}

	_, err = s.Create(ctx, founder, CreateRequest{Name: "NP"})
	if errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("short name: expected validation error, got %v", err)
	}
}

func TestMembership(t *testing.T) {
	s, seed := newTestService(t)
	ctx := context.Background()
	founder := seed("Avalon")
	member := seed("Borduria")
	outsider := seed("Carpathia")

	a, err := s.Create(ctx, founder, CreateRequest{Name: "Northern Pact"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Join(ctx, member, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := s.Join(ctx, member, a.ID); errors.GetType(err) != errors.ErrorTypeConflict {
		t.Errorf("second join: expected conflict, got %v", err)
	}
	if _, err := s.Join(ctx, member, 9999); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Errorf("missing alliance: expected not found, got %v", err)
	}

	if err := s.Leave(ctx, founder, a.ID); errors.GetType(err) != errors.ErrorTypeForbidden {
		t.Errorf("founder leave: expected forbidden, got %v", err)
	}
	if err := s.Leave(ctx, outsider, a.ID); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("outsider leave: expected validation error, got %v", err)
	}

	mine, _ := s.ListForNation(ctx, member)
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("member alliances = %+v", mine)
	}

	if err := s.Leave(ctx, member, a.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	d, _ := s.Details(ctx, a.ID)
	if d.MemberCount != 1 {
		t.Errorf("member count after leave = %d, want 1", d.MemberCount)
	}
}

func TestDisband(t *testing.T) {
	s, seed := newTestService(t)
	ctx := context.Background()
	founder := seed("Avalon")
	member := seed("Borduria")

	a, err := s.Create(ctx, founder, CreateRequest{Name: "Northern Pact"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Join(ctx, member, a.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := s.Disband(ctx, member, a.ID); errors.GetType(err) != errors.ErrorTypeForbidden {
		t.Fatalf("member disband: expected forbidden, got %v", err)
	}
	if err := s.Disband(ctx, founder, a.ID); err != nil {
		t.Fatalf("disband: %v", err)
	}

	if _, err := s.Details(ctx, a.ID); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Errorf("details after disband: expected not found, got %v", err)
	}
	if mine, _ := s.ListForNation(ctx, member); len(mine) != 0 {
		t.Errorf("member still listed in %d alliances", len(mine))
	}
}
