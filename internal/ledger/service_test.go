package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/database/databasetest"
)

func newTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()
	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, NewRepository(db, logger), logger), db
}

func record(t *testing.T, s *Service, db *database.DB, nationID int64, amount, balance int64, at time.Time) *Entry {
	t.Helper()
	var entry *Entry
	err := db.WithTx(context.Background(), func(tx *database.Tx) error {
		var err error
		entry, err = s.Record(context.Background(), tx, nationID, KindBuildUnits, amount, balance, "test", at)
		return err
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return entry
}

func TestRecordChainsEntries(t *testing.T) {
	s, db := newTestService(t)
	nationID := databasetest.SeedNation(t, db, "Avalon", 1000)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := record(t, s, db, nationID, -100, 900, at)
	second := record(t, s, db, nationID, -50, 850, at.Add(time.Minute))

	if first.PrevHash != GenesisHash {
		t.Errorf("first entry prev hash = %s, want genesis", first.PrevHash)
	}
	if second.PrevHash != first.Hash {
		t.Error("second entry is not chained to the first")
	}

	recent, err := s.Recent(context.Background(), nationID, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", recent)
	}

	result, err := s.Verify(context.Background(), nationID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Valid || result.Entries != 2 {
		t.Errorf("expected valid chain of 2, got %+v", result)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	s, db := newTestService(t)
	nationID := databasetest.SeedNation(t, db, "Borduria", 1000)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	record(t, s, db, nationID, -100, 900, at)
	tampered := record(t, s, db, nationID, -50, 850, at)
	record(t, s, db, nationID, 25, 875, at)

	if _, err := db.ExecContext(context.Background(), "UPDATE ledger_entries SET amount = 5000 WHERE id = ?", tampered.ID); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	result, err := s.Verify(context.Background(), nationID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.BrokenAt == nil || *result.BrokenAt != tampered.ID {
		t.Errorf("broken at = %v, want %d", result.BrokenAt, tampered.ID)
	}
}

func TestChainsAreIndependentPerNation(t *testing.T) {
	s, db := newTestService(t)
	a := databasetest.SeedNation(t, db, "Avalon", 1000)
	b := databasetest.SeedNation(t, db, "Borduria", 1000)
	at := time.Now()

	record(t, s, db, a, -10, 990, at)
	first := record(t, s, db, b, -10, 990, at)

	if first.PrevHash != GenesisHash {
		t.Error("each nation's chain must start at genesis")
	}
}

func TestRecordRequiresTransaction(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Record(context.Background(), nil, 1, KindBuildUnits, 1, 1, "", time.Now()); err == nil {
		t.Fatal("expected error without transaction")
	}
}
