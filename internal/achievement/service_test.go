package achievement

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"nations-server/internal/shared/database"
	"nations-server/internal/shared/database/databasetest"
)

func codes(awards []Award) map[string]bool {
	out := make(map[string]bool, len(awards))
	for _, a := range awards {
		out[a.Code] = true
	}
	return out
}

func exec(t *testing.T, db *database.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestEvaluateUnlocksOnce(t *testing.T) {
	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewService(db, NewRepository(db, logger), logger)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	id := databasetest.SeedNation(t, db, "Avalon", 1000)

	first, err := s.Evaluate(ctx, id)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := codes(first); len(got) != 1 || !got["newcomer"] {
		t.Errorf("first evaluation = %v, want only newcomer", got)
	}

	exec(t, db, "INSERT INTO military_units (nation_id, category, quantity, tech_level) VALUES (?, 'infantry', 1000, 1)", id)
	exec(t, db, "INSERT INTO alliances (name, description, founder_id, created_at) VALUES ('Pact', '', ?, 0)", id)
	exec(t, db, "INSERT INTO alliance_members (alliance_id, nation_id, joined_at) VALUES (1, ?, 0)", id)

	second, err := s.Evaluate(ctx, id)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got := codes(second)
	for _, want := range []string{"military_beginner", "military_enthusiast", "alliance_founder", "diplomat"} {
		if !got[want] {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	if got["newcomer"] || got["popular_alliance"] {
		t.Errorf("unexpected awards %v", got)
	}

	third, err := s.Evaluate(ctx, id)
	if err != nil || len(third) != 0 {
		t.Errorf("repeat evaluation = %v (%v), want nothing new", third, err)
	}

	all, err := s.List(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("listed %d achievements, want 5", len(all))
	}
}

func TestUnlockedRules(t *testing.T) {
	s := Stats{
		Units:                 map[string]int64{"tank": 100, "ship": 49},
		TotalUnits:            149,
		GDP:                   10_000_000_000,
		CompletedDevelopments: map[string]int{"trade": 5},
		TotalCompleted:        5,
		BattlesWon:            10,
		BattlesDefended:       9,
		LargestAlliance:       5,
	}

	got := map[string]bool{}
	for _, d := range Unlocked(s) {
		got[d.Code] = true
	}

	for _, want := range []string{"tank_commander", "economic_beginner", "economic_growth", "trade_magnate",
		"developer", "first_blood", "warmonger", "popular_alliance", "newcomer"} {
		if !got[want] {
			t.Errorf("expected %s to unlock", want)
		}
	}
	for _, not := range []string{"naval_power", "economic_power", "survivor", "conqueror", "research_pioneer"} {
		if got[not] {
			t.Errorf("did not expect %s to unlock", not)
		}
	}
}

func TestCatalogCodesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Catalog() {
		if seen[d.Code] {
			t.Errorf("duplicate code %s", d.Code)
		}
		seen[d.Code] = true
	}
	if len(seen) != len(byCode) {
		t.Errorf("catalog has %d codes, index has %d", len(seen), len(byCode))
	}
}
