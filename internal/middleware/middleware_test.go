package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nations-server/internal/auth"
	"nations-server/internal/ledger"
	"nations-server/internal/nation"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/database/databasetest"
	"nations-server/internal/shared/errors"
	"nations-server/internal/shared/response"
)

type stubValidator map[string]*auth.Claims

func (s stubValidator) Validate(token string) (*auth.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.Unauthorized("invalid token")
}

var validator = stubValidator{
	"player": {UserID: 1, Username: "ada", Role: "user"},
	"admin":  {UserID: 2, Username: "root", Role: "admin"},
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator(t *testing.T) {
	a := NewAuthenticator(validator)

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{"missing token", a.Require(okHandler), "", http.StatusUnauthorized},
		{"bad token", a.Require(okHandler), "forged", http.StatusUnauthorized},
		{"valid token", a.Require(okHandler), "player", http.StatusNoContent},
		{"admin route as player", a.RequireAdmin(okHandler), "player", http.StatusForbidden},
		{"admin route as admin", a.RequireAdmin(okHandler), "admin", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(tt.handler, tt.token); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthenticatorStoresClaims(t *testing.T) {
	var seen *auth.Claims
	h := NewAuthenticator(validator).Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r)
	}))
	serve(h, "player")
	if seen == nil || seen.UserID != 1 {
		t.Errorf("claims in context = %+v", seen)
	}
}

type denyAfter struct{ remaining int }

func (d *denyAfter) Check(context.Context, int64, string) error {
	if d.remaining == 0 {
		return errors.RateLimited("limited", 90*time.Second)
	}
	d.remaining--
	return nil
}

func TestRateLimit(t *testing.T) {
	h := NewAuthenticator(validator).Require(RateLimit(&denyAfter{remaining: 1}, "attack")(okHandler))

	if rec := serve(h, "player"); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec := serve(h, "player")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "90" {
		t.Errorf("Retry-After = %q, want 90", rec.Header().Get("Retry-After"))
	}

	var body response.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RetryAfterSeconds != 90 || body.Error != string(errors.ErrorTypeRateLimited) {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id %q not echoed (%q)", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "gateway-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "gateway-123" || rec.Header().Get(RequestIDHeader) != "gateway-123" {
		t.Errorf("caller id not kept: %q", seen)
	}
}

type noArmy struct{}

func (noArmy) SeedGarrison(context.Context, int64, *database.Tx) error { return nil }

func (noArmy) MaintenanceCost(context.Context, int64, *database.Tx) (int64, error) { return 0, nil }

func TestNationAccess(t *testing.T) {
	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledgerService := ledger.NewService(db, ledger.NewRepository(db, logger), logger)
	nations := nation.NewService(db, nation.NewRepository(db, logger), noArmy{}, ledgerService,
		config.GameConfig{InitialResources: 1000}, logger)

	userID := databasetest.SeedUser(t, db, "ada")
	created, err := nations.Create(context.Background(), userID, nation.CreateRequest{Name: "Avalon", Government: "monarchy", Ideology: "conservative"})
	if err != nil {
		t.Fatalf("create nation: %v", err)
	}

	a := NewAuthenticator(stubValidator{
		"founder":  {UserID: userID},
		"stranger": {UserID: userID + 100},
	})

	var seen *nation.Nation
	h := a.Require(NewNationAccessMiddleware(nations).Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetNationFromContext(r)
	})))

	if rec := serve(h, "founder"); rec.Code != http.StatusOK || seen == nil || seen.ID != created.ID {
		t.Errorf("founder: status %d nation %+v", rec.Code, seen)
	}

	rec := serve(h, "stranger")
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger status = %d, want 404", rec.Code)
	}
	var body response.ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Message != "You don't have a nation yet. Create one first." {
		t.Errorf("message = %q", body.Message)
	}
}
