package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nations-server/internal/ratelimit"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/database/databasetest"
)

const (
	testJWTSecret = "0123456789abcdef0123456789abcdef"
	testBotSecret = "gateway-secret"
	adminChatID   = 900
)

type testServer struct {
	t       *testing.T
	db      *database.DB
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := databasetest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testJWTSecret,
			TokenExpiration: time.Hour,
			BotSecret:       testBotSecret,
		},
		Game: config.GameConfig{
			InitialPopulation:   1_000_000,
			InitialGDP:          1_000_000_000,
			InitialMilitary:     10,
			InitialResources:    1000,
			StartingGarrison:    true,
			DailyResourceGain:   100,
			LeaderboardMaxLimit: 50,
		},
		Admin: config.AdminConfig{ChatIDs: []int64{adminChatID}},
	}

	services, err := NewServices(db, cfg, nil, logger)
	if err != nil {
		t.Fatalf("new services: %v", err)
	}

	mux := NewRoutes(db, services, ratelimit.NewMemory(), logger).Setup()
	return &testServer{t: t, db: db, handler: mux}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(chatID int64, username string) string {
	s.t.Helper()

	raw, _ := json.Marshal(map[string]interface{}{"chat_id": chatID, "username": username})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewReader(raw))
	req.Header.Set("X-Bot-Secret", testBotSecret)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &resp)
	return resp.Token
}

func (s *testServer) createNation(token, name string) int64 {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/api/nations", token, map[string]string{
		"name": name, "government": "democracy", "ideology": "liberal",
	})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("create nation %s: status %d: %s", name, rec.Code, rec.Body.String())
	}
	var resp struct {
		Nation struct {
			ID int64 `json:"id"`
		} `json:"nation"`
	}
	decode(s.t, rec, &resp)
	return resp.Nation.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type errorBody struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	Code              int    `json:"code"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/server/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Database string `json:"database"`
	}
	decode(t, rec, &resp)
	if resp.Database != "connected" {
		t.Errorf("database = %q", resp.Database)
	}
}

func TestTokenRequiresGatewaySecret(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/token", "", map[string]interface{}{"chat_id": 1, "username": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/nations/me"},
		{http.MethodPost, "/api/military/build"},
		{http.MethodGet, "/api/rankings"},
		{http.MethodPost, "/api/admin/developments/sweep"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, "", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestStatusWithoutNation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")

	rec := s.do(http.MethodGet, "/api/nations/me", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Message != "You don't have a nation yet. Create one first." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCreateNationUnlocksAndIsRateLimited(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")

	rec := s.do(http.MethodPost, "/api/nations", token, map[string]string{
		"name": "Atlantis", "government": "democracy", "ideology": "liberal",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Nation struct {
			Name      string `json:"name"`
			Resources int64  `json:"resources"`
		} `json:"nation"`
		Achievements []struct {
			Code string `json:"code"`
		} `json:"achievements"`
	}
	decode(t, rec, &created)
	if created.Nation.Name != "Atlantis" || created.Nation.Resources != 1000 {
		t.Errorf("nation = %+v", created.Nation)
	}
	found := false
	for _, a := range created.Achievements {
		if a.Code == "newcomer" {
			found = true
		}
	}
	if !found {
		t.Errorf("achievements = %+v, want newcomer", created.Achievements)
	}

	rec = s.do(http.MethodPost, "/api/nations", token, map[string]string{
		"name": "Lemuria", "government": "democracy", "ideology": "liberal",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Error != "rate_limited" || body.RetryAfterSeconds <= 0 {
		t.Errorf("body = %+v", body)
	}
}

func TestStatusIncludesArmy(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")
	s.createNation(token, "Atlantis")

	rec := s.do(http.MethodGet, "/api/nations/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Army struct {
			Strength int64 `json:"strength"`
		} `json:"army"`
	}
	decode(t, rec, &resp)
	if resp.Army.Strength != 240 {
		t.Errorf("strength = %d, want 240 from the starting garrison", resp.Army.Strength)
	}
}

func TestBuildAndLedger(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")
	s.createNation(token, "Atlantis")

	rec := s.do(http.MethodPost, "/api/military/build", token, map[string]interface{}{
		"unit_type": "tank", "quantity": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("build status = %d: %s", rec.Code, rec.Body.String())
	}
	var built struct {
		Cost      int64 `json:"cost"`
		Resources int64 `json:"resources"`
	}
	decode(t, rec, &built)
	if built.Cost != 200 || built.Resources != 800 {
		t.Errorf("build = %+v", built)
	}

	rec = s.do(http.MethodPost, "/api/military/build", token, map[string]interface{}{
		"unit_type": "dragon", "quantity": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid unit status = %d, want 400", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/ledger", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger status = %d", rec.Code)
	}
	var entries []struct {
		Kind string `json:"kind"`
	}
	decode(t, rec, &entries)
	if len(entries) != 2 {
		t.Errorf("ledger entries = %d, want 2", len(entries))
	}
}

func TestAttackVisibleToBothSides(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(101, "alice")
	bob := s.login(102, "bob")
	carol := s.login(103, "carol")
	s.createNation(alice, "Atlantis")
	bobNation := s.createNation(bob, "Lemuria")
	s.createNation(carol, "Mu")

	rec := s.do(http.MethodPost, "/api/military/attack", alice, map[string]int64{"defender_id": bobNation})
	if rec.Code != http.StatusOK {
		t.Fatalf("attack status = %d: %s", rec.Code, rec.Body.String())
	}
	var attack struct {
		Battle struct {
			ID     int64  `json:"id"`
			Result string `json:"result"`
		} `json:"battle"`
	}
	decode(t, rec, &attack)
	switch attack.Battle.Result {
	case "victory", "defeat", "draw":
	default:
		t.Errorf("result = %q", attack.Battle.Result)
	}

	path := fmt.Sprintf("/api/battles/%d", attack.Battle.ID)
	if rec := s.do(http.MethodGet, path, bob, nil); rec.Code != http.StatusOK {
		t.Errorf("defender view status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, path, carol, nil); rec.Code != http.StatusForbidden {
		t.Errorf("bystander view status = %d, want 403", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/battles", bob, nil)
	var battles []struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &battles)
	if len(battles) != 1 || battles[0].ID != attack.Battle.ID {
		t.Errorf("defender battles = %+v", battles)
	}
}

func TestDevelopmentLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")
	s.createNation(token, "Atlantis")

	rec := s.do(http.MethodGet, "/api/developments/options?category=trade", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("options status = %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/developments", token, map[string]string{
		"category": "infrastructure", "option": "Road Network",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	}
	decode(t, rec, &started)
	if started.Status != "in_progress" {
		t.Errorf("status = %q", started.Status)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/developments/%d/progress", started.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}

	cancelPath := fmt.Sprintf("/api/developments/%d/cancel", started.ID)
	if rec := s.do(http.MethodPost, cancelPath, token, nil); rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, cancelPath, token, nil); rec.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", rec.Code)
	}
}

func TestAllianceRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(101, "alice")
	bob := s.login(102, "bob")
	s.createNation(alice, "Atlantis")
	s.createNation(bob, "Lemuria")

	rec := s.do(http.MethodPost, "/api/alliances", alice, map[string]string{"name": "Ocean Pact"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Alliance struct {
			ID int64 `json:"id"`
		} `json:"alliance"`
	}
	decode(t, rec, &created)
	base := fmt.Sprintf("/api/alliances/%d", created.Alliance.ID)

	if rec := s.do(http.MethodPost, base+"/join", bob, nil); rec.Code != http.StatusOK {
		t.Fatalf("join status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, base+"/disband", bob, nil); rec.Code != http.StatusForbidden {
		t.Errorf("member disband status = %d, want 403", rec.Code)
	}

	rec = s.do(http.MethodGet, base, bob, nil)
	var details struct {
		MemberCount int `json:"member_count"`
	}
	decode(t, rec, &details)
	if details.MemberCount != 2 {
		t.Errorf("member_count = %d, want 2", details.MemberCount)
	}

	if rec := s.do(http.MethodPost, base+"/leave", bob, nil); rec.Code != http.StatusOK {
		t.Errorf("leave status = %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, base+"/disband", alice, nil); rec.Code != http.StatusOK {
		t.Errorf("founder disband status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, base, alice, nil); rec.Code != http.StatusNotFound {
		t.Errorf("details after disband status = %d, want 404", rec.Code)
	}
}

func TestRankingRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.login(101, "alice")
	s.createNation(token, "Atlantis")

	rec := s.do(http.MethodGet, "/api/rankings?metric=gdp&limit=5", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/rankings?metric=happiness", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad metric status = %d, want 400", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/rankings/me", token, nil)
	var ranks struct {
		EconomyRank  int `json:"economy_rank"`
		TotalNations int `json:"total_nations"`
	}
	decode(t, rec, &ranks)
	if ranks.EconomyRank != 1 || ranks.TotalNations != 1 {
		t.Errorf("ranks = %+v", ranks)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	player := s.login(101, "alice")
	admin := s.login(adminChatID, "root")
	nationID := s.createNation(player, "Atlantis")

	adjust := fmt.Sprintf("/api/admin/nations/%d/resources", nationID)
	if rec := s.do(http.MethodPost, adjust, player, map[string]interface{}{"amount": 500}); rec.Code != http.StatusForbidden {
		t.Errorf("player adjust status = %d, want 403", rec.Code)
	}

	rec := s.do(http.MethodPost, adjust, admin, map[string]interface{}{"amount": 500, "reason": "event prize"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin adjust status = %d: %s", rec.Code, rec.Body.String())
	}
	var adjusted struct {
		Nation struct {
			Resources int64 `json:"resources"`
		} `json:"nation"`
	}
	decode(t, rec, &adjusted)
	if adjusted.Nation.Resources != 1500 {
		t.Errorf("resources = %d, want 1500", adjusted.Nation.Resources)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/admin/nations/%d/ledger/verify", nationID), admin, nil)
	var verify struct {
		Entries int  `json:"entries"`
		Valid   bool `json:"valid"`
	}
	decode(t, rec, &verify)
	if !verify.Valid || verify.Entries != 2 {
		t.Errorf("verify = %+v", verify)
	}

	if rec := s.do(http.MethodPost, "/api/admin/developments/sweep", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("sweep status = %d", rec.Code)
	}
}

// seedOverdueRoadNetwork stores a project that ended yesterday and was never swept.
func (s *testServer) seedOverdueRoadNetwork(nationID int64) {
	s.t.Helper()

	end := time.Now().Add(-24 * time.Hour)
	start := end.Add(-24 * time.Hour)
	if _, err := s.db.ExecContext(s.t.Context(), `
		INSERT INTO developments (nation_id, category, name, cost, start_time, end_time, status,
			infrastructure_bonus, research_bonus, trade_bonus)
		VALUES (?, 'infrastructure', 'Road Network', 200, ?, ?, 'in_progress', 0.05, 0, 0)`,
		nationID, start.UnixMilli(), end.UnixMilli(),
	); err != nil {
		s.t.Fatalf("seed development: %v", err)
	}
}

func TestPublicReadsSettleOverdueDevelopments(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(101, "alice")
	bob := s.login(102, "bob")
	carol := s.login(103, "carol")
	s.createNation(alice, "Atlantis")
	bobNation := s.createNation(bob, "Lemuria")
	carolNation := s.createNation(carol, "Mu")
	s.seedOverdueRoadNetwork(bobNation)
	s.seedOverdueRoadNetwork(carolNation)

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/nations/%d", carolNation), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public status = %d: %s", rec.Code, rec.Body.String())
	}
	var public struct {
		Nation struct {
			GDP int64 `json:"gdp"`
		} `json:"nation"`
	}
	decode(t, rec, &public)
	if public.Nation.GDP != 1_050_000_000 {
		t.Errorf("public gdp = %d, want 1050000000", public.Nation.GDP)
	}

	rec = s.do(http.MethodGet, "/api/rankings?metric=gdp", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	var board struct {
		Entries []struct {
			NationID int64 `json:"id"`
			Rank     int   `json:"rank"`
			GDP      int64 `json:"gdp"`
		} `json:"entries"`
	}
	decode(t, rec, &board)
	for _, e := range board.Entries {
		if e.NationID == bobNation && (e.GDP != 1_050_000_000 || e.Rank != 1) {
			t.Errorf("bob entry = %+v, want settled gdp ranked first", e)
		}
	}
}
