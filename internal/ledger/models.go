package ledger

import (
	"strings"
	"time"
)

// Kind is the reason code of a resource movement.
type Kind string

const (
	KindNationFounded        Kind = "nation_founded"
	KindBuildUnits           Kind = "build_units"
	KindDevelopmentStarted   Kind = "development_started"
	KindDevelopmentCompleted Kind = "development_completed"
	KindBattleCapture        Kind = "battle_capture"
	KindBattleLoss           Kind = "battle_loss"
	KindDailyIncome          Kind = "daily_income"
	KindAdminAdjustment      Kind = "admin_adjustment"
)

// GenesisHash is the prev_hash of every nation's first entry.
var GenesisHash = strings.Repeat("0", 64)

type Entry struct {
	ID           int64     `json:"id"`
	NationID     int64     `json:"nation_id"`
	Kind         Kind      `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	PrevHash     string    `json:"prev_hash"`
	Hash         string    `json:"hash"`
}

// VerifyResult reports the first entry whose hash no longer matches its contents or predecessor.
type VerifyResult struct {
	NationID int64  `json:"nation_id"`
	Entries  int    `json:"entries"`
	Valid    bool   `json:"valid"`
	BrokenAt *int64 `json:"broken_at,omitempty"`
}
